package services

import (
	"context"
	"testing"

	"github.com/harborcx/agentdesk-backend/internal/platform/logger"
)

func TestCustomerDirectory_SeededRecordWins(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	d := NewCustomerDirectory(log)

	rec := d.Snapshot(context.Background(), "CUST-1001")
	if rec.Name != "Margaret Ellis" || rec.City != "Leeds" {
		t.Fatalf("unexpected seeded record: %+v", rec)
	}
}

func TestCustomerDirectory_UnknownFallsBackToSynthetic(t *testing.T) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	d := NewCustomerDirectory(log)

	ctx := context.Background()
	a := d.Snapshot(ctx, "CUST-UNKNOWN-1")
	b := d.Snapshot(ctx, "CUST-UNKNOWN-1")
	if a != b {
		t.Fatalf("synthetic snapshot must be stable per id")
	}
	if a.Name == "" || a.City == "" {
		t.Fatalf("incomplete synthetic snapshot: %+v", a)
	}
}
