package services

import (
	"context"

	"github.com/harborcx/agentdesk-backend/internal/domain"
	"github.com/harborcx/agentdesk-backend/internal/insights/synthetic"
	"github.com/harborcx/agentdesk-backend/internal/platform/logger"
)

// CustomerDirectory resolves the read-only customer snapshot shared by every
// widget in one orchestration call. Backed by a small seeded dataset for the
// demo surface, with the deterministic synthetic record filling in anything
// the directory does not know.
type CustomerDirectory struct {
	log    *logger.Logger
	seeded map[string]domain.CustomerRecord
}

func NewCustomerDirectory(log *logger.Logger) *CustomerDirectory {
	return &CustomerDirectory{
		log: log.With("service", "CustomerDirectory"),
		seeded: map[string]domain.CustomerRecord{
			"CUST-1001": {
				CustomerID: "CUST-1001",
				Name:       "Margaret Ellis",
				Gender:     "female",
				City:       "Leeds",
				Region:     "West Yorkshire",
				Postcode:   "LS1 4AP",
				Segment:    "broadband-premium",
				Tenure:     "6y",
			},
			"CUST-1002": {
				CustomerID: "CUST-1002",
				Name:       "Tom Okafor",
				Gender:     "male",
				City:       "Bristol",
				Region:     "South West",
				Postcode:   "BS2 8QH",
				Segment:    "mobile-family",
				Tenure:     "2y",
			},
		},
	}
}

func (d *CustomerDirectory) Snapshot(_ context.Context, customerID string) domain.CustomerRecord {
	if rec, ok := d.seeded[customerID]; ok {
		return rec
	}
	d.log.Debug("customer not in directory, using synthetic snapshot", "customer_id", customerID)
	return synthetic.Demographics(customerID)
}
