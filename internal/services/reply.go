package services

import (
	"context"
	"strings"

	"github.com/harborcx/agentdesk-backend/internal/domain"
	"github.com/harborcx/agentdesk-backend/internal/insights/completion"
	"github.com/harborcx/agentdesk-backend/internal/platform/logger"
)

// Completer matches *completion.Client.
type Completer interface {
	Complete(ctx context.Context, promptText string, opts completion.Options) completion.Result
}

// ReplyService generates the simulated customer side of a demo conversation
// after each agent turn. Operators suppress it with DISABLE_AUTO_REPLY when
// driving the desk against real traffic.
type ReplyService struct {
	log      *logger.Logger
	client   Completer
	disabled bool
}

func NewReplyService(log *logger.Logger, client Completer, disabled bool) *ReplyService {
	return &ReplyService{
		log:      log.With("service", "ReplyService"),
		client:   client,
		disabled: disabled,
	}
}

const replyPrompt = `You play the customer in a contact-center conversation. Reply with the customer's next message only: one or two sentences, no quotes, no role prefix.

Conversation so far:
`

// GenerateCustomerReply returns the next customer turn, or ok=false when
// auto-reply is disabled or the backend has nothing usable.
func (s *ReplyService) GenerateCustomerReply(ctx context.Context, turns []domain.Turn) (domain.Turn, bool) {
	if s.disabled {
		return domain.Turn{}, false
	}
	res := s.client.Complete(ctx, replyPrompt+domain.Transcript(turns), completion.Options{
		Temperature: 0.7,
		Retry:       completion.DefaultRetry(),
	})
	if !res.OK {
		s.log.Debug("auto-reply unavailable, skipping")
		return domain.Turn{}, false
	}
	content := strings.TrimSpace(res.Text)
	if content == "" {
		return domain.Turn{}, false
	}
	return domain.Turn{Role: domain.RoleCustomer, Content: content}, true
}
