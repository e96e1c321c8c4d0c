package ports

import (
	"context"

	"github.com/tejashwikalptaru/songscope/internal/domain"
)

// ChatCompleter sends one stateless chat-completion request.
// Every call carries its full context; nothing is remembered between calls.
type ChatCompleter interface {
	// Complete returns the text of the first choice.
	// Failures are reported as *domain.ServiceError.
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}
