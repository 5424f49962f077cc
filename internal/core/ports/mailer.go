package ports

import "context"

// Mailer sends transactional account mails. Implementations are consumed
// fire-and-forget: callers run sends in the background and log failures
// without failing the triggering request.
type Mailer interface {
	SendAccountConfirmation(ctx context.Context, email, name, token string) error
	SendPasswordReset(ctx context.Context, email, name, token string) error
}
