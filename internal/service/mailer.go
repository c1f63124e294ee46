package service

import (
	"context"
	"log/slog"
)

// Mailer delivers password reset codes. Deliveries run in their own
// goroutine and must never block a request path.
type Mailer interface {
	SendResetCode(ctx context.Context, email, code string) error
}

// LogMailer is the default Mailer: it only logs that a code was issued.
// Real deliveries are wired in by the deployment.
type LogMailer struct{}

func (LogMailer) SendResetCode(ctx context.Context, email, code string) error {
	slog.InfoContext(ctx, "password reset code issued", "email", email)
	return nil
}
