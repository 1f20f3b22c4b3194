package notify

import (
	"context"
	"log/slog"
)

// Notifier delivers one-time verification codes to users. Delivery is
// best-effort; callers log failures instead of failing the request.
type Notifier interface {
	SendOneTimeCode(ctx context.Context, email, code string) error
}

// LogNotifier writes codes to the log. Used in development and tests when no
// broker is configured.
type LogNotifier struct{}

// SendOneTimeCode logs the code instead of delivering it.
func (LogNotifier) SendOneTimeCode(_ context.Context, email, code string) error {
	slog.Info("one-time code issued", "email", email, "code", code)
	return nil
}
