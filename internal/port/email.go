package port

import "context"

// EmailSender abstracts outbound email delivery.
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
