package service

import (
	"context"
	"fmt"
	"log"

	"matterdesk/internal/config"
	"matterdesk/internal/domain"
	"matterdesk/internal/port"
)

// Notifier sends terminal-state notification emails. Delivery failures are
// logged, never propagated: notification is best-effort and must not affect
// the pipeline outcome.
type Notifier struct {
	sender port.EmailSender
	cfg    config.EmailConfig
}

// NewNotifier creates a Notifier.
func NewNotifier(sender port.EmailSender, cfg config.EmailConfig) *Notifier {
	return &Notifier{sender: sender, cfg: cfg}
}

// DocumentCompleted notifies that a document reached the completed state.
func (n *Notifier) DocumentCompleted(ctx context.Context, rec *domain.DocumentRecord, confidence float64) {
	if n == nil || n.cfg.NotifyAddress == "" {
		return
	}
	subject := fmt.Sprintf("Document processed: %s", rec.FileName)
	body := fmt.Sprintf(
		"<p>Document <b>%s</b> for matter %s finished processing with overall confidence %.0f%%.</p>",
		rec.FileName, rec.MatterID, confidence*100,
	)
	if err := n.sender.Send(ctx, n.cfg.NotifyAddress, subject, body); err != nil {
		log.Printf("notifier.DocumentCompleted: %v", err)
	}
}

// DocumentFailed notifies that a document reached the failed state.
func (n *Notifier) DocumentFailed(ctx context.Context, rec *domain.DocumentRecord) {
	if n == nil || n.cfg.NotifyAddress == "" {
		return
	}
	subject := fmt.Sprintf("Document processing failed: %s", rec.FileName)
	body := fmt.Sprintf(
		"<p>Document <b>%s</b> for matter %s failed: %s</p>",
		rec.FileName, rec.MatterID, rec.ErrorDetail,
	)
	if err := n.sender.Send(ctx, n.cfg.NotifyAddress, subject, body); err != nil {
		log.Printf("notifier.DocumentFailed: %v", err)
	}
}
