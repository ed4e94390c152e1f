package noop

import (
	"context"
	"log"

	"matterdesk/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs instead of sending.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) Send(_ context.Context, to, subject, _ string) error {
	log.Printf("[NOOP EMAIL] to=%s subject=%q", to, subject)
	return nil
}
