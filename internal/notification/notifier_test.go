package notification

import (
	"FlowForge/internal/config"
	"testing"
)

func TestSendRequiresRecipients(t *testing.T) {
	n := NewEmailNotifier(config.SMTPConfig{
		Host: "mail.example.com",
		Port: 587,
		From: "flowforge@example.com",
	})
	if err := n.Send("subject", "body"); err == nil {
		t.Fatal("expected error when no recipients are configured")
	}
}
