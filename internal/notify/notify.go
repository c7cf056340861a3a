package notify

import "log"

// Notifier dispatches account verification messages. Billing never
// touches it; only signup/verification flows do.
type Notifier interface {
	SendVerification(to, username, code string) error
	SendWelcome(to, username string) error
}

// LogNotifier prints instead of sending; used in dev and tests when no
// SMTP host is configured.
type LogNotifier struct{}

func (LogNotifier) SendVerification(to, username, code string) error {
	log.Printf("[notify] verification for %s <%s>: code=%s", username, to, code)
	return nil
}

func (LogNotifier) SendWelcome(to, username string) error {
	log.Printf("[notify] welcome for %s <%s>", username, to)
	return nil
}
