package ports

import "context"

// Mailer delivers a single HTML message.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// OutgoingMail is a message handed to the asynchronous mail queue.
type OutgoingMail struct {
	To      string
	Subject string
	HTML    string
}

// MailQueue accepts best-effort messages that must not block a request.
type MailQueue interface {
	Enqueue(mail OutgoingMail)
}
