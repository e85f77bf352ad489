package email

// Sender abstrae el envío de un email ya renderizado.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}
