package email

import "fmt"

// WelcomeMailer arma y manda el mail de bienvenida tras un alta.
// El llamador decide si fallar es fatal (acá nunca lo es: el provisioning
// lo trata como soft-fail).
type WelcomeMailer struct {
	Sender  Sender
	Subject string
}

// SendWelcome notifica al usuario recién dado de alta. No incluye la
// credencial temporal: esa se devuelve una sola vez por el canal del
// llamador.
func (w *WelcomeMailer) SendWelcome(to, fullName string) error {
	if w == nil || w.Sender == nil {
		return nil
	}
	text := fmt.Sprintf(
		"Hi %s,\n\nYour account was created. An administrator will share your initial credentials with you.\nPlease change your password after your first sign-in.\n",
		fullName,
	)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your account was created. An administrator will share your initial credentials with you.</p><p>Please change your password after your first sign-in.</p>",
		fullName,
	)
	return w.Sender.Send(to, w.Subject, html, text)
}
