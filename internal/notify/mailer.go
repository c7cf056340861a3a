package notify

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// Mailer sends verification mail over SMTP.
type Mailer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func NewMailer(host string, port int, user, pass, from string) *Mailer {
	return &Mailer{Host: host, Port: port, User: user, Pass: pass, From: from}
}

func (m *Mailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.Host, m.Port, m.User, m.Pass)
	return d.DialAndSend(msg)
}

func (m *Mailer) SendVerification(to, username, code string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour verification code is: %s\n", username, code)
	return m.send(to, "Verify your account", body)
}

func (m *Mailer) SendWelcome(to, username string) error {
	body := fmt.Sprintf("Hi %s,\n\nYour account is verified. You can now log in.\n", username)
	return m.send(to, "Account verified", body)
}
