package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPMailer sends auction notifications over SMTP.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// SendWinnerEmail congratulates the winning bidder after closure. The
// seller's contact details go into the body so the buyer can arrange
// payment and delivery.
func (m *SMTPMailer) SendWinnerEmail(to, itemTitle, finalPrice, sellerUsername, sellerEmail string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("You won the auction for '%s'!", itemTitle))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Congratulations!\n\nYour bid of %s won the auction for '%s'.\n\nSeller: %s\nSeller Email: %s\n\nPlease contact the seller to arrange payment and delivery.\n",
		finalPrice, itemTitle, sellerUsername, sellerEmail))

	d := gomail.NewDialer(m.host, m.port, m.username, m.password)
	return d.DialAndSend(msg)
}
