package mail

import "gopkg.in/gomail.v2"

// NewLeadEmailData feeds templates/new_lead.html.
type NewLeadEmailData struct {
	Name        string
	Source      string
	InquiryType string
	Status      string
	Notes       string
	ReceivedAt  string
}

// Dialer is the sending side of *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	From   string
	To     string
	Dialer Dialer
}
