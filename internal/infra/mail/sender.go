package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/beauty-leads/internal/entity"
	"github.com/xavierca1/beauty-leads/internal/usecase"
)

//go:embed templates/*.html
var templateFS embed.FS

var newLeadTmpl = template.Must(template.ParseFS(templateFS, "templates/new_lead.html"))

// NewEmailSender sends from user through host:port to the address in to.
func NewEmailSender(host string, port int, user, password, to string) *EmailSender {
	return &EmailSender{
		From:   user,
		To:     to,
		Dialer: gomail.NewDialer(host, port, user, password),
	}
}

// SendNewLeadAlert mails the owner about a lead that was just created.
func (s *EmailSender) SendNewLeadAlert(ctx context.Context, event usecase.LeadEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := s.newLeadMessage(event)
	if err != nil {
		return err
	}
	if err := s.Dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send new lead alert: %w", err)
	}
	return nil
}

func (s *EmailSender) newLeadMessage(event usecase.LeadEvent) (*gomail.Message, error) {
	name := event.FullName
	if name == "" {
		name = entity.UnnamedLead
	}
	data := NewLeadEmailData{
		Name:        name,
		Source:      string(event.Source),
		InquiryType: string(event.InquiryType),
		Status:      string(event.Status),
		Notes:       event.Notes,
		ReceivedAt:  event.OccurredAt.Format(entity.DateLayout + " 15:04"),
	}

	body, err := renderNewLead(data)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To)
	m.SetHeader("Subject", "ליד חדש: "+name)
	m.SetBody("text/html", body)
	return m, nil
}

func renderNewLead(data NewLeadEmailData) (string, error) {
	var body bytes.Buffer
	if err := newLeadTmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("render new lead template: %w", err)
	}
	return body.String(), nil
}
