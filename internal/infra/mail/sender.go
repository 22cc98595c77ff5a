package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

//go:embed templates/welcome.html
var templatesFS embed.FS

var welcomeTmpl = template.Must(template.ParseFS(templatesFS, "templates/welcome.html"))

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from, dashboardURL string) *EmailSender {
	return &EmailSender{
		Host:         host,
		Port:         port,
		User:         user,
		Password:     password,
		From:         from,
		DashboardURL: dashboardURL,
		dialer:       gomail.NewDialer(host, port, user, password),
	}
}

func (s *EmailSender) SendWelcome(to, name, planName string) error {
	data := WelcomeEmailData{
		Name:         name,
		PlanName:     planName,
		DashboardURL: s.DashboardURL,
	}

	var body bytes.Buffer
	if err := welcomeTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("erro ao processar template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Bem-vindo, %s! Seu plano %s está ativo 🚀", name, planName))
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}
	return nil
}
