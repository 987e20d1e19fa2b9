package utils

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"vendix/config"
)

// Mailer sends a templated email to one recipient. The action URL lands in
// the template's button/link.
type Mailer interface {
	Send(toEmail, firstName, templateName, subject, actionURL string) error
}

// NewMailer picks the transport by environment: SendGrid in production,
// Postmark everywhere else.
func NewMailer(cfg *config.Config) Mailer {
	if cfg.IsProduction() {
		return &SendgridMailer{cfg: cfg}
	}
	return &PostmarkMailer{
		cfg:    cfg,
		client: postmark.NewClient(cfg.PostmarkToken, ""),
	}
}

var emailTemplates = map[string]*template.Template{
	"verify": template.Must(template.New("verify").Parse(
		`<p>Hi {{.FirstName}},</p>
<p>Welcome to Vendix! Please confirm your email address by clicking the link below. The link is valid for 10 minutes.</p>
<p><a href="{{.URL}}">Verify my account</a></p>`)),
	"welcome": template.Must(template.New("welcome").Parse(
		`<p>Hi {{.FirstName}},</p>
<p>Your account is verified and ready to go. Visit your profile to get started:</p>
<p><a href="{{.URL}}">My profile</a></p>`)),
	"passwordReset": template.Must(template.New("passwordReset").Parse(
		`<p>Hi {{.FirstName}},</p>
<p>Forgot your password? Use the link below to set a new one. The link is valid for 10 minutes.</p>
<p><a href="{{.URL}}">Reset my password</a></p>
<p>If you didn't request a reset, you can ignore this email.</p>`)),
	"notifyPasswordChange": template.Must(template.New("notifyPasswordChange").Parse(
		`<p>Hi {{.FirstName}},</p>
<p>Your password was just changed. If this wasn't you, reset your password immediately:</p>
<p><a href="{{.URL}}">Reset my password</a></p>`)),
}

// RenderEmail produces the HTML body for a named template.
func RenderEmail(templateName, firstName, actionURL string) (string, error) {
	tpl, ok := emailTemplates[templateName]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", templateName)
	}
	var buf bytes.Buffer
	err := tpl.Execute(&buf, struct {
		FirstName string
		URL       string
	}{firstName, actionURL})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PostmarkMailer is the development transport.
type PostmarkMailer struct {
	cfg    *config.Config
	client *postmark.Client
}

// Send renders the template and delivers it through Postmark.
func (m *PostmarkMailer) Send(toEmail, firstName, templateName, subject, actionURL string) error {
	html, err := RenderEmail(templateName, firstName, actionURL)
	if err != nil {
		return err
	}

	_, err = m.client.SendEmail(postmark.Email{
		From:     fmt.Sprintf("%q <%s>", m.cfg.EmailFromName, m.cfg.EmailFrom),
		To:       toEmail,
		Subject:  subject,
		HtmlBody: html,
		TextBody: fmt.Sprintf("Hi %s,\n\n%s\n", firstName, actionURL),
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendgridMailer is the production transport.
type SendgridMailer struct {
	cfg *config.Config
}

// Send renders the template and delivers it through SendGrid.
func (m *SendgridMailer) Send(toEmail, firstName, templateName, subject, actionURL string) error {
	html, err := RenderEmail(templateName, firstName, actionURL)
	if err != nil {
		return err
	}

	from := mail.NewEmail(m.cfg.EmailFromName, m.cfg.EmailFrom)
	to := mail.NewEmail(firstName, toEmail)
	text := fmt.Sprintf("Hi %s,\n\n%s\n", firstName, actionURL)
	message := mail.NewSingleEmail(from, subject, to, text, html)

	response, err := sendgrid.NewSendClient(m.cfg.SendgridAPIKey).Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email: sendgrid responded %d", response.StatusCode)
	}
	return nil
}
