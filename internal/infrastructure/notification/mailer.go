// Package notification delivers applicant-facing messages for the outbox
// dispatcher.
package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// SMTPConfig holds mail relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Mailer implements port.Notifier over a plain SMTP relay
type Mailer struct {
	cfg    SMTPConfig
	logger *zap.Logger

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer creates an SMTP mailer
func NewMailer(cfg SMTPConfig, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger, send: smtp.SendMail}
}

type message struct {
	subject string
	body    string
}

// render builds subject and body for a template. Unknown templates get a
// generic status update so a new transition never blocks the outbox.
func render(template string, data map[string]any) message {
	name := str(data, "full_name")
	ref := str(data, "reference")

	switch template {
	case "application_submitted":
		return message{
			subject: fmt.Sprintf("Application received — %s", ref),
			body: fmt.Sprintf("Dear %s,\n\nWe have received your admission application. Your reference number is %s. Keep it for all future correspondence; you can check your status at any time with it.\n\nAdmissions Office", name, ref),
		}
	case "application_under_review":
		return message{
			subject: fmt.Sprintf("Application under review — %s", ref),
			body: fmt.Sprintf("Dear %s,\n\nYour application %s is now being reviewed by the admissions team. We will contact you once your documents have been checked.\n\nAdmissions Office", name, ref),
		}
	case "documents_verified":
		return message{
			subject: fmt.Sprintf("Documents verified — %s", ref),
			body: fmt.Sprintf("Dear %s,\n\nThe documents for your application %s have been verified. The next step is the registration fee payment; payment details will follow shortly.\n\nAdmissions Office", name, ref),
		}
	case "payment_requested":
		return message{
			subject: fmt.Sprintf("Registration fee requested — %s", ref),
			body: fmt.Sprintf("Dear %s,\n\nTo continue with your application %s, please pay the registration fee of %s. Your application will move forward as soon as the payment is confirmed.\n\nAdmissions Office", name, ref, str(data, "registration_fee")),
		}
	case "payment_received":
		return message{
			subject: fmt.Sprintf("Payment confirmed — %s", ref),
			body: fmt.Sprintf("Dear %s,\n\nWe have received your registration fee payment (transaction %s) for application %s. Your application is now awaiting final approval.\n\nAdmissions Office", name, str(data, "transaction_id"), ref),
		}
	case "application_approved":
		return message{
			subject: fmt.Sprintf("Congratulations — application %s approved", ref),
			body: fmt.Sprintf("Dear %s,\n\nCongratulations! Your application %s has been approved.\n\nStudent number: %s\nUniversity email: %s\nInitial password: %s\n\nPlease sign in and change your password on first login. Your acceptance letter and university card will follow in a separate message.\n\nAdmissions Office",
				name, ref, str(data, "student_number"), str(data, "university_email"), str(data, "credential")),
		}
	case "application_rejected":
		body := fmt.Sprintf("Dear %s,\n\nWe regret to inform you that your application %s was not successful.", name, ref)
		if reason := str(data, "reason"); reason != "" {
			body += "\n\nReason: " + reason
		}
		body += "\n\nAdmissions Office"
		return message{subject: fmt.Sprintf("Application decision — %s", ref), body: body}
	default:
		return message{
			subject: fmt.Sprintf("Application update — %s", ref),
			body: fmt.Sprintf("Dear %s,\n\nThe status of your application %s is now: %s.\n\nAdmissions Office", name, ref, str(data, "status_label")),
		}
	}
}

// Notify renders the template and sends it through the relay
func (m *Mailer) Notify(ctx context.Context, recipient, template string, data map[string]any) error {
	msg := render(template, data)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{recipient}, []byte(b.String())); err != nil {
		m.logger.Warn("Failed to send email",
			zap.String("recipient", recipient),
			zap.String("template", template),
			zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}

	m.logger.Info("Email sent", zap.String("recipient", recipient), zap.String("template", template))
	return nil
}

func str(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
