// File: /services/email_service.go
package services

import (
	"fmt"
	"html"
	"log"

	"gopkg.in/gomail.v2"

	"grownet-api/config"
	"grownet-api/models"
)

type EmailService struct {
	config *config.Config
	dialer *gomail.Dialer
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		config: cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func (es *EmailService) newMessage(to, subject string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.config.FromName, es.config.FromEmail))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	return m
}

// SendWelcomeEmail greets a newly registered member.
func (es *EmailService) SendWelcomeEmail(email, name string) error {
	m := es.newMessage(email, "Welcome to GrowNet")

	textBody := fmt.Sprintf(`Hello %s!

Your GrowNet account is ready. Browse mentors and mentees, send a connection
request, and start a conversation once you match.

The GrowNet Team
`, name)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", renderEmail(
		"Welcome to GrowNet",
		fmt.Sprintf("Hello %s!", html.EscapeString(name)),
		"Your account is ready. Send a connection request to someone you'd like to learn from or guide, and a private conversation opens as soon as you match.",
	))

	if err := es.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	log.Printf("Welcome email sent to %s", email)
	return nil
}

// SendConnectionEmail tells a member that actorName matched with them or
// accepted their request.
func (es *EmailService) SendConnectionEmail(to, recipientName, actorName string, kind models.NotificationType) error {
	var subject, headline string
	switch kind {
	case models.NotificationTypeConnectionMatched:
		subject = fmt.Sprintf("It's a match with %s", actorName)
		headline = fmt.Sprintf("%s wants to connect with you too.", actorName)
	case models.NotificationTypeConnectionAccepted:
		subject = fmt.Sprintf("%s accepted your request", actorName)
		headline = fmt.Sprintf("%s accepted your connection request.", actorName)
	default:
		return fmt.Errorf("no email template for %s", kind)
	}

	m := es.newMessage(to, subject)

	textBody := fmt.Sprintf(`Hi %s,

%s
Your private conversation is open in GrowNet. Say hello!

The GrowNet Team
`, recipientName, headline)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", renderEmail(
		subject,
		fmt.Sprintf("Hi %s,", html.EscapeString(recipientName)),
		html.EscapeString(headline)+" Your private conversation is open in GrowNet. Say hello!",
	))

	if err := es.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	log.Printf("Connection email (%s) sent to %s", kind, to)
	return nil
}

func renderEmail(title, greeting, body string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>%s</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { text-align: center; background: #1f7a4d; color: white; padding: 20px; border-radius: 10px 10px 0 0; }
        .content { background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px; }
        .footer { text-align: center; margin-top: 20px; color: #666; font-size: 14px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>GrowNet</h1></div>
        <div class="content">
            <h2>%s</h2>
            <p>%s</p>
            <p><strong>The GrowNet Team</strong></p>
        </div>
        <div class="footer">
            <p>This is an automated email, please do not reply.</p>
        </div>
    </div>
</body>
</html>`, html.EscapeString(title), greeting, body)
}
