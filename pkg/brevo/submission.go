package brevo

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
)

// ContactRequest is a message submitted through the site's contact form.
type ContactRequest struct {
	Name    string
	Email   string
	Company string
	Message string
}

// Mailer forwards contact form submissions to the team inbox.
type Mailer struct {
	client    *Client
	sender    Address
	recipient Address
	newID     func() string
}

// NewMailer builds a Mailer that sends from sender to recipient.
func NewMailer(client *Client, sender, recipient Address) *Mailer {
	return &Mailer{
		client:    client,
		sender:    sender,
		recipient: recipient,
		newID:     func() string { return uuid.NewString() },
	}
}

// SubmitContact emails the submission and returns its reference id. The
// submitter is set as reply-to.
func (m *Mailer) SubmitContact(ctx context.Context, req ContactRequest) (string, error) {
	if strings.TrimSpace(req.Email) == "" {
		return "", ErrMissingEmail
	}
	ref := m.newID()

	subject := fmt.Sprintf("Kontaktanfrage von %s", strings.TrimSpace(req.Name))
	if company := strings.TrimSpace(req.Company); company != "" {
		subject += " (" + company + ")"
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Name: %s\n", req.Name)
	fmt.Fprintf(&text, "E-Mail: %s\n", req.Email)
	if req.Company != "" {
		fmt.Fprintf(&text, "Firma: %s\n", req.Company)
	}
	fmt.Fprintf(&text, "Referenz: %s\n\n%s\n", ref, req.Message)

	body := "<p>" + strings.ReplaceAll(html.EscapeString(text.String()), "\n", "<br>") + "</p>"

	_, err := m.client.SendEmail(ctx, Email{
		Sender:      m.sender,
		To:          []Address{m.recipient},
		ReplyTo:     &Address{Name: req.Name, Email: req.Email},
		Subject:     subject,
		TextContent: text.String(),
		HTMLContent: body,
		Tags:        []string{"contact-form"},
		Headers:     map[string]string{"X-Submission-Id": ref},
	})
	if err != nil {
		return "", err
	}
	return ref, nil
}

// Subscribe adds email to the newsletter lists. attrs are stored as contact
// attributes (FIRSTNAME, SOURCE).
func (m *Mailer) Subscribe(ctx context.Context, email string, listIDs []int64, attrs map[string]any) (ContactResult, error) {
	return m.client.AddContact(ctx, Contact{
		Email:         email,
		Attributes:    attrs,
		ListIDs:       listIDs,
		UpdateEnabled: true,
	})
}
