package invitations

import (
	"fmt"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/familybudget/family-budget-api/models"
	templates "github.com/familybudget/family-budget-api/templates/html"
)

// Notifier receives lifecycle events after the durable write has committed.
// Implementations must be best-effort: a notification failure never unwinds
// the invitation itself.
type Notifier interface {
	InvitationCreated(invitation models.Invitation, familyName, inviterName string)
}

// EmailNotifier sends the invitee an email carrying the acceptance link.
type EmailNotifier struct {
	BaseURL string
}

// NewEmailNotifier reads BASE_URL for the acceptance link host.
func NewEmailNotifier() *EmailNotifier {
	return &EmailNotifier{BaseURL: os.Getenv("BASE_URL")}
}

// InvitationCreated emails the invitee. Errors are logged and dropped.
func (n *EmailNotifier) InvitationCreated(invitation models.Invitation, familyName, inviterName string) {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		zap.S().Warn("SENDGRID_API_KEY not set, skipping invitation email")
		return
	}

	acceptURL := fmt.Sprintf("%s/invite/%s", n.BaseURL, invitation.Token)
	htmlContent := templates.RenderInvitationEmail(templates.InvitationEmailData{
		FamilyName:  familyName,
		InviterName: inviterName,
		Role:        invitation.Role,
		Message:     invitation.Message,
		AcceptURL:   acceptURL,
		ExpiresAt:   invitation.ExpiresAt.Time(),
	})

	from := mail.NewEmail("Family Budget", "no-reply@familybudget.app")
	to := mail.NewEmail("", invitation.InvitedEmail)
	subject := fmt.Sprintf("You've been invited to join %s on Family Budget", familyName)
	message := mail.NewSingleEmail(from, subject, to, "", htmlContent)

	client := sendgrid.NewSendClient(apiKey)
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send invitation email",
			"email", invitation.InvitedEmail,
			"error", err,
		)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid rejected invitation email",
			"email", invitation.InvitedEmail,
			"status", response.StatusCode,
			"body", response.Body,
		)
		return
	}

	zap.S().Infow("invitation email sent",
		"email", invitation.InvitedEmail,
		"familyId", invitation.FamilyID,
	)
}

// MultiNotifier fans an event out to several notifiers.
type MultiNotifier []Notifier

// InvitationCreated delivers the event to every underlying notifier.
func (m MultiNotifier) InvitationCreated(invitation models.Invitation, familyName, inviterName string) {
	for _, n := range m {
		n.InvitationCreated(invitation, familyName, inviterName)
	}
}
