package templates

import (
	"fmt"
	"html"
	"time"
)

// InvitationEmailData carries the fields rendered into the invitation email.
type InvitationEmailData struct {
	FamilyName  string
	InviterName string
	Role        string
	Message     string
	AcceptURL   string
	ExpiresAt   time.Time
}

// RenderInvitationEmail generates the HTML body for a family invitation
// email, including the acceptance button and the optional personal note.
func RenderInvitationEmail(data InvitationEmailData) string {
	safeFamily := html.EscapeString(data.FamilyName)
	safeInviter := html.EscapeString(data.InviterName)
	safeRole := html.EscapeString(data.Role)

	noteBlock := ""
	if data.Message != "" {
		noteBlock = fmt.Sprintf(`
      <div style="background-color: #f4f5f7; border-left: 4px solid #2e7d32; padding: 15px 20px; margin: 20px 0; font-style: italic;">
        %s
      </div>`, html.EscapeString(data.Message))
	}

	body := fmt.Sprintf(`
      <p>Hi,</p>
      <p><strong>%s</strong> has invited you to join the <strong>%s</strong> family as a <strong>%s</strong> on Family Budget.</p>
      %s
      <div style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: #2e7d32; color: white; padding: 14px 28px; text-decoration: none; border-radius: 6px; display: inline-block; font-weight: 600;">Accept Invitation</a>
      </div>
      <p>Or copy and paste this link into your browser:</p>
      <p style="word-break: break-all;"><a href="%s" style="color: #2e7d32;">%s</a></p>
      <p><strong>This invitation expires on %s.</strong></p>
      <p>If you weren't expecting this invitation, you can safely ignore this email.</p>`,
		safeInviter, safeFamily, safeRole, noteBlock,
		data.AcceptURL, data.AcceptURL, data.AcceptURL,
		data.ExpiresAt.UTC().Format("January 2, 2006"),
	)

	return renderInvitationShell(safeFamily, body)
}

// renderInvitationShell wraps the invitation body in the standard branded
// frame. The body here is trusted HTML built above from escaped inputs, so
// it bypasses RenderGenericEmail's escaping.
func renderInvitationShell(familyName, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Join %s on Family Budget</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f5f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #2e7d32 0%%, #1b5e20 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #374151; line-height: 1.6; font-size: 15px; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid rgba(0,0,0,0.1); }
    .footer a { color: #2e7d32; text-decoration: none; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>You're Invited!</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>&copy; Family Budget | <a href="https://www.familybudget.app">familybudget.app</a></p>
      <p><a href="https://www.familybudget.app/contact-us">Contact Support</a></p>
    </div>
  </div>
</body>
</html>`, familyName, body)
}
