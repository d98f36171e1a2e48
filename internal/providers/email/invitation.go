package email

import (
	"context"
	"net/url"
	"strings"

	invitationdomain "github.com/smallbiznis/taskflow/internal/invitation/domain"
)

const TemplateInviteMember = "invite_member"

// InvitationMailer renders invitation emails through a Provider.
type InvitationMailer struct {
	provider  Provider
	acceptURL string
}

func NewInvitationMailer(provider Provider, acceptURL string) *InvitationMailer {
	return &InvitationMailer{provider: provider, acceptURL: strings.TrimSpace(acceptURL)}
}

func (m *InvitationMailer) SendInvitation(ctx context.Context, msg invitationdomain.InvitationEmail) error {
	return m.provider.SendTemplate(ctx, []string{msg.To}, TemplateInviteMember, map[string]any{
		"org_name":   msg.OrganizationName,
		"role":       msg.Role,
		"token":      msg.Token,
		"expires_at": msg.ExpiresAt,
		"accept_url": m.link(msg),
	})
}

func (m *InvitationMailer) link(msg invitationdomain.InvitationEmail) string {
	if m.acceptURL == "" {
		return ""
	}
	u, err := url.Parse(m.acceptURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("org", msg.OrganizationID)
	q.Set("token", msg.Token)
	u.RawQuery = q.Encode()
	return u.String()
}
