// Package gmail is a thin adapter around sending mail from the operator's
// own account.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"strings"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/oyamada/tradeperipheral/googleauth"
)

// Scope is the mail access this adapter needs.
const Scope = gmailapi.GmailSendScope

// NewService builds the mail API client on an authorized HTTP client.
func NewService(ctx context.Context, client *http.Client) (*gmailapi.Service, error) {
	svc, err := gmailapi.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, googleauth.WrapAPIError(err)
	}
	return svc, nil
}

// Send sends a plain-text message from the authorized account.
func Send(ctx context.Context, svc *gmailapi.Service, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("no recipient configured")
	}
	raw := base64.URLEncoding.EncodeToString(BuildMessage(to, subject, body))
	_, err := svc.Users.Messages.Send("me", &gmailapi.Message{Raw: raw}).Context(ctx).Do()
	return googleauth.WrapAPIError(err)
}

// BuildMessage assembles the RFC 822 message the API expects. The subject
// is Q-encoded so it survives non-ASCII service names.
func BuildMessage(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
