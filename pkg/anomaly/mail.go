package anomaly

import (
	"context"
	"errors"
	"fmt"
	"html"
	"maps"
	"slices"
	"strings"

	"github.com/mrz1836/postmark"
)

// EmailSender is the Postmark call the mailer uses.
type EmailSender interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// Mailer sends an alert mail for every anomaly.
type Mailer struct {
	client EmailSender
	from   string
	to     string
}

// NewMailer builds a mailer. A nil client is created from the Postmark
// tokens in cfg.
func NewMailer(cfg Config, client EmailSender) (*Mailer, error) {
	if cfg.AlertFrom == "" || cfg.AlertTo == "" {
		return nil, fmt.Errorf("%w: AlertFrom and AlertTo are required", ErrInvalidConfig)
	}
	if client == nil {
		if cfg.PostmarkServerToken == "" {
			return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
		}
		client = postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken)
	}
	return &Mailer{client: client, from: cfg.AlertFrom, to: cfg.AlertTo}, nil
}

// Report sends one alert mail for a.
func (m *Mailer) Report(ctx context.Context, a Anomaly) error {
	resp, err := m.client.SendEmail(ctx, postmark.Email{
		From:     m.from,
		To:       m.to,
		Subject:  fmt.Sprintf("[billing] %s: %s %s", a.Kind, a.Provider, a.EventID),
		Tag:      "billing-anomaly",
		TextBody: textBody(a),
		HTMLBody: "<pre>" + html.EscapeString(textBody(a)) + "</pre>",
	})
	if err != nil {
		return errors.Join(ErrAlertFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrAlertFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

func textBody(a Anomaly) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Anomaly:      %s\n", a.ID)
	fmt.Fprintf(&b, "Kind:         %s\n", a.Kind)
	fmt.Fprintf(&b, "Provider:     %s\n", a.Provider)
	fmt.Fprintf(&b, "Event:        %s (%s)\n", a.EventID, a.EventType)
	fmt.Fprintf(&b, "Customer:     %s\n", a.Identity.CustomerID)
	fmt.Fprintf(&b, "Metadata:     %s\n", a.Identity.MetadataUserID)
	fmt.Fprintf(&b, "Reason:       %s\n", a.Reason)
	fmt.Fprintf(&b, "Occurred at:  %s\n", a.OccurredAt.Format("2006-01-02 15:04:05 MST"))
	if len(a.Summary) > 0 {
		b.WriteString("\nSummary:\n")
		for _, k := range slices.Sorted(maps.Keys(a.Summary)) {
			fmt.Fprintf(&b, "  %s: %s\n", k, a.Summary[k])
		}
	}
	return b.String()
}
