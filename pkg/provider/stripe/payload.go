package stripe

import (
	"bytes"
	"encoding/json"
	"time"
)

const metadataUserID = "user_id"

// objectID decodes a field that is either an id string or an expanded
// object with an id.
type objectID string

func (o *objectID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = objectID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*o = objectID(obj.ID)
	return nil
}

type checkoutSession struct {
	ID                string            `json:"id"`
	Mode              string            `json:"mode"`
	Customer          objectID          `json:"customer"`
	Subscription      objectID          `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

func (s checkoutSession) userID() string {
	if s.ClientReferenceID != "" {
		return s.ClientReferenceID
	}
	return s.Metadata[metadataUserID]
}

type subscription struct {
	ID                string            `json:"id"`
	Customer          objectID          `json:"customer"`
	Status            string            `json:"status"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64             `json:"current_period_end"`
	Metadata          map[string]string `json:"metadata"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// periodEnd prefers the item level period end and falls back to the legacy
// subscription field.
func (s subscription) periodEnd() time.Time {
	var end int64
	for _, it := range s.Items.Data {
		end = max(end, it.CurrentPeriodEnd)
	}
	if end == 0 {
		end = s.CurrentPeriodEnd
	}
	return unix(end)
}

type invoice struct {
	ID           string   `json:"id"`
	Customer     objectID `json:"customer"`
	Subscription objectID `json:"subscription"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription objectID          `json:"subscription"`
			Metadata     map[string]string `json:"metadata"`
		} `json:"subscription_details"`
	} `json:"parent"`
	SubscriptionDetails *struct {
		Metadata map[string]string `json:"metadata"`
	} `json:"subscription_details"`
	Lines struct {
		Data []struct {
			Period struct {
				End int64 `json:"end"`
			} `json:"period"`
		} `json:"data"`
	} `json:"lines"`
}

func (in invoice) subscriptionID() string {
	if in.Parent != nil && in.Parent.SubscriptionDetails != nil && in.Parent.SubscriptionDetails.Subscription != "" {
		return string(in.Parent.SubscriptionDetails.Subscription)
	}
	return string(in.Subscription)
}

func (in invoice) userID() string {
	if in.Parent != nil && in.Parent.SubscriptionDetails != nil {
		if id := in.Parent.SubscriptionDetails.Metadata[metadataUserID]; id != "" {
			return id
		}
	}
	if in.SubscriptionDetails != nil {
		return in.SubscriptionDetails.Metadata[metadataUserID]
	}
	return ""
}

func (in invoice) periodEnd() time.Time {
	var end int64
	for _, l := range in.Lines.Data {
		end = max(end, l.Period.End)
	}
	return unix(end)
}

func unix(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
