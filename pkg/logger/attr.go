package logger

import (
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under the key "error". A nil error yields an empty Attr,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under the key "errors".
func Errors(errs ...error) slog.Attr {
	attrs := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			attrs = append(attrs, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(attrs) == 0 {
		return slog.Attr{}
	}
	return Group("errors", attrs...)
}

// UserID records the internal user identifier.
func UserID(id string) slog.Attr {
	return optional("user_id", id)
}

// CustomerID records the billing provider's customer identifier.
func CustomerID(id string) slog.Attr {
	return optional("customer_id", id)
}

// RequestID records the request correlation identifier.
func RequestID(id string) slog.Attr {
	return optional("request_id", id)
}

// EventID records the external event identifier.
func EventID(id string) slog.Attr {
	return optional("event_id", id)
}

// EventType records the provider event type.
func EventType(eventType string) slog.Attr {
	return slog.String("event_type", eventType)
}

// Provider records the billing provider name.
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// Plan records a plan name.
func Plan(plan string) slog.Attr {
	return slog.String("plan", plan)
}

// Status records a subscription status.
func Status(status string) slog.Attr {
	return slog.String("status", status)
}

// Outcome records the result of processing a unit of work.
func Outcome(outcome string) slog.Attr {
	return slog.String("outcome", outcome)
}

// Component records the component name.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Duration records a duration.
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

func optional(key, value string) slog.Attr {
	if value == "" {
		return slog.Attr{}
	}
	return slog.String(key, value)
}
