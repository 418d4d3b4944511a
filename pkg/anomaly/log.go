package anomaly

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/subsync/pkg/logger"
)

// LogReporter writes anomalies to the log at error level.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter returns a reporter writing to l, or slog.Default when nil.
func NewLogReporter(l *slog.Logger) *LogReporter {
	if l == nil {
		l = slog.Default()
	}
	return &LogReporter{logger: l}
}

// Report logs a at error level. It never fails.
func (r *LogReporter) Report(ctx context.Context, a Anomaly) error {
	r.logger.LogAttrs(ctx, slog.LevelError, "billing event needs manual reconciliation",
		logger.Component("anomaly"),
		slog.String("anomaly_id", a.ID),
		slog.String("kind", string(a.Kind)),
		logger.Provider(a.Provider),
		logger.EventID(a.EventID),
		logger.EventType(a.EventType),
		logger.CustomerID(a.Identity.CustomerID),
		slog.String("metadata_user_id", a.Identity.MetadataUserID),
		slog.String("reason", a.Reason),
	)
	return nil
}
