// Package anomaly reports billing events that need manual reconciliation.
//
// An event whose identity cannot be attributed to a user, whose identity
// sources disagree, or that lacks a field needed to apply it is never
// applied. Instead it is handed to a Reporter so an operator can act on it.
//
// An Anomaly holds the event id and type, the external identity, the
// reason and the redacted event summary. The raw provider payload is not
// included: it carries customer contact data and stays with the provider,
// where the event id finds it.
//
// # Reporters
//
//   - NewLogReporter writes one error-level record per anomaly.
//   - NewS3Archiver stores each anomaly as JSON under
//     <prefix>/<yyyy-mm-dd>/<event id>.json (ANOMALY_S3_BUCKET).
//   - NewMailer sends a plain-text alert through Postmark
//     (ANOMALY_ALERT_TO, ANOMALY_ALERT_FROM, POSTMARK_SERVER_TOKEN).
//
// Multi fans one anomaly out to several reporters and joins their errors:
//
//	var cfg anomaly.Config
//	config.MustLoad(&cfg)
//
//	reporters := []anomaly.Reporter{anomaly.NewLogReporter(log)}
//	if cfg.S3Bucket != "" {
//	    archive, err := anomaly.NewS3Archiver(ctx, cfg, nil)
//	    if err != nil {
//	        return err
//	    }
//	    reporters = append(reporters, archive)
//	}
//	reporter := anomaly.Multi(reporters...)
//
// A nil client makes NewS3Archiver and NewMailer build the real AWS and
// Postmark clients from cfg; tests pass mocks of S3Client and EmailSender.
//
// # Errors
//
// ErrInvalidConfig is returned for a reporter without its required
// settings. S3 failures are joined with ErrArchiveFailed, except a denied
// request (ErrAccessDenied) and a missing bucket (ErrBucketNotFound). Postmark failures, including a non-zero error code in
// an otherwise successful response, are joined with ErrAlertFailed.
package anomaly
