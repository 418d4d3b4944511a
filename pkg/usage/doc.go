// Package usage holds per-user, per-day counters that gate free-tier
// features.
//
// Counters are keyed by user and calendar Day, so yesterday's usage never
// needs to be zeroed: a new day reads a new key. Days follow the calendar of
// the configured time zone (USAGE_TIME_ZONE, UTC by default).
//
// # Plans
//
// The quota itself lives in a limits catalogue built by Plans:
//
//	free   daily_images = USAGE_DAILY_IMAGE_LIMIT (negative means unlimited)
//	trial  daily_images unlimited, video_upload
//	paid   daily_images unlimited, video_upload
//
// Callers pass the plan whose limits apply. A lapsed trial or subscription
// is the free plan even if the stored record has not been moved yet.
//
// # Tracker
//
//	tracker, err := usage.NewTracker(ctx, usage.NewMemoryCounter(), cfg)
//	if err != nil {
//	    return err
//	}
//
//	snap, err := tracker.ConsumeImage(ctx, userID, billing.PlanFree, time.Now())
//	if errors.Is(err, usage.ErrQuotaExceeded) {
//	    // snap still reports today's usage
//	}
//
// ConsumeImage checks the limit before incrementing and checks again after,
// so concurrent submissions never push a user past the limit even though
// some of them may be counted and refused. Plans without an image limit are
// not counted at all. ResetToday clears today's counter when a new billing
// period starts.
//
// # Counters
//
// MemoryCounter serves tests and single-process deployments. pgstore and
// redisstore provide shared implementations; both increment atomically in
// the store.
package usage
