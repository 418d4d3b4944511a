// Package limits maps subscription plans to resource limits and feature
// flags.
//
// A Plan names its per-resource limits and the features it enables. The
// Service answers three questions for a plan and a subject (a user id):
// may one more unit of a resource be consumed, what is the current usage
// against the limit, and is a feature enabled. Usage is read through a
// CounterFunc registered per resource, so the package does not care where
// counts are stored.
//
// Key concepts:
//
//   - Plan: a tier with resource limits and features
//   - Resource: a countable quantity such as daily images
//   - Feature: a plan-specific capability such as video upload
//   - CounterFunc: returns the current usage of a resource for a subject
//
// Basic usage:
//
//	plans := map[string]limits.Plan{
//		"free": {
//			ID:     "free",
//			Name:   "Free",
//			Limits: map[limits.Resource]int64{limits.ResourceDailyImages: 3},
//		},
//		"paid": {
//			ID:       "paid",
//			Name:     "Premium",
//			Limits:   map[limits.Resource]int64{limits.ResourceDailyImages: limits.Unlimited},
//			Features: []limits.Feature{limits.FeatureVideoUpload},
//		},
//	}
//
//	counters := limits.NewRegistry()
//	counters.Register(limits.ResourceDailyImages, func(ctx context.Context, userID string) (int64, error) {
//		return store.CountToday(ctx, userID)
//	})
//
//	svc, err := limits.NewService(ctx, limits.NewInMemSource(plans), counters)
//	if err != nil {
//		return err
//	}
//
//	if err := svc.CanCreate(ctx, "free", userID, limits.ResourceDailyImages); err != nil {
//		// errors.Is(err, limits.ErrLimitExceeded)
//	}
//	if svc.HasFeature("paid", limits.FeatureVideoUpload) {
//		// allow the upload
//	}
//
// Plans are immutable once the service is built. A limit of Unlimited (-1)
// short-circuits usage checks without calling the counter.
package limits
