package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/limits"
)

// Config is the free-tier quota.
type Config struct {
	// DailyImageLimit is the number of images a free user may submit per
	// day. Negative means unlimited.
	DailyImageLimit int `env:"USAGE_DAILY_IMAGE_LIMIT" envDefault:"3"`
	// TimeZone names the location whose calendar defines a day.
	TimeZone string `env:"USAGE_TIME_ZONE" envDefault:"UTC"`
}

// Snapshot is the usage part of the status query. DailyImageLimit is -1
// for plans without an image limit.
type Snapshot struct {
	ImagesUsedToday int  `json:"imagesUsedToday"`
	DailyImageLimit int  `json:"dailyImageLimit"`
	CanUploadVideo  bool `json:"canUploadVideo"`
}

// Plans returns the limits catalogue for the billing plans: free users get
// the daily image quota, trial and paid users get unlimited images and
// video upload.
func Plans(cfg Config) map[string]limits.Plan {
	free := int64(cfg.DailyImageLimit)
	if free < 0 {
		free = limits.Unlimited
	}
	premium := map[limits.Resource]int64{limits.ResourceDailyImages: limits.Unlimited}
	return map[string]limits.Plan{
		string(billing.PlanFree): {
			ID:     string(billing.PlanFree),
			Name:   "Free",
			Limits: map[limits.Resource]int64{limits.ResourceDailyImages: free},
		},
		string(billing.PlanTrial): {
			ID:       string(billing.PlanTrial),
			Name:     "Trial",
			Limits:   premium,
			Features: []limits.Feature{limits.FeatureVideoUpload},
		},
		string(billing.PlanPaid): {
			ID:       string(billing.PlanPaid),
			Name:     "Premium",
			Limits:   premium,
			Features: []limits.Feature{limits.FeatureVideoUpload},
		},
	}
}

type dayCtxKey struct{}

func withDay(ctx context.Context, d Day) context.Context {
	return context.WithValue(ctx, dayCtxKey{}, d)
}

func dayFromContext(ctx context.Context) (Day, bool) {
	d, ok := ctx.Value(dayCtxKey{}).(Day)
	return d, ok
}

// Tracker applies the plan limits on top of a Counter.
type Tracker struct {
	counter Counter
	limits  *limits.Service
	loc     *time.Location
}

// NewTracker builds a Tracker over the catalogue returned by Plans. An
// unknown time zone is an error.
func NewTracker(ctx context.Context, counter Counter, cfg Config) (*Tracker, error) {
	loc := time.UTC
	if cfg.TimeZone != "" {
		l, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("usage: load time zone %q: %w", cfg.TimeZone, err)
		}
		loc = l
	}

	// The image counter reads the day the caller put in the context.
	counters := limits.NewRegistry()
	counters.Register(limits.ResourceDailyImages, func(ctx context.Context, userID string) (int64, error) {
		day, ok := dayFromContext(ctx)
		if !ok {
			return 0, ErrInvalidDay
		}
		n, err := counter.Get(ctx, userID, day)
		return int64(n), err
	})

	svc, err := limits.NewService(ctx, limits.NewInMemSource(Plans(cfg)), counters)
	if err != nil {
		return nil, fmt.Errorf("usage: build limits: %w", err)
	}
	return &Tracker{counter: counter, limits: svc, loc: loc}, nil
}

// Today returns the calendar day of now in the tracker's zone.
func (t *Tracker) Today(now time.Time) Day { return DayOf(now, t.loc) }

// Snapshot reports today's usage for a user on plan.
func (t *Tracker) Snapshot(ctx context.Context, userID string, plan billing.Plan, now time.Time) (Snapshot, error) {
	day := t.Today(now)
	limit, err := t.limits.Limit(string(plan), limits.ResourceDailyImages)
	if err != nil {
		return Snapshot{}, fmt.Errorf("image limit: %w", err)
	}
	used, err := t.counter.Get(ctx, userID, day)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get usage: %w", err)
	}
	return t.snapshot(plan, int64(used), limit), nil
}

// ConsumeImage records one image for a user on plan, failing with
// ErrQuotaExceeded once the plan's limit is reached. Plans without an image
// limit are not counted.
func (t *Tracker) ConsumeImage(ctx context.Context, userID string, plan billing.Plan, now time.Time) (Snapshot, error) {
	day := t.Today(now)
	info, err := t.limits.Usage(withDay(ctx, day), string(plan), userID, limits.ResourceDailyImages)
	if err != nil {
		return Snapshot{}, fmt.Errorf("image usage: %w", err)
	}
	if info.Limit == limits.Unlimited {
		return t.Snapshot(ctx, userID, plan, now)
	}
	if info.Current >= info.Limit {
		return t.snapshot(plan, info.Current, info.Limit), ErrQuotaExceeded
	}

	used, err := t.counter.Increment(ctx, userID, day)
	if err != nil {
		return Snapshot{}, fmt.Errorf("increment usage: %w", err)
	}
	// Concurrent consumers may all pass the check; the increment decides.
	if int64(used) > info.Limit {
		return t.snapshot(plan, int64(used), info.Limit), ErrQuotaExceeded
	}
	return t.snapshot(plan, int64(used), info.Limit), nil
}

// ResetToday clears today's counter. Called when a new billing period starts.
func (t *Tracker) ResetToday(ctx context.Context, userID string, now time.Time) error {
	if err := t.counter.Reset(ctx, userID, t.Today(now)); err != nil {
		return fmt.Errorf("reset usage: %w", err)
	}
	return nil
}

func (t *Tracker) snapshot(plan billing.Plan, used, limit int64) Snapshot {
	if limit != limits.Unlimited && used > limit {
		used = limit
	}
	return Snapshot{
		ImagesUsedToday: int(used),
		DailyImageLimit: int(limit),
		CanUploadVideo:  t.limits.HasFeature(string(plan), limits.FeatureVideoUpload),
	}
}
