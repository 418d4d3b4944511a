package limits

// Resource is a countable quantity a plan limits.
type Resource string

const (
	// ResourceDailyImages is the number of images submitted today.
	ResourceDailyImages Resource = "daily_images"
)

// Unlimited marks a resource with no limit.
const Unlimited int64 = -1

// Feature is a plan-specific capability.
type Feature string

const (
	FeatureVideoUpload Feature = "video_upload"
)

// UsageInfo is the current usage of a resource and its limit.
type UsageInfo struct {
	Current int64 `json:"current"`
	Limit   int64 `json:"limit"`
}
