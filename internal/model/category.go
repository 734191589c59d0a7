package model

// FollowerCategory buckets a profile by audience size.
type FollowerCategory string

const (
	CategoryNano    FollowerCategory = "nano"
	CategoryMicro   FollowerCategory = "micro"
	CategoryMidTier FollowerCategory = "mid-tier"
	CategoryMacro   FollowerCategory = "macro"
	CategoryMega    FollowerCategory = "mega"
)

// Categorize maps a follower count to its tier. Lower bounds are inclusive.
func Categorize(followers int64) FollowerCategory {
	switch {
	case followers < 10_000:
		return CategoryNano
	case followers < 150_000:
		return CategoryMicro
	case followers < 500_000:
		return CategoryMidTier
	case followers < 1_000_000:
		return CategoryMacro
	default:
		return CategoryMega
	}
}
