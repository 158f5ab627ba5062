package model

// Tier is the subscription level stored in the `profiles` table. Only the
// free tier is metered; monthly and annual subscribers bypass the daily
// scan quota entirely. Tier values are written by the billing collaborator
// and treated as immutable within a single request.
type Tier string

const (
	TierFree    Tier = "free"
	TierMonthly Tier = "monthly"
	TierAnnual  Tier = "annual"
)

// ParseTier normalizes a raw subscription_tier column value. Unknown or
// empty values resolve to TierFree, matching the behavior for users who
// have no profile row at all.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierMonthly:
		return TierMonthly
	case TierAnnual:
		return TierAnnual
	default:
		return TierFree
	}
}

// Metered reports whether scans by users of this tier count against the
// daily quota.
func (t Tier) Metered() bool { return t == TierFree }
