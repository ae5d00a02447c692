package models

import "time"

// Plan tiers.
const (
	PlanStandard = "standard"
	PlanPremium  = "premium"
)

// MonthlyQuota is the premium plan's per-month prediction counter.
// Month is formatted as YYYY-MM in UTC.
type MonthlyQuota struct {
	Month string `json:"month" firestore:"month"`
	Limit int    `json:"limit" firestore:"limit"`
	Used  int    `json:"used" firestore:"used"`
}

// User represents a buyer in the system. The document ID is the Firebase Auth UID.
type User struct {
	ID           string        `json:"id" firestore:"-"`
	Email        string        `json:"email" firestore:"email"`
	Name         string        `json:"name,omitempty" firestore:"name,omitempty"`
	Plan         string        `json:"plan" firestore:"plan"`
	Credits      int           `json:"credits" firestore:"credits"`
	Quota        *MonthlyQuota `json:"quota,omitempty" firestore:"quota,omitempty"`
	ReferralCode string        `json:"referralCode,omitempty" firestore:"referralCode,omitempty"`
	ReferredBy   string        `json:"referredBy,omitempty" firestore:"referredBy,omitempty"`
	UpgradedAt   *time.Time    `json:"upgradedAt,omitempty" firestore:"upgradedAt,omitempty"`
	PremiumUntil *time.Time    `json:"premiumUntil,omitempty" firestore:"premiumUntil,omitempty"`
	CreatedAt    time.Time     `json:"createdAt" firestore:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt" firestore:"updatedAt"`
}

// QuotaMonth returns the quota bucket a timestamp falls in.
func QuotaMonth(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// PremiumExpired reports whether a premium plan has lapsed at now. Plans without an end date
// never lapse.
func (u *User) PremiumExpired(now time.Time) bool {
	return u.PremiumUntil != nil && now.After(*u.PremiumUntil)
}

// Remaining reports how many predictions the user can still request under the current plan.
func (u *User) Remaining(now time.Time) int {
	switch u.Plan {
	case PlanStandard:
		if u.Credits < 0 {
			return 0
		}
		return u.Credits
	case PlanPremium:
		if u.PremiumExpired(now) {
			if u.Credits > 0 {
				return u.Credits
			}
			return 0
		}
		if u.Quota == nil {
			return 0
		}
		if u.Quota.Month != QuotaMonth(now) {
			return u.Quota.Limit
		}
		if left := u.Quota.Limit - u.Quota.Used; left > 0 {
			return left
		}
	}
	return 0
}
