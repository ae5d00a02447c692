package core

import (
	"time"

	"jyotai-backend/internal/models"
)

// PlanSettings holds the business constants of the two plans.
type PlanSettings struct {
	StandardCredits      int
	PremiumMonthlyLimit  int
	PremiumDuration      time.Duration
	ReferralBonusCredits int
}

// activatePremium moves user onto the premium plan starting at now. A quota for the current month
// keeps its usage when keepUsage is set; any other quota is replaced by a fresh one.
func (p PlanSettings) activatePremium(user *models.User, now time.Time, keepUsage bool) {
	month := models.QuotaMonth(now)
	used := 0
	if keepUsage && user.Quota != nil && user.Quota.Month == month {
		used = user.Quota.Used
	}
	until := now.Add(p.PremiumDuration)
	upgraded := now

	user.Plan = models.PlanPremium
	user.Quota = &models.MonthlyQuota{Month: month, Limit: p.PremiumMonthlyLimit, Used: used}
	user.UpgradedAt = &upgraded
	user.PremiumUntil = &until
}

// charge consumes one prediction from user's allowance or explains why it cannot.
func (p PlanSettings) charge(user *models.User, now time.Time) error {
	switch user.Plan {
	case models.PlanStandard:
		if user.Credits <= 0 {
			return ErrLimitExceeded
		}
		user.Credits--
		return nil
	case models.PlanPremium:
		if user.PremiumExpired(now) {
			// Credits bought while premium was active become spendable once it lapses.
			if user.Credits > 0 {
				user.Plan = models.PlanStandard
				user.Credits--
				return nil
			}
			return ErrPlanExpired
		}
		month := models.QuotaMonth(now)
		if user.Quota == nil || user.Quota.Month != month {
			user.Quota = &models.MonthlyQuota{Month: month, Limit: p.PremiumMonthlyLimit}
		}
		if user.Quota.Used >= user.Quota.Limit {
			return ErrLimitExceeded
		}
		user.Quota.Used++
		return nil
	case "":
		return ErrNoPlan
	default:
		return ErrForbidden
	}
}
