// progression/calculator.go - Experience math and promotion checks
package progression

import (
	"fmt"
	"math"
)

// Action kinds carrying a fixed base experience reward.
const (
	ActionDailyLogin        = "dailyLogin"
	ActionQuestComplete     = "questComplete"
	ActionQuestCreate       = "questCreate"
	ActionEventComplete     = "eventComplete"
	ActionWishFulfill       = "wishFulfill"
	ActionSharedWishApprove = "sharedWishApprove"
	ActionHelpPartner       = "helpPartner"
	ActionMentoring         = "mentoring"
)

var baseRewards = map[string]int{
	ActionDailyLogin:        2,
	ActionQuestComplete:     20,
	ActionQuestCreate:       5,
	ActionEventComplete:     15,
	ActionWishFulfill:       25,
	ActionSharedWishApprove: 10,
	ActionHelpPartner:       8,
	ActionMentoring:         12,
}

// ExperienceFor returns the floored experience for an action at the given
// multiplier. Unknown actions earn nothing. Reward calculation truncates;
// progress reporting keeps the real-number percentage, the two are not
// unified.
func ExperienceFor(action string, multiplier float64) int {
	base, ok := baseRewards[action]
	if !ok {
		return 0
	}
	return int(math.Floor(float64(base) * multiplier))
}

// MentorBonus returns half the base experience, floored, when the rank
// carries the mentor ability.
func MentorBonus(baseExperience int, rank Rank) int {
	if !rank.HasAbility(AbilityMentor) {
		return 0
	}
	return int(math.Floor(float64(baseExperience) * 0.5))
}

// Progress describes where an experience total sits inside its rank.
type Progress struct {
	Current          Rank    `json:"current"`
	Next             *Rank   `json:"next,omitempty"`
	ProgressPercent  float64 `json:"progress_percent"`
	ExperienceToNext int     `json:"experience_to_next"`
}

// RankProgress computes progress through the current rank. At the top rank
// Next is nil, the percentage is 100 and nothing remains to earn.
func (t *Table) RankProgress(experience int) Progress {
	current := t.CurrentRank(experience)
	next := t.NextRank(experience)
	if next == nil {
		return Progress{Current: current, ProgressPercent: 100, ExperienceToNext: 0}
	}

	span := float64(next.MinExperience - current.MinExperience)
	percent := float64(experience-current.MinExperience) / span * 100
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return Progress{
		Current:          current,
		Next:             next,
		ProgressPercent:  percent,
		ExperienceToNext: next.MinExperience - experience,
	}
}

// PromotionResult is returned by CheckPromotion. Title and Message form the
// notification payload when a promotion happened.
type PromotionResult struct {
	Promoted bool   `json:"promoted"`
	From     Rank   `json:"from"`
	To       Rank   `json:"to"`
	Title    string `json:"title,omitempty"`
	Message  string `json:"message,omitempty"`
}

// CheckPromotion compares the ranks resolved before and after an experience
// change. No promotion is signaled when both resolve to the same rank,
// including at the ceiling rank.
func (t *Table) CheckPromotion(oldExperience, newExperience int) PromotionResult {
	from := t.CurrentRank(oldExperience)
	to := t.CurrentRank(newExperience)
	if from.Level == to.Level {
		return PromotionResult{Promoted: false, From: from, To: to}
	}
	return PromotionResult{
		Promoted: true,
		From:     from,
		To:       to,
		Title:    "Rank up!",
		Message:  fmt.Sprintf("You have been promoted to %s!", to.Name),
	}
}
