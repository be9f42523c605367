// progression/ranks.go - Static rank table and rank lookups
package progression

import (
	"fmt"
	"sort"
)

// Special abilities granted by ranks.
const (
	AbilityMentor       = "mentor"
	AbilityDoubleReward = "double_reward"
	AbilityQuestChain   = "quest_chain"
)

// Rank is an experience-threshold tier granting privileges. A rank covers
// [MinExperience, nextRank.MinExperience); the top rank is open-ended.
type Rank struct {
	Level             int
	Name              string
	MinExperience     int
	MaxActiveQuests   int
	CanCreateQuests   bool
	EconomyMultiplier float64
	DailyQuotaBonus   int
	SpecialAbilities  map[string]bool
}

// HasAbility reports whether the rank grants the named special ability.
func (r Rank) HasAbility(name string) bool {
	return r.SpecialAbilities[name]
}

// Table is an ordered, contiguous, non-overlapping rank table.
type Table struct {
	ranks []Rank
}

// NewTable validates and builds a rank table. An empty table, a table not
// starting at zero experience, or duplicate thresholds are configuration
// errors and fatal to the caller.
func NewTable(ranks []Rank) (*Table, error) {
	if len(ranks) == 0 {
		return nil, fmt.Errorf("rank table is empty")
	}
	sorted := make([]Rank, len(ranks))
	copy(sorted, ranks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinExperience < sorted[j].MinExperience
	})
	if sorted[0].MinExperience != 0 {
		return nil, fmt.Errorf("rank table must start at 0 experience, got %d", sorted[0].MinExperience)
	}
	for i := 1; i < len(sorted); i++ {
		if sorted[i].MinExperience == sorted[i-1].MinExperience {
			return nil, fmt.Errorf("rank %q and %q share threshold %d",
				sorted[i-1].Name, sorted[i].Name, sorted[i].MinExperience)
		}
	}
	return &Table{ranks: sorted}, nil
}

// MustTable is NewTable for the static default table; panics on a bad table.
func MustTable(ranks []Rank) *Table {
	t, err := NewTable(ranks)
	if err != nil {
		panic(err)
	}
	return t
}

// Ranks returns the ordered ranks.
func (t *Table) Ranks() []Rank {
	return t.ranks
}

// CurrentRank returns the rank whose interval contains experience.
func (t *Table) CurrentRank(experience int) Rank {
	current := t.ranks[0]
	for _, r := range t.ranks {
		if experience >= r.MinExperience {
			current = r
		} else {
			break
		}
	}
	return current
}

// NextRank returns the rank after the one containing experience, or nil at
// the top rank.
func (t *Table) NextRank(experience int) *Rank {
	for i := range t.ranks {
		if experience < t.ranks[i].MinExperience {
			next := t.ranks[i]
			return &next
		}
	}
	return nil
}

// DefaultRanks is the shipped rank ladder.
var DefaultRanks = []Rank{
	{
		Level: 1, Name: "Dreamer", MinExperience: 0,
		MaxActiveQuests: 1, CanCreateQuests: false,
		EconomyMultiplier: 1.0, DailyQuotaBonus: 0,
		SpecialAbilities: map[string]bool{},
	},
	{
		Level: 2, Name: "Wisher", MinExperience: 100,
		MaxActiveQuests: 2, CanCreateQuests: true,
		EconomyMultiplier: 1.0, DailyQuotaBonus: 1,
		SpecialAbilities: map[string]bool{},
	},
	{
		Level: 3, Name: "Granter", MinExperience: 300,
		MaxActiveQuests: 3, CanCreateQuests: true,
		EconomyMultiplier: 1.1, DailyQuotaBonus: 2,
		SpecialAbilities: map[string]bool{AbilityQuestChain: true},
	},
	{
		Level: 4, Name: "Keeper", MinExperience: 700,
		MaxActiveQuests: 4, CanCreateQuests: true,
		EconomyMultiplier: 1.2, DailyQuotaBonus: 3,
		SpecialAbilities: map[string]bool{AbilityQuestChain: true, AbilityMentor: true},
	},
	{
		Level: 5, Name: "Guardian", MinExperience: 1500,
		MaxActiveQuests: 5, CanCreateQuests: true,
		EconomyMultiplier: 1.3, DailyQuotaBonus: 4,
		SpecialAbilities: map[string]bool{AbilityQuestChain: true, AbilityMentor: true, AbilityDoubleReward: true},
	},
	{
		Level: 6, Name: "Sage", MinExperience: 3000,
		MaxActiveQuests: 7, CanCreateQuests: true,
		EconomyMultiplier: 1.5, DailyQuotaBonus: 5,
		SpecialAbilities: map[string]bool{AbilityQuestChain: true, AbilityMentor: true, AbilityDoubleReward: true},
	},
}

// Default is the table used by the running service.
var Default = MustTable(DefaultRanks)
