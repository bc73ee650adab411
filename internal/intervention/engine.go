package intervention

import (
	"fmt"
	"slices"
	"strings"
)

const (
	// MinRelevanceScore is exclusive: a suggestion must score above it.
	MinRelevanceScore = 10
	// MaxSuggestions caps the ranked list.
	MaxSuggestions = 6
)

// Scoring weights.
const (
	highRiskEmotionalPoints     = 30
	mediumRiskMindfulnessPoints = 25
	moodMatchPoints             = 20
	timeOfDayPoints             = 15
	recentlyUsedPenalty         = 10
	effectivenessMultiplier     = 5
	quickActivityPoints         = 10

	quickActivityMaxMinutes = 10
	morningBeforeHour       = 10
	afternoonAfterHour      = 14
)

// Suggest ranks the activities against the snapshot. The result holds at
// most MaxSuggestions entries scoring above MinRelevanceScore, highest score
// first, with catalog order kept among equal scores. An empty result means
// no intervention is needed.
func Suggest(activities []Activity, snap Snapshot) []Suggestion {
	moods := toSet(snap.DominantMoods)
	recent := toSet(snap.RecentActivityIDs)
	urgency := urgencyFor(snap.RiskLevel)

	scored := make([]Suggestion, 0, len(activities))
	for _, a := range activities {
		score, reasons := scoreActivity(a, snap, moods, recent)
		if score <= MinRelevanceScore {
			continue
		}
		scored = append(scored, Suggestion{
			Activity:       a,
			RelevanceScore: score,
			Reasoning:      strings.Join(reasons, ", "),
			Urgency:        urgency,
		})
	}

	slices.SortStableFunc(scored, func(a, b Suggestion) int {
		return b.RelevanceScore - a.RelevanceScore
	})

	if len(scored) > MaxSuggestions {
		scored = scored[:MaxSuggestions]
	}
	return scored
}

// scoreActivity applies the rules in order; the order of reasons follows
// the order of the rules.
func scoreActivity(a Activity, snap Snapshot, moods, recent map[string]struct{}) (int, []string) {
	score := 0
	var reasons []string

	if snap.RiskLevel == RiskHigh && a.Category == CategoryEmotional {
		score += highRiskEmotionalPoints
		reasons = append(reasons, "High stress levels detected - emotional support needed")
	}
	if snap.RiskLevel == RiskMedium && a.Category == CategoryMindfulness {
		score += mediumRiskMindfulnessPoints
		reasons = append(reasons, "Moderate stress - mindfulness activities recommended")
	}

	for _, m := range a.TargetMoods {
		if _, ok := moods[m]; ok {
			score += moodMatchPoints
			reasons = append(reasons, "Targets current dominant class moods")
			break
		}
	}

	if snap.TimeOfDayHour < morningBeforeHour && a.Category == CategoryMovement {
		score += timeOfDayPoints
		reasons = append(reasons, "Morning energy boost activity")
	}
	if snap.TimeOfDayHour > afternoonAfterHour && a.Category == CategoryMindfulness {
		score += timeOfDayPoints
		reasons = append(reasons, "Afternoon focus restoration")
	}

	if _, ok := recent[a.ID]; ok {
		score -= recentlyUsedPenalty
		reasons = append(reasons, "Recently used - consider alternatives")
	}

	score += a.Effectiveness * effectivenessMultiplier
	reasons = append(reasons, fmt.Sprintf("Effectiveness rated %d/5", a.Effectiveness))

	if a.DurationMinutes <= quickActivityMaxMinutes {
		score += quickActivityPoints
		reasons = append(reasons, "Quick implementation possible")
	}

	return score, reasons
}

// urgencyFor derives the single urgency shared by every suggestion of a pass.
func urgencyFor(r RiskLevel) Urgency {
	switch r {
	case RiskHigh:
		return UrgencyHigh
	case RiskMedium:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

// FilterByCategory keeps the activities of one category. An empty category
// or "all" keeps everything.
func FilterByCategory(activities []Activity, category Category) []Activity {
	if category == "" || category == "all" {
		return activities
	}
	out := make([]Activity, 0, len(activities))
	for _, a := range activities {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
