package analytics

import (
	"math"
	"slices"
	"time"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/intervention"
)

const (
	// DefaultClassAverage is reported when no mood was recorded.
	DefaultClassAverage = 7.0
	// DominantMoodCount is how many moods feed the suggestion snapshot.
	DominantMoodCount = 3

	highRiskAverage       = 5.0
	highRiskNegativePct   = 40.0
	mediumRiskAverage     = 6.5
	mediumRiskNegativePct = 25.0
)

// MoodEntry is one recorded student mood.
type MoodEntry struct {
	StudentID  string    `json:"student_id"`
	Mood       string    `json:"mood"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Trend direction of the class average across the window.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Metrics summarises a class over one analytics window.
type Metrics struct {
	TotalEntries       int                    `json:"total_entries"`
	ClassAverage       float64                `json:"class_average"`
	Distribution       map[string]int         `json:"mood_distribution"`
	NegativePercentage float64                `json:"negative_mood_percentage"`
	Trend              Trend                  `json:"trend_direction"`
	TrendPercentage    float64                `json:"trend_percentage"`
	RiskLevel          intervention.RiskLevel `json:"risk_level"`
	DominantMoods      []string               `json:"dominant_moods"`
}

// Compute derives class metrics from entries recorded between from and now.
// The trend compares the average of the second half of the window with the
// first half.
func Compute(entries []MoodEntry, from, now time.Time) Metrics {
	m := Metrics{
		TotalEntries: len(entries),
		ClassAverage: DefaultClassAverage,
		Distribution: make(map[string]int, len(Moods)),
		Trend:        TrendStable,
	}
	for _, mood := range Moods {
		m.Distribution[mood] = 0
	}

	if len(entries) == 0 {
		m.RiskLevel = classifyRisk(m.ClassAverage, 0)
		m.DominantMoods = []string{}
		return m
	}

	mid := from.Add(now.Sub(from) / 2)
	var total, negatives int
	var recentSum, olderSum, recentN, olderN int
	for _, e := range entries {
		s := Score(e.Mood)
		total += s
		if label := Normalize(e.Mood); label != "" {
			m.Distribution[label]++
		}
		if IsNegative(e.Mood) {
			negatives++
		}
		if e.RecordedAt.Before(mid) {
			olderSum += s
			olderN++
		} else {
			recentSum += s
			recentN++
		}
	}

	m.ClassAverage = float64(total) / float64(len(entries))
	m.NegativePercentage = float64(negatives) / float64(len(entries)) * 100

	recentAvg, olderAvg := m.ClassAverage, m.ClassAverage
	if recentN > 0 {
		recentAvg = float64(recentSum) / float64(recentN)
	}
	if olderN > 0 {
		olderAvg = float64(olderSum) / float64(olderN)
	}
	switch {
	case recentAvg > olderAvg:
		m.Trend = TrendUp
	case recentAvg < olderAvg:
		m.Trend = TrendDown
	}
	if olderAvg > 0 {
		m.TrendPercentage = round1(math.Abs((recentAvg - olderAvg) / olderAvg * 100))
	}

	m.RiskLevel = classifyRisk(m.ClassAverage, m.NegativePercentage)
	m.DominantMoods = dominantMoods(m.Distribution, DominantMoodCount)
	m.ClassAverage = round1(m.ClassAverage)
	m.NegativePercentage = round1(m.NegativePercentage)
	return m
}

func classifyRisk(average, negativePct float64) intervention.RiskLevel {
	switch {
	case average < highRiskAverage || negativePct > highRiskNegativePct:
		return intervention.RiskHigh
	case average < mediumRiskAverage || negativePct > mediumRiskNegativePct:
		return intervention.RiskMedium
	default:
		return intervention.RiskLow
	}
}

// dominantMoods returns up to n recorded moods, most frequent first and
// alphabetical among ties.
func dominantMoods(dist map[string]int, n int) []string {
	labels := make([]string, 0, len(dist))
	for label, count := range dist {
		if count > 0 {
			labels = append(labels, label)
		}
	}
	slices.SortFunc(labels, func(a, b string) int {
		if dist[a] != dist[b] {
			return dist[b] - dist[a]
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	if len(labels) > n {
		labels = labels[:n]
	}
	return labels
}

// BuildSnapshot assembles the scoring input for the suggestion engine. now
// must already be in the school's location.
func BuildSnapshot(m Metrics, recentActivityIDs []string, now time.Time) intervention.Snapshot {
	recent := recentActivityIDs
	if recent == nil {
		recent = []string{}
	}
	return intervention.Snapshot{
		RiskLevel:         m.RiskLevel,
		DominantMoods:     slices.Clone(m.DominantMoods),
		RecentActivityIDs: recent,
		TimeOfDayHour:     now.Hour(),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
