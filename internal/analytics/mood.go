package analytics

import "strings"

// Mood labels recorded by students. Entries may carry the label or its emoji.
const (
	MoodHappy   = "happy"
	MoodExcited = "excited"
	MoodCalm    = "calm"
	MoodSad     = "sad"
	MoodAngry   = "angry"
	MoodAnxious = "anxious"
)

// Moods lists the known labels in distribution order.
var Moods = []string{MoodHappy, MoodExcited, MoodCalm, MoodSad, MoodAngry, MoodAnxious}

// unknownMoodScore is used for anything outside the mood table.
const unknownMoodScore = 5

var emojiLabels = []struct{ emoji, label string }{
	{"😊", MoodHappy},
	{"😄", MoodExcited},
	{"😌", MoodCalm},
	{"😢", MoodSad},
	{"😠", MoodAngry},
	{"😰", MoodAnxious},
}

var moodScores = map[string]int{
	MoodHappy:   9,
	MoodExcited: 10,
	MoodCalm:    7,
	MoodSad:     3,
	MoodAngry:   2,
	MoodAnxious: 4,
}

var negativeMoods = map[string]struct{}{
	MoodSad:     {},
	MoodAngry:   {},
	MoodAnxious: {},
}

// Normalize maps an emoji or label to its lowercase label. It returns ""
// for unrecognised moods.
func Normalize(mood string) string {
	m := strings.ToLower(strings.TrimSpace(mood))
	if _, ok := moodScores[m]; ok {
		return m
	}
	for _, e := range emojiLabels {
		if strings.Contains(m, e.emoji) {
			return e.label
		}
	}
	return ""
}

// Score is the wellbeing score of a mood on a 1-10 scale.
func Score(mood string) int {
	if s, ok := moodScores[Normalize(mood)]; ok {
		return s
	}
	return unknownMoodScore
}

// IsNegative reports whether the mood counts towards the negative share.
func IsNegative(mood string) bool {
	_, ok := negativeMoods[Normalize(mood)]
	return ok
}
