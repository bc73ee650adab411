package intervention

// Category groups wellbeing activities.
type Category string

const (
	CategoryMindfulness Category = "mindfulness"
	CategoryMovement    Category = "movement"
	CategorySocial      Category = "social"
	CategoryAcademic    Category = "academic"
	CategoryEmotional   Category = "emotional"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryMindfulness,
	CategoryMovement,
	CategorySocial,
	CategoryAcademic,
	CategoryEmotional,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// RiskLevel is the class-wide wellbeing stress classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Valid reports whether r is a known risk level.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// Urgency of a suggestion.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Activity is one entry of the intervention catalog.
type Activity struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Category        Category `json:"category"`
	TargetMoods     []string `json:"target_moods"`
	DurationMinutes int      `json:"duration_minutes"`
	Effectiveness   int      `json:"effectiveness"`
	Difficulty      string   `json:"difficulty,omitempty"`
	Materials       []string `json:"materials,omitempty"`
	Instructions    []string `json:"instructions,omitempty"`
	Benefits        []string `json:"benefits,omitempty"`
}

// Snapshot is the class analytics a scoring pass runs against.
type Snapshot struct {
	RiskLevel         RiskLevel `json:"risk_level"`
	DominantMoods     []string  `json:"dominant_moods"`
	RecentActivityIDs []string  `json:"recent_activity_ids"`
	TimeOfDayHour     int       `json:"time_of_day_hour"`
}

// Suggestion is a scored activity. It is recomputed on every pass.
type Suggestion struct {
	Activity       Activity `json:"activity"`
	RelevanceScore int      `json:"relevance_score"`
	Reasoning      string   `json:"reasoning"`
	Urgency        Urgency  `json:"urgency"`
}
