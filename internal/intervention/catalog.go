package intervention

// DefaultCatalog returns the built-in activity catalog. Each call returns a
// fresh slice so callers may filter or reorder it freely.
func DefaultCatalog() []Activity {
	return []Activity{
		{
			ID:              "mindful-breathing-1",
			Title:           "3-Minute Breathing Space",
			Description:     "A short guided breathing exercise that helps students settle and lowers anxiety.",
			Category:        CategoryMindfulness,
			DurationMinutes: 3,
			Difficulty:      "easy",
			TargetMoods:     []string{"😰", "anxious", "😠", "angry"},
			Materials:       []string{"None required"},
			Instructions: []string{
				"Seat students comfortably with both feet on the floor",
				"Take three slow, counted breaths together",
				"Notice the breath without changing it",
				"Scan the body for tension",
				"Close with three deliberate deep breaths",
			},
			Benefits:      []string{"Reduces immediate stress", "Improves focus", "Teaches self-regulation"},
			Effectiveness: 4,
		},
		{
			ID:              "movement-break-1",
			Title:           "Energizing Movement Break",
			Description:     "Quick physical activity that lifts energy and mood.",
			Category:        CategoryMovement,
			DurationMinutes: 5,
			Difficulty:      "easy",
			TargetMoods:     []string{"😢", "sad", "😌", "calm"},
			Materials:       []string{"Open space"},
			Instructions: []string{
				"Stand and stretch arms overhead",
				"Ten jumping jacks or marching in place",
				"Shoulder rolls and gentle neck stretches",
				"Finish by shaking out arms and legs",
			},
			Benefits:      []string{"Raises alertness", "Releases endorphins", "Improves circulation"},
			Effectiveness: 5,
		},
		{
			ID:              "social-connection-1",
			Title:           "Gratitude Circle",
			Description:     "Students share something they are grateful for to build positive connections.",
			Category:        CategorySocial,
			DurationMinutes: 10,
			Difficulty:      "easy",
			TargetMoods:     []string{"😢", "sad", "😠", "angry"},
			Materials:       []string{"None required"},
			Instructions: []string{
				"Arrange the class in a circle",
				"Model the activity by sharing first",
				"Go around the circle, passing is allowed",
				"Thank everyone and point out common themes",
			},
			Benefits:      []string{"Builds community", "Shifts focus to positives", "Develops empathy"},
			Effectiveness: 4,
		},
		{
			ID:              "academic-reset-1",
			Title:           "Brain Break Quiz",
			Description:     "Low-stakes questions that re-engage academic thinking without pressure.",
			Category:        CategoryAcademic,
			DurationMinutes: 7,
			Difficulty:      "medium",
			TargetMoods:     []string{"😰", "anxious", "😌", "calm"},
			Materials:       []string{"Prepared questions", "Whiteboard or slides"},
			Instructions: []string{
				"Prepare a handful of easy questions on recent lessons",
				"Make clear nothing is graded",
				"Let students work in pairs",
				"Celebrate participation rather than correctness",
			},
			Benefits:      []string{"Re-engages thinking", "Builds confidence", "Reduces academic anxiety"},
			Effectiveness: 3,
		},
		{
			ID:              "emotional-check-in-1",
			Title:           "Emotion Wheel Check-In",
			Description:     "Helps students name and express how they feel right now.",
			Category:        CategoryEmotional,
			DurationMinutes: 8,
			Difficulty:      "medium",
			TargetMoods:     []string{"😢", "sad", "😠", "angry", "😰", "anxious"},
			Materials:       []string{"Emotion wheel poster or handout"},
			Instructions: []string{
				"Display an emotion wheel",
				"Students silently pick their current emotion",
				"Volunteers may share",
				"Discuss healthy ways to handle each emotion",
			},
			Benefits:      []string{"Builds emotional vocabulary", "Increases self-awareness", "Normalises emotions"},
			Effectiveness: 4,
		},
		{
			ID:              "mindful-coloring-1",
			Title:           "Mindful Coloring",
			Description:     "A calming colouring activity that promotes focus.",
			Category:        CategoryMindfulness,
			DurationMinutes: 15,
			Difficulty:      "easy",
			TargetMoods:     []string{"😰", "anxious", "😠", "angry"},
			Materials:       []string{"Coloring sheets", "Colored pencils or crayons"},
			Instructions: []string{
				"Hand out mandala or pattern sheets",
				"Encourage attention on the colouring only",
				"Play soft background music if available",
			},
			Benefits:      []string{"Promotes calm", "Improves concentration", "Creative outlet for stress"},
			Effectiveness: 4,
		},
		{
			ID:              "team-building-1",
			Title:           "Two Truths and a Dream",
			Description:     "A positive twist on two truths and a lie centred on aspirations.",
			Category:        CategorySocial,
			DurationMinutes: 12,
			Difficulty:      "medium",
			TargetMoods:     []string{"😢", "sad", "😌", "calm"},
			Materials:       []string{"None required"},
			Instructions: []string{
				"Each student prepares two true facts and one dream",
				"Classmates guess which one is the dream",
				"Discuss how dreams can be pursued",
			},
			Benefits:      []string{"Builds connection", "Encourages aspiration"},
			Effectiveness: 4,
		},
		{
			ID:              "stress-release-1",
			Title:           "Progressive Muscle Relaxation",
			Description:     "Systematic tensing and relaxing of muscle groups to release physical stress.",
			Category:        CategoryMindfulness,
			DurationMinutes: 10,
			Difficulty:      "medium",
			TargetMoods:     []string{"😰", "anxious", "😠", "angry"},
			Materials:       []string{"Quiet space"},
			Instructions: []string{
				"Start with the feet and move upwards",
				"Tense each muscle group for five seconds",
				"Release and notice the difference",
			},
			Benefits:      []string{"Releases physical tension", "Teaches body awareness"},
			Effectiveness: 5,
		},
		{
			ID:              "creative-expression-1",
			Title:           "Feeling Faces Art",
			Description:     "Students draw their emotions to help process feelings.",
			Category:        CategoryEmotional,
			DurationMinutes: 20,
			Difficulty:      "easy",
			TargetMoods:     []string{"😢", "sad", "😠", "angry", "😰", "anxious"},
			Materials:       []string{"Paper", "Art supplies"},
			Instructions: []string{
				"Ask students to draw a face showing how they feel",
				"Add colours that match the feeling",
				"Invite optional sharing",
			},
			Benefits:      []string{"Non-verbal expression", "Processes difficult feelings"},
			Effectiveness: 4,
		},
		{
			ID:              "focus-game-1",
			Title:           "Mindful Listening Game",
			Description:     "An attention game built around sounds to sharpen concentration.",
			Category:        CategoryMindfulness,
			DurationMinutes: 6,
			Difficulty:      "easy",
			TargetMoods:     []string{"😰", "anxious", "😌", "calm"},
			Materials:       []string{"Bell or chime", "Various small objects"},
			Instructions: []string{
				"Students close their eyes",
				"Ring the chime and listen until the sound fades",
				"Make small sounds and have students identify them",
			},
			Benefits:      []string{"Improves attention", "Calms the class"},
			Effectiveness: 4,
		},
	}
}

// FindActivity returns the activity with the given ID.
func FindActivity(activities []Activity, id string) (Activity, bool) {
	for _, a := range activities {
		if a.ID == id {
			return a, true
		}
	}
	return Activity{}, false
}
