package arc

// Defaults returns the built-in story type templates. Each template is a
// fixed six-beat plan; the guidance text steers the narrator at that beat.
func Defaults() []Template {
	return []Template{
		{
			StoryTypeID: "adventure_quest",
			Title:       "Adventure Quest",
			Steps: []Step{
				{Label: "setting_off", Guidance: "Introduce the hero's ordinary day and the call to adventure."},
				{Label: "first_obstacle", Guidance: "Put a small, surmountable obstacle in the hero's path."},
				{Label: "helper_appears", Guidance: "Bring in someone or something that can help, at a cost or with a catch."},
				{Label: "deep_trouble", Guidance: "Raise the stakes; the plan goes wrong in a surprising way."},
				{Label: "clever_turn", Guidance: "Let the hero use something learned earlier to turn things around."},
				{Label: "homecoming", Guidance: "Wind down toward a safe, warm resolution; leave one thread for the ending."},
			},
		},
		{
			StoryTypeID: "friendship_tale",
			Title:       "Friendship Tale",
			Steps: []Step{
				{Label: "meeting", Guidance: "Two very different characters meet by accident."},
				{Label: "misunderstanding", Guidance: "A small misunderstanding pushes them apart."},
				{Label: "shared_trouble", Guidance: "A problem neither can solve alone appears."},
				{Label: "working_together", Guidance: "They discover their differences fit together."},
				{Label: "making_up", Guidance: "The misunderstanding is named and forgiven."},
				{Label: "celebration", Guidance: "A quiet celebration of the new friendship."},
			},
		},
		{
			StoryTypeID: "bedtime_drift",
			Title:       "Bedtime Drift",
			Steps: []Step{
				{Label: "getting_sleepy", Guidance: "A cozy evening scene; everything slows down."},
				{Label: "small_wonder", Guidance: "Something gently magical appears at the window."},
				{Label: "soft_journey", Guidance: "A calm, floating journey begins; no danger."},
				{Label: "quiet_friends", Guidance: "Meet sleepy creatures along the way."},
				{Label: "turning_home", Guidance: "The journey curves softly back toward bed."},
				{Label: "tucked_in", Guidance: "Everything settles; eyelids heavy; almost asleep."},
			},
		},
	}
}
