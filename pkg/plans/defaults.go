package plans

// DefaultPlans returns the built-in plan table.
func DefaultPlans() []Plan {
	return []Plan{
		{
			ID:          Free,
			Name:        "Free",
			Description: "Try resume generation and job analysis",
			Price:       Money{Amount: 0, Currency: "USD"},
			Interval:    IntervalNone,
			TrialDays:   14,
			Features: []Feature{
				FeatureResumeGeneration,
				FeatureJobAnalysis,
				FeatureTemplates,
			},
			Limits: map[Feature]Quota{
				FeatureResumeGeneration: Limit(1),
				FeatureJobAnalysis:      Limit(3),
				FeatureTemplates:        Limit(1),
				FeatureAIAnalysis:       Limit(0),
			},
		},
		{
			ID:          Basic,
			Name:        "Basic",
			Description: "For active job seekers",
			Price:       Money{Amount: 999, Currency: "USD"},
			Interval:    IntervalMonthly,
			Features:    Features(),
			Limits: map[Feature]Quota{
				FeatureResumeGeneration: Limit(10),
				FeatureJobAnalysis:      Limit(25),
				FeatureTemplates:        Limit(5),
				FeatureAIAnalysis:       Limit(10),
			},
		},
		{
			ID:          Pro,
			Name:        "Pro",
			Description: "Unlimited resumes and analyses",
			Price:       Money{Amount: 1999, Currency: "USD"},
			Interval:    IntervalMonthly,
			TrialDays:   7,
			Features:    Features(),
			Limits: map[Feature]Quota{
				FeatureResumeGeneration: Unlimited,
				FeatureJobAnalysis:      Unlimited,
				FeatureTemplates:        Unlimited,
				FeatureAIAnalysis:       Limit(100),
			},
		},
		{
			ID:          Enterprise,
			Name:        "Enterprise",
			Description: "Teams and career services",
			Price:       Money{Amount: 4999, Currency: "USD"},
			Interval:    IntervalMonthly,
			Features:    Features(),
			Limits: map[Feature]Quota{
				FeatureResumeGeneration: Unlimited,
				FeatureJobAnalysis:      Unlimited,
				FeatureTemplates:        Unlimited,
				FeatureAIAnalysis:       Unlimited,
			},
		},
	}
}

// NewDefaultSource returns a Source serving DefaultPlans.
func NewDefaultSource() Source {
	return NewInMemSource(DefaultPlans()...)
}
