package matcher

// Stage is the career-stage prediction for a skill and project count
type Stage struct {
	Role           string
	TimelineMonths int
	Confidence     float64
	Alternatives   []string
}

// Classify picks a career stage from the number of skills and projects a user has.
// The first matching tier wins.
func Classify(skillCount, projectCount int) Stage {
	switch {
	case skillCount >= 10 && projectCount >= 15:
		return Stage{
			Role:           "Senior Software Engineer",
			TimelineMonths: 12,
			Confidence:     85.0,
			Alternatives:   []string{"Tech Lead", "Staff Engineer", "Engineering Manager"},
		}
	case skillCount >= 5 && projectCount >= 8:
		return Stage{
			Role:           "Software Engineer II",
			TimelineMonths: 6,
			Confidence:     78.0,
			Alternatives:   []string{"Full Stack Developer", "Backend Engineer", "DevOps Engineer"},
		}
	case skillCount >= 3:
		return Stage{
			Role:           "Junior Developer",
			TimelineMonths: 3,
			Confidence:     90.0,
			Alternatives:   []string{"Software Engineer I", "Associate Developer", "Graduate Engineer"},
		}
	default:
		return Stage{
			Role:           "Intern/Entry Level",
			TimelineMonths: 6,
			Confidence:     70.0,
			Alternatives:   []string{"SDE Intern", "Trainee Developer", "Fresher Developer"},
		}
	}
}
