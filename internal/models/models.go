package models

// All lists every table the server migrates on startup
func All() []any {
	return []any{
		&User{},
		&GitHubRepo{},
		&UserSkill{},
		&ChatMessage{},
		&Opportunity{},
		&CareerPrediction{},
	}
}
