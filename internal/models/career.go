package models

import (
	"time"

	"gorm.io/datatypes"
)

// UserSkill is one skill a user claims
type UserSkill struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"index;not null" json:"user_id"`
	SkillName       string    `gorm:"size:100;not null" json:"skill_name"`
	Proficiency     int       `gorm:"default:1" json:"proficiency"`
	YearsExperience float64   `gorm:"default:0" json:"years_experience"`
	EndorsedCount   int       `gorm:"default:0" json:"endorsed_count"`
	Source          string    `gorm:"size:50;default:manual" json:"source"`
	CreatedAt       time.Time `json:"created_at"`
}

// AddSkillRequest is the body of POST /users/:user_id/skills
type AddSkillRequest struct {
	SkillName       string  `json:"skill_name" binding:"required,max=100"`
	Proficiency     int     `json:"proficiency" binding:"omitempty,min=1,max=5"`
	YearsExperience float64 `json:"years_experience" binding:"omitempty,min=0"`
}

// Opportunity is a job or internship posting in the catalog
type Opportunity struct {
	ID             uint                        `gorm:"primaryKey" json:"id"`
	Title          string                      `gorm:"not null" json:"title"`
	Company        string                      `gorm:"not null" json:"company"`
	Description    string                      `gorm:"type:text" json:"description,omitempty"`
	Location       string                      `json:"location,omitempty"`
	JobType        string                      `gorm:"size:50;default:full-time" json:"job_type"`
	RequiredSkills datatypes.JSONSlice[string] `json:"required_skills"`
	NiceToHave     datatypes.JSONSlice[string] `json:"nice_to_have"`
	MinExperience  int                         `gorm:"default:0" json:"min_experience"`
	SalaryMin      *float64                    `json:"salary_min"`
	SalaryMax      *float64                    `json:"salary_max"`
	Currency       string                      `gorm:"size:10;default:INR" json:"currency"`
	Source         string                      `json:"source,omitempty"`
	ExternalURL    string                      `json:"external_url,omitempty"`
	IsActive       bool                        `gorm:"default:true;index" json:"is_active"`
	PostedAt       time.Time                   `gorm:"autoCreateTime" json:"posted_at"`
	ExpiresAt      *time.Time                  `json:"expires_at,omitempty"`
}

// CreateOpportunityRequest is the body of POST /opportunities
type CreateOpportunityRequest struct {
	Title          string     `json:"title" binding:"required"`
	Company        string     `json:"company" binding:"required"`
	Description    string     `json:"description"`
	Location       string     `json:"location"`
	JobType        string     `json:"job_type"`
	RequiredSkills []string   `json:"required_skills"`
	NiceToHave     []string   `json:"nice_to_have"`
	MinExperience  int        `json:"min_experience" binding:"min=0"`
	SalaryMin      *float64   `json:"salary_min"`
	SalaryMax      *float64   `json:"salary_max"`
	Currency       string     `json:"currency"`
	Source         string     `json:"source"`
	ExternalURL    string     `json:"external_url"`
	Inactive       bool       `json:"inactive"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

// MatchResponse is one ranked opportunity in a match listing
type MatchResponse struct {
	Opportunity     Opportunity `json:"opportunity"`
	OverallScore    float64     `json:"overall_score"`
	SkillMatchScore float64     `json:"skill_match_score"`
	MatchedSkills   []string    `json:"matched_skills"`
	MissingSkills   []string    `json:"missing_skills"`
	IsHiddenGem     bool        `json:"is_hidden_gem"`
}

// CareerPrediction records one run of the career-stage classifier
type CareerPrediction struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	UserID           uint                        `gorm:"index;not null" json:"user_id"`
	PredictedRole    string                      `gorm:"not null" json:"predicted_role"`
	Confidence       float64                     `json:"confidence"`
	TimelineMonths   int                         `json:"timeline_months"`
	AlternativeRoles datatypes.JSONSlice[string] `json:"alternative_roles"`
	Features         datatypes.JSON              `json:"features"`
	Insights         string                      `gorm:"type:text" json:"insights"`
	Recommendations  string                      `gorm:"type:text" json:"recommendations"`
	CreatedAt        time.Time                   `gorm:"index" json:"created_at"`
}

// PredictionFeatures are the inputs recorded alongside a prediction
type PredictionFeatures struct {
	SkillCount   int     `json:"skill_count"`
	ProjectCount int     `json:"project_count"`
	GPA          float64 `json:"gpa"`
}

// DashboardMetrics summarizes a user's progress
type DashboardMetrics struct {
	GPA            float64 `json:"gpa"`
	SkillsCount    int64   `json:"skills_count"`
	ProjectsCount  int64   `json:"projects_count"`
	UnreadMessages int64   `json:"unread_messages"`
}
