package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rvsync/backend/internal/matcher"
	"rvsync/backend/internal/models"
	"rvsync/backend/internal/repository"
	"rvsync/backend/pkg/cache"
	"rvsync/backend/pkg/logger"
	"rvsync/backend/shared/github"
	"rvsync/backend/shared/observability"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
)

const catalogKey = "opportunities:active"

const predictionRecommendations = `1. Continue building projects to demonstrate practical skills
2. Consider obtaining cloud certifications (AWS/GCP)
3. Contribute to open source projects for visibility
4. Network with professionals in your target role`

var careerTracer = otel.Tracer("rvsync/backend/career")

// GitHubClient lists a GitHub user's public repositories
type GitHubClient interface {
	ListRepos(ctx context.Context, username string) ([]github.Repo, error)
}

// CareerOptions tunes matching and catalog caching
type CareerOptions struct {
	MaxResults      int
	HiddenGemSalary float64
	CatalogTTL      time.Duration
	Metrics         *observability.Metrics
	// GitHub backs SyncGitHub; without it every sync reports ErrGitHubUnavailable
	GitHub GitHubClient
}

// CareerService owns skills, the opportunity catalog, matching and career predictions
type CareerService struct {
	skills        repository.SkillRepository
	projects      repository.ProjectRepository
	opportunities repository.OpportunityRepository
	predictions   repository.PredictionRepository
	users         UserLookup
	catalog       *cache.Cache[[]models.Opportunity]
	opts          CareerOptions
	log           *logger.Logger
}

func NewCareerService(
	skills repository.SkillRepository,
	projects repository.ProjectRepository,
	opportunities repository.OpportunityRepository,
	predictions repository.PredictionRepository,
	users UserLookup,
	log *logger.Logger,
	opts CareerOptions,
) *CareerService {
	return &CareerService{
		skills:        skills,
		projects:      projects,
		opportunities: opportunities,
		predictions:   predictions,
		users:         users,
		catalog:       cache.New[[]models.Opportunity](cache.Options{TTL: opts.CatalogTTL, MaxItems: 1}),
		opts:          opts,
		log:           log.WithComponent("career"),
	}
}

// AddSkill records a skill for a user
func (s *CareerService) AddSkill(ctx context.Context, userID uint, req *models.AddSkillRequest) (*models.UserSkill, error) {
	skill := &models.UserSkill{
		UserID:          userID,
		SkillName:       strings.TrimSpace(req.SkillName),
		Proficiency:     req.Proficiency,
		YearsExperience: req.YearsExperience,
		Source:          "manual",
	}
	if err := s.skills.Add(ctx, skill); err != nil {
		return nil, err
	}
	return skill, nil
}

func (s *CareerService) ListSkills(ctx context.Context, userID uint) ([]models.UserSkill, error) {
	skills, err := s.skills.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if skills == nil {
		skills = []models.UserSkill{}
	}
	return skills, nil
}

// ListProjects returns the user's imported repositories, most starred first
func (s *CareerService) ListProjects(ctx context.Context, userID uint) ([]models.GitHubRepo, error) {
	repos, err := s.projects.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if repos == nil {
		repos = []models.GitHubRepo{}
	}
	return repos, nil
}

// SyncGitHub replaces the user's imported repositories with their current
// GitHub listing and adds every language and topic found as a skill.
func (s *CareerService) SyncGitHub(ctx context.Context, userID uint) (*models.GitHubSyncResponse, error) {
	ctx, span := careerTracer.Start(ctx, "career.SyncGitHub")
	defer span.End()

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	username, ok := github.UsernameFromURL(user.GithubURL)
	if !ok {
		return nil, ErrGitHubNotLinked
	}
	if s.opts.GitHub == nil {
		return nil, ErrGitHubUnavailable
	}

	listed, err := s.opts.GitHub.ListRepos(ctx, username)
	switch {
	case errors.Is(err, github.ErrUserNotFound):
		return nil, fmt.Errorf("%w: %s", ErrGitHubUserNotFound, username)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrGitHubUnavailable, err)
	}

	repos := make([]models.GitHubRepo, 0, len(listed))
	var found []string
	for _, r := range listed {
		repos = append(repos, models.GitHubRepo{
			UserID:      userID,
			RepoName:    r.Name,
			URL:         r.HTMLURL,
			Description: lo.FromPtr(r.Description),
			Stars:       r.Stars,
			Forks:       r.Forks,
			Language:    lo.FromPtr(r.Language),
			Topics:      lo.Compact(r.Topics),
			LastUpdated: r.UpdatedAt,
		})
		found = append(found, lo.FromPtr(r.Language))
		found = append(found, r.Topics...)
	}
	found = lo.Uniq(lo.Compact(found))

	if err := s.projects.ReplaceForUser(ctx, userID, repos); err != nil {
		return nil, err
	}
	added, err := s.skills.AddMissing(ctx, userID, found, "github")
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("github.repos", len(repos)),
		attribute.Int("github.skills_added", len(added)),
	)
	s.log.Info("github synced", "user_id", userID, "repos", len(repos), "skills_added", len(added))

	return &models.GitHubSyncResponse{
		Message:     fmt.Sprintf("Synced %d repositories", len(repos)),
		ReposSynced: len(repos),
		SkillsFound: found,
		SkillsAdded: lo.Map(added, func(sk models.UserSkill, _ int) string { return sk.SkillName }),
	}, nil
}

// CreateOpportunity adds a posting to the catalog and drops the cached copy
func (s *CareerService) CreateOpportunity(ctx context.Context, req *models.CreateOpportunityRequest) (*models.Opportunity, error) {
	opp := &models.Opportunity{
		Title:          req.Title,
		Company:        req.Company,
		Description:    req.Description,
		Location:       req.Location,
		JobType:        lo.Ternary(req.JobType == "", "full-time", req.JobType),
		RequiredSkills: lo.Compact(req.RequiredSkills),
		NiceToHave:     lo.Compact(req.NiceToHave),
		MinExperience:  req.MinExperience,
		SalaryMin:      req.SalaryMin,
		SalaryMax:      req.SalaryMax,
		Currency:       lo.Ternary(req.Currency == "", "INR", req.Currency),
		Source:         req.Source,
		ExternalURL:    req.ExternalURL,
		IsActive:       !req.Inactive,
		ExpiresAt:      req.ExpiresAt,
	}
	if err := s.opportunities.Create(ctx, opp); err != nil {
		return nil, err
	}

	s.catalog.Delete(catalogKey)
	s.log.Info("opportunity created", "opportunity_id", opp.ID, "active", opp.IsActive)
	return opp, nil
}

// ListActiveOpportunities returns the active catalog, served from memory for CatalogTTL
func (s *CareerService) ListActiveOpportunities(ctx context.Context) ([]models.Opportunity, error) {
	if opps, ok := s.catalog.Get(catalogKey); ok {
		return opps, nil
	}

	opps, err := s.opportunities.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if opps == nil {
		opps = []models.Opportunity{}
	}
	if s.opts.CatalogTTL > 0 {
		s.catalog.Set(catalogKey, opps)
	}
	return opps, nil
}

// MatchOpportunities ranks the active catalog against the user's skills
func (s *CareerService) MatchOpportunities(ctx context.Context, userID uint) ([]models.MatchResponse, error) {
	ctx, span := careerTracer.Start(ctx, "career.MatchOpportunities")
	defer span.End()
	start := time.Now()

	skills, err := s.skills.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	opps, err := s.ListActiveOpportunities(ctx)
	if err != nil {
		return nil, err
	}

	byID := lo.KeyBy(opps, func(o models.Opportunity) uint { return o.ID })
	catalog := lo.Map(opps, func(o models.Opportunity, _ int) matcher.Opportunity {
		return matcher.Opportunity{
			ID:             o.ID,
			RequiredSkills: o.RequiredSkills,
			NiceToHave:     o.NiceToHave,
			MinExperience:  o.MinExperience,
			SalaryMax:      o.SalaryMax,
			Active:         o.IsActive,
		}
	})
	names := lo.Map(skills, func(sk models.UserSkill, _ int) string { return sk.SkillName })

	results := matcher.MatchWithOptions(names, catalog, matcher.Options{
		Limit:           s.opts.MaxResults,
		HiddenGemSalary: s.opts.HiddenGemSalary,
	})

	out := lo.Map(results, func(r matcher.Result, _ int) models.MatchResponse {
		return models.MatchResponse{
			Opportunity:     byID[r.Opportunity.ID],
			OverallScore:    matcher.Round1(r.OverallScore),
			SkillMatchScore: matcher.Round1(r.SkillMatchScore),
			MatchedSkills:   r.MatchedRequired,
			MissingSkills:   r.MissingRequired,
			IsHiddenGem:     r.IsHiddenGem,
		}
	})

	span.SetAttributes(
		attribute.Int("career.skills", len(names)),
		attribute.Int("career.catalog", len(opps)),
		attribute.Int("career.results", len(out)),
	)
	s.opts.Metrics.MatchDuration(ctx, time.Since(start), len(out))
	return out, nil
}

// PredictCareer classifies the user's stage and stores the prediction
func (s *CareerService) PredictCareer(ctx context.Context, userID uint) (*models.CareerPrediction, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	skillCount, err := s.skills.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	projectCount, err := s.projects.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stage := matcher.Classify(int(skillCount), int(projectCount))

	features, err := json.Marshal(models.PredictionFeatures{
		SkillCount:   int(skillCount),
		ProjectCount: int(projectCount),
		GPA:          user.GPA,
	})
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}

	prediction := &models.CareerPrediction{
		UserID:           userID,
		PredictedRole:    stage.Role,
		Confidence:       stage.Confidence,
		TimelineMonths:   stage.TimelineMonths,
		AlternativeRoles: stage.Alternatives,
		Features:         datatypes.JSON(features),
		Insights: fmt.Sprintf(
			"Based on your %d skills and %d projects, you're well-positioned for %s roles.\n"+
				"Focus on deepening expertise in your top skills to accelerate career growth.",
			skillCount, projectCount, stage.Role),
		Recommendations: predictionRecommendations,
	}
	if err := s.predictions.Create(ctx, prediction); err != nil {
		return nil, err
	}
	return prediction, nil
}

// PredictionHistory returns past predictions, newest first
func (s *CareerService) PredictionHistory(ctx context.Context, userID uint, limit int) ([]models.CareerPrediction, error) {
	out, err := s.predictions.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.CareerPrediction{}
	}
	return out, nil
}

// DashboardMetrics summarizes a user's skills and projects. Unread messages
// are owned by the chat service and filled in by the caller.
func (s *CareerService) DashboardMetrics(ctx context.Context, userID uint) (*models.DashboardMetrics, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	skills, err := s.skills.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	projects, err := s.projects.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.DashboardMetrics{
		GPA:           user.GPA,
		SkillsCount:   skills,
		ProjectsCount: projects,
	}, nil
}
