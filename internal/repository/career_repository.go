package repository

import (
	"context"

	"rvsync/backend/internal/models"

	"gorm.io/gorm"
)

type SkillRepository interface {
	Add(ctx context.Context, skill *models.UserSkill) error
	ListByUser(ctx context.Context, userID uint) ([]models.UserSkill, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	// AddMissing inserts the names the user does not already hold and returns the new rows
	AddMissing(ctx context.Context, userID uint, names []string, source string) ([]models.UserSkill, error)
}

type ProjectRepository interface {
	Create(ctx context.Context, repo *models.GitHubRepo) error
	CountByUser(ctx context.Context, userID uint) (int64, error)
	ListByUser(ctx context.Context, userID uint) ([]models.GitHubRepo, error)
	// ReplaceForUser swaps the user's imported repositories for repos in one transaction
	ReplaceForUser(ctx context.Context, userID uint, repos []models.GitHubRepo) error
}

type OpportunityRepository interface {
	Create(ctx context.Context, opp *models.Opportunity) error
	ListActive(ctx context.Context) ([]models.Opportunity, error)
}

type PredictionRepository interface {
	Create(ctx context.Context, p *models.CareerPrediction) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.CareerPrediction, error)
}

type GormSkillRepository struct {
	db *gorm.DB
}

func NewGormSkillRepository(db *gorm.DB) *GormSkillRepository {
	return &GormSkillRepository{db: db}
}

func (r *GormSkillRepository) Add(ctx context.Context, skill *models.UserSkill) error {
	return wrap("add skill", r.db.WithContext(ctx).Create(skill).Error)
}

func (r *GormSkillRepository) ListByUser(ctx context.Context, userID uint) ([]models.UserSkill, error) {
	var skills []models.UserSkill
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&skills).Error
	return skills, wrap("list skills", err)
}

func (r *GormSkillRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserSkill{}).Where("user_id = ?", userID).Count(&n).Error
	return n, wrap("count skills", err)
}

func (r *GormSkillRepository) AddMissing(ctx context.Context, userID uint, names []string, source string) ([]models.UserSkill, error) {
	var added []models.UserSkill
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var held []string
		if err := tx.Model(&models.UserSkill{}).Where("user_id = ?", userID).Pluck("skill_name", &held).Error; err != nil {
			return err
		}
		seen := make(map[string]struct{}, len(held))
		for _, name := range held {
			seen[name] = struct{}{}
		}

		for _, name := range names {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			added = append(added, models.UserSkill{UserID: userID, SkillName: name, Proficiency: 1, Source: source})
		}
		if len(added) == 0 {
			return nil
		}
		return tx.Create(&added).Error
	})
	if err != nil {
		return nil, wrap("add missing skills", err)
	}
	return added, nil
}

type GormProjectRepository struct {
	db *gorm.DB
}

func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

func (r *GormProjectRepository) Create(ctx context.Context, repo *models.GitHubRepo) error {
	return wrap("create project", r.db.WithContext(ctx).Create(repo).Error)
}

func (r *GormProjectRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.GitHubRepo{}).Where("user_id = ?", userID).Count(&n).Error
	return n, wrap("count projects", err)
}

func (r *GormProjectRepository) ListByUser(ctx context.Context, userID uint) ([]models.GitHubRepo, error) {
	var repos []models.GitHubRepo
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("stars DESC").
		Order("id ASC").
		Find(&repos).Error
	return repos, wrap("list projects", err)
}

func (r *GormProjectRepository) ReplaceForUser(ctx context.Context, userID uint, repos []models.GitHubRepo) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.GitHubRepo{}).Error; err != nil {
			return err
		}
		if len(repos) == 0 {
			return nil
		}
		for i := range repos {
			repos[i].UserID = userID
		}
		return tx.Create(&repos).Error
	})
	return wrap("replace projects", err)
}

type GormOpportunityRepository struct {
	db *gorm.DB
}

func NewGormOpportunityRepository(db *gorm.DB) *GormOpportunityRepository {
	return &GormOpportunityRepository{db: db}
}

func (r *GormOpportunityRepository) Create(ctx context.Context, opp *models.Opportunity) error {
	// gorm skips zero values that carry a default tag, so an inactive posting needs a second write
	active := opp.IsActive
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(opp).Error; err != nil {
			return err
		}
		if !active {
			opp.IsActive = false
			return tx.Model(opp).Update("is_active", false).Error
		}
		return nil
	})
	return wrap("create opportunity", err)
}

// ListActive returns active postings in catalog (id) order
func (r *GormOpportunityRepository) ListActive(ctx context.Context) ([]models.Opportunity, error) {
	var opps []models.Opportunity
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&opps).Error
	return opps, wrap("list opportunities", err)
}

type GormPredictionRepository struct {
	db *gorm.DB
}

func NewGormPredictionRepository(db *gorm.DB) *GormPredictionRepository {
	return &GormPredictionRepository{db: db}
}

func (r *GormPredictionRepository) Create(ctx context.Context, p *models.CareerPrediction) error {
	return wrap("create prediction", r.db.WithContext(ctx).Create(p).Error)
}

func (r *GormPredictionRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.CareerPrediction, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []models.CareerPrediction
	err := q.Find(&out).Error
	return out, wrap("list predictions", err)
}
