package api

import (
	"net/http"
	"strconv"

	"rvsync/backend/internal/models"
	"rvsync/backend/internal/service"
	apperrors "rvsync/backend/pkg/errors"
	"rvsync/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 10

// CareerHandler serves skills, opportunities, matching and predictions.
// Routes taking :user_id are guarded by RequireSelf, so the path id is the caller.
type CareerHandler struct {
	career *service.CareerService
	chat   *service.ChatService
}

func NewCareerHandler(career *service.CareerService, chat *service.ChatService) *CareerHandler {
	return &CareerHandler{career: career, chat: chat}
}

func (h *CareerHandler) ListSkills(c *gin.Context) {
	skills, err := h.career.ListSkills(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	c.JSON(http.StatusOK, skills)
}

func (h *CareerHandler) AddSkill(c *gin.Context) {
	var req models.AddSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}
	if req.Proficiency == 0 {
		req.Proficiency = 1
	}

	skill, err := h.career.AddSkill(c.Request.Context(), middleware.CurrentUserID(c), &req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	c.JSON(http.StatusCreated, skill)
}

func (h *CareerHandler) ListProjects(c *gin.Context) {
	repos, err := h.career.ListProjects(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	c.JSON(http.StatusOK, repos)
}

// SyncGitHub re-imports the caller's repositories from their linked GitHub profile
func (h *CareerHandler) SyncGitHub(c *gin.Context) {
	res, err := h.career.SyncGitHub(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CareerHandler) ListOpportunities(c *gin.Context) {
	opps, err := h.career.ListActiveOpportunities(c.Request.Context())
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	c.JSON(http.StatusOK, opps)
}

// CreateOpportunity is admin only
func (h *CareerHandler) CreateOpportunity(c *gin.Context) {
	var req models.CreateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(bindError(err))
		return
	}

	opp, err := h.career.CreateOpportunity(c.Request.Context(), &req)
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	c.JSON(http.StatusCreated, opp)
}

func (h *CareerHandler) Match(c *gin.Context) {
	matches, err := h.career.MatchOpportunities(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (h *CareerHandler) Predict(c *gin.Context) {
	prediction, err := h.career.PredictCareer(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	c.JSON(http.StatusOK, prediction)
}

// PredictionHistory accepts ?limit=N (default 10)
func (h *CareerHandler) PredictionHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.Error(apperrors.BadRequestWithDetails(apperrors.CodeBadRequest, "Invalid limit", gin.H{"limit": raw}))
			return
		}
		limit = n
	}

	history, err := h.career.PredictionHistory(c.Request.Context(), middleware.CurrentUserID(c), limit)
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	c.JSON(http.StatusOK, history)
}

// Dashboard combines career counters with the unread message count
func (h *CareerHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.CurrentUserID(c)

	metrics, err := h.career.DashboardMetrics(ctx, userID)
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	unread, err := h.chat.UnreadCount(ctx, userID)
	if err != nil {
		c.Error(serviceError(err))
		return
	}
	metrics.UnreadMessages = unread

	c.JSON(http.StatusOK, metrics)
}
