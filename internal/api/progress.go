package api

import (
	"errors"
	"net/http"
	"strconv"

	"dnkquest-backend/internal/model"
	"dnkquest-backend/internal/service"
	"dnkquest-backend/pkg/auth"
	"dnkquest-backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type progressRoutes struct {
	ps service.ProgressServiceI
	a  *auth.WalletAuth
}

func NewProgressRoutes(handler *gin.RouterGroup, ps service.ProgressServiceI, a *auth.WalletAuth) {
	h := &progressRoutes{ps: ps, a: a}

	progress := handler.Group("/progress")
	progress.Use(a.WalletAuthMiddleware())
	{
		progress.GET("/:quest_id", h.GetProgress)
		progress.POST("/:quest_id/steps/:step_index/verify", h.VerifyStep)
	}
}

func (h *progressRoutes) GetProgress(c *gin.Context) {
	log := logger.Logger()

	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	user, ok := auth.WalletFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	p, err := h.ps.GetProgress(c.Request.Context(), user.Address, questID)
	if err != nil {
		if errors.Is(err, service.ErrQuestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quest_id not found"})
			return
		}
		log.Error("failed to get progress", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, progressResponse(p))
}

type VerifyStepRequest struct {
	Proof string `json:"proof"`
}

func (h *progressRoutes) VerifyStep(c *gin.Context) {
	log := logger.Logger()

	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	stepIndex, err := strconv.Atoi(c.Param("step_index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step_index"})
		return
	}

	var req VerifyStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, ok := auth.WalletFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	outcome, err := h.ps.SubmitProof(c.Request.Context(), user.Address, questID, stepIndex, req.Proof)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "quest_id not found"})
		case errors.Is(err, service.ErrInvalidStep):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step_index"})
		case errors.Is(err, service.ErrQuestNotActive):
			c.JSON(http.StatusForbidden, gin.H{"error": "quest is not active"})
		case errors.Is(err, service.ErrAlreadyCompleted):
			c.JSON(http.StatusForbidden, gin.H{"error": "quest already completed"})
		case errors.Is(err, service.ErrSubmissionExists):
			c.JSON(http.StatusForbidden, gin.H{"error": "submission already under review"})
		default:
			log.Error("failed to verify step", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":           outcome.State,
		"message":         outcome.Message,
		"retry_after_sec": outcome.RetryAfterSec,
		"reason":          outcome.Reason,
		"all_verified":    outcome.AllVerified,
	})
}

func progressResponse(p *model.QuestProgress) gin.H {
	verified := make([]int, 0, len(p.VerifiedSteps))
	for idx, ok := range p.VerifiedSteps {
		if ok {
			verified = append(verified, idx)
		}
	}

	return gin.H{
		"quest_id":       p.QuestID,
		"current_step":   p.CurrentStep,
		"verified_steps": verified,
		"submitted":      p.Submitted,
		"completed":      p.Completed,
		"retry_at":       p.RetryAt,
	}
}
