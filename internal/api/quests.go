package api

import (
	"errors"
	"net/http"
	"time"

	"dnkquest-backend/internal/middleware"
	"dnkquest-backend/internal/model"
	"dnkquest-backend/internal/service"
	"dnkquest-backend/pkg/auth"
	"dnkquest-backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type questRoutes struct {
	qs service.QuestServiceI
	ss service.SubmissionServiceI
	a  *auth.WalletAuth
}

func NewQuestRoutes(handler *gin.RouterGroup, qs service.QuestServiceI, ss service.SubmissionServiceI, a *auth.WalletAuth, authz *middleware.Authorization) {
	h := &questRoutes{qs: qs, ss: ss, a: a}

	quests := handler.Group("/quests")
	{
		quests.GET("/", h.GetQuests)
		quests.GET("/:quest_id", h.GetQuestByID)

		paid := quests.Group("/")
		paid.Use(a.WalletAuthMiddleware())
		{
			paid.POST("/", h.SubmitQuest)
		}

		admin := quests.Group("/admin")
		admin.Use(a.WalletAuthMiddleware(), authz.AdminOnly())
		{
			admin.POST("/new", h.CreateQuest)
			admin.PATCH("/:quest_id", h.UpdateQuest)
			admin.POST("/:quest_id/whitelist", h.MarkWhitelistWinner)
		}
	}
}

type questStepPayload struct {
	Description   string  `json:"step" binding:"required"`
	Type          string  `json:"type" binding:"required"`
	ProofRequired bool    `json:"proof_required"`
	URL           *string `json:"url"`
	Platform      *string `json:"platform"`
	Action        *string `json:"action"`
	TargetUser    *string `json:"target_user"`
	ServerID      *string `json:"server_id"`
}

type questPayload struct {
	Title       string             `json:"title" binding:"required"`
	Description string             `json:"description"`
	Category    string             `json:"category" binding:"required"`
	RewardType  string             `json:"reward_type" binding:"required"`
	Reward      int                `json:"reward" binding:"required,min=1"`
	DogeAmount  *float64           `json:"doge_amount"`
	TokenTicker *string            `json:"token_ticker"`
	TokenAmount *float64           `json:"token_amount"`
	Steps       []questStepPayload `json:"steps" binding:"required,min=1"`
	EndDate     *time.Time         `json:"end_date"`
	Status      *string            `json:"status"`
	PaymentTx   string             `json:"payment_tx"`
}

func (h *questRoutes) GetQuests(c *gin.Context) {
	log := logger.Logger()

	quests, err := h.qs.GetQuests(c.Request.Context())
	if err != nil {
		log.Error("failed to get quests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := make([]gin.H, len(quests))
	for i, q := range quests {
		response[i] = questResponse(q)
	}
	c.JSON(http.StatusOK, response)
}

func (h *questRoutes) GetQuestByID(c *gin.Context) {
	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	quest, err := h.qs.GetQuestByID(c.Request.Context(), questID)
	if err != nil {
		if errors.Is(err, service.ErrQuestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quest_id not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, questResponse(quest))
}

// SubmitQuest is the project-owner path: the quest fee must already be paid
// and its tx hash attached, except for whitelist-reward quests.
func (h *questRoutes) SubmitQuest(c *gin.Context) {
	log := logger.Logger()

	var req questPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, ok := auth.WalletFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	quest := questFromPayload(&req)
	quest.Creator = &user.Address

	questID, err := h.qs.CreateQuest(c.Request.Context(), quest, req.PaymentTx)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentRequired):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "quest fee payment is required"})
		case errors.Is(err, service.ErrPaymentInvalid):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "quest fee payment could not be validated"})
		case errors.Is(err, service.ErrQuestHasNoSteps):
			c.JSON(http.StatusBadRequest, gin.H{"error": "quest must have at least one step"})
		default:
			log.Error("failed to submit quest", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"quest_id": questID})
}

func (h *questRoutes) CreateQuest(c *gin.Context) {
	log := logger.Logger()

	var req questPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	questID, err := h.qs.CreateQuestAsAdmin(c.Request.Context(), questFromPayload(&req))
	if err != nil {
		if errors.Is(err, service.ErrQuestHasNoSteps) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quest must have at least one step"})
			return
		}
		log.Error("failed to create quest", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"quest_id": questID})
}

func (h *questRoutes) UpdateQuest(c *gin.Context) {
	log := logger.Logger()

	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	var req questPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	quest := questFromPayload(&req)
	quest.ID = questID

	err = h.qs.UpdateQuest(c.Request.Context(), quest)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "quest_id not found"})
		case errors.Is(err, service.ErrQuestHasNoSteps):
			c.JSON(http.StatusBadRequest, gin.H{"error": "quest must have at least one step"})
		default:
			log.Error("failed to update quest", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.Status(http.StatusOK)
}

type MarkWhitelistWinnerRequest struct {
	Wallet   string `json:"wallet" binding:"required"`
	IsWinner bool   `json:"is_winner"`
}

func (h *questRoutes) MarkWhitelistWinner(c *gin.Context) {
	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	var req MarkWhitelistWinnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	err = h.ss.MarkWhitelistWinner(c.Request.Context(), questID, req.Wallet, req.IsWinner)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "quest_id not found"})
		case errors.Is(err, service.ErrNotWhitelistQuest):
			c.JSON(http.StatusBadRequest, gin.H{"error": "quest does not have a whitelist reward"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.Status(http.StatusOK)
}

func questFromPayload(req *questPayload) *model.Quest {
	steps := make([]model.QuestStep, len(req.Steps))
	for i, s := range req.Steps {
		steps[i] = model.QuestStep{
			Index:         i,
			Description:   s.Description,
			Type:          model.StepType(s.Type),
			ProofRequired: s.ProofRequired,
			URL:           s.URL,
			TargetUser:    s.TargetUser,
			ServerID:      s.ServerID,
		}
		if s.Platform != nil {
			p := model.StepType(*s.Platform)
			steps[i].Platform = &p
		}
		if s.Action != nil {
			a := model.StepAction(*s.Action)
			steps[i].Action = &a
		}
	}

	quest := &model.Quest{
		Title:       req.Title,
		Description: req.Description,
		Category:    model.QuestCategory(req.Category),
		RewardType:  model.RewardType(req.RewardType),
		Reward:      req.Reward,
		DogeAmount:  req.DogeAmount,
		TokenTicker: req.TokenTicker,
		TokenAmount: req.TokenAmount,
		Steps:       steps,
		EndDate:     req.EndDate,
	}
	if req.Status != nil {
		quest.Status = model.QuestStatus(*req.Status)
	}
	return quest
}

func questResponse(q *model.Quest) gin.H {
	steps := make([]gin.H, len(q.Steps))
	for i, s := range q.Steps {
		steps[i] = gin.H{
			"step":           s.Description,
			"type":           s.Type,
			"proof_required": s.ProofRequired,
			"url":            s.URL,
			"platform":       s.Platform,
			"action":         s.Action,
			"target_user":    s.TargetUser,
			"server_id":      s.ServerID,
		}
	}

	return gin.H{
		"quest_id":          q.ID,
		"title":             q.Title,
		"description":       q.Description,
		"category":          q.Category,
		"reward_type":       q.RewardType,
		"reward":            q.Reward,
		"doge_amount":       q.DogeAmount,
		"token_ticker":      q.TokenTicker,
		"token_amount":      q.TokenAmount,
		"steps":             steps,
		"status":            q.Status,
		"creator":           q.Creator,
		"payment_tx":        q.PaymentTx,
		"end_date":          q.EndDate,
		"created_at":        q.CreatedAt,
		"whitelist_winners": q.WhitelistWinners,
	}
}
