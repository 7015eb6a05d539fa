package api

import (
	"errors"
	"net/http"

	"dnkquest-backend/internal/middleware"
	"dnkquest-backend/internal/model"
	"dnkquest-backend/internal/service"
	"dnkquest-backend/pkg/auth"
	"dnkquest-backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type submissionRoutes struct {
	ss *service.SubmissionService
	a  *auth.WalletAuth
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewSubmissionRoutes(handler *gin.RouterGroup, ss *service.SubmissionService, a *auth.WalletAuth, authz *middleware.Authorization) {
	h := &submissionRoutes{ss: ss, a: a}

	submissions := handler.Group("/submissions")
	submissions.Use(a.WalletAuthMiddleware())
	{
		submissions.GET("/ws", h.handleReviewFeed)

		admin := submissions.Group("/")
		admin.Use(authz.AdminOnly())
		{
			admin.GET("/", h.GetSubmissions)
			admin.GET("/:submission_id", h.GetSubmissionByID)
			admin.POST("/:submission_id/approve", h.Approve)
			admin.POST("/:submission_id/reject", h.Reject)
		}
	}
}

func (h *submissionRoutes) GetSubmissions(c *gin.Context) {
	log := logger.Logger()

	var status *model.SubmissionStatus
	if s := c.Query("status"); s != "" {
		st := model.SubmissionStatus(s)
		status = &st
	}

	submissions, err := h.ss.GetSubmissions(c.Request.Context(), status)
	if err != nil {
		log.Error("failed to get submissions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := make([]gin.H, len(submissions))
	for i, s := range submissions {
		response[i] = submissionResponse(s)
	}
	c.JSON(http.StatusOK, response)
}

func (h *submissionRoutes) GetSubmissionByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission_id"})
		return
	}

	submission, err := h.ss.GetSubmissionByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "submission_id not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, submissionResponse(submission))
}

func (h *submissionRoutes) Approve(c *gin.Context) {
	log := logger.Logger()

	id, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission_id"})
		return
	}

	user, ok := auth.WalletFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	err = h.ss.Approve(c.Request.Context(), id, user.Address)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubmissionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "submission_id not found"})
		case errors.Is(err, service.ErrAlreadyReviewed):
			c.JSON(http.StatusConflict, gin.H{"error": "submission was already rejected"})
		default:
			log.Error("failed to approve submission", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.Status(http.StatusOK)
}

type RejectSubmissionRequest struct {
	Reason string `json:"reason"`
}

func (h *submissionRoutes) Reject(c *gin.Context) {
	log := logger.Logger()

	id, err := uuid.Parse(c.Param("submission_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission_id"})
		return
	}

	var req RejectSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, ok := auth.WalletFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	err = h.ss.Reject(c.Request.Context(), id, user.Address, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyReason):
			c.JSON(http.StatusBadRequest, gin.H{"error": "rejection reason is required"})
		case errors.Is(err, service.ErrSubmissionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "submission_id not found"})
		case errors.Is(err, service.ErrAlreadyReviewed):
			c.JSON(http.StatusConflict, gin.H{"error": "submission was already reviewed"})
		default:
			log.Error("failed to reject submission", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.Status(http.StatusOK)
}

// handleReviewFeed streams review events for the authenticated wallet until
// the client disconnects.
func (h *submissionRoutes) handleReviewFeed(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.WalletFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.ss.Subscribe(user.Address)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				log.Error("failed to marshal review event", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func submissionResponse(s *model.QuestSubmission) gin.H {
	proofs := make(map[int]string, len(s.Proofs))
	for k, v := range s.Proofs {
		proofs[k] = v
	}

	return gin.H{
		"submission_id":    s.ID,
		"quest_id":         s.QuestID,
		"wallet":           s.Wallet,
		"submitted_at":     s.SubmittedAt,
		"proofs":           proofs,
		"status":           s.Status,
		"reviewed_by":      s.ReviewedBy,
		"reviewed_at":      s.ReviewedAt,
		"rejection_reason": s.RejectionReason,
	}
}
