package api

import (
	"errors"
	"net/http"
	"strings"

	"dnkquest-backend/internal/model"
	"dnkquest-backend/internal/service"
	"dnkquest-backend/pkg/auth"
	"dnkquest-backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type userRoutes struct {
	us service.UserServiceI
	a  *auth.WalletAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, a *auth.WalletAuth) {
	r := &userRoutes{us: us, a: a}
	h := handler.Group("/users")
	h.Use(a.WalletAuthMiddleware())
	{
		h.POST("/", r.RegisterUser)
		h.GET("/leaderboard", r.GetLeaderboard)
		h.GET("/:wallet", r.GetUserByWallet)
		h.GET("/:wallet/completed", r.GetCompletedQuests)
		h.GET("/:wallet/socials", r.GetSocialAccounts)
		h.PUT("/:wallet/socials", r.UpdateSocialAccounts)
	}
}

type RegisterUserRequest struct {
	Alias  string `json:"alias"`
	Avatar string `json:"avatar"`
}

func (r *userRoutes) RegisterUser(c *gin.Context) {
	log := logger.Logger()

	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := auth.WalletFromContext(c)
	if !ok {
		log.Error("wallet user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	u, err := r.us.RegisterUser(c.Request.Context(), &model.User{
		Wallet: user.Address,
		Alias:  req.Alias,
		Avatar: req.Avatar,
	})
	if err != nil {
		log.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, userResponse(u))
}

func (r *userRoutes) GetUserByWallet(c *gin.Context) {
	log := logger.Logger()

	wallet := c.Param("wallet")
	user, err := r.us.GetUserByWallet(c.Request.Context(), wallet)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no user associated with the provided wallet"})
			return
		}
		log.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

func (r *userRoutes) GetCompletedQuests(c *gin.Context) {
	log := logger.Logger()

	completed, err := r.us.GetCompletedQuests(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		log.Error("failed to get completed quests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get completed quests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"completed_quests": completed,
	})
}

func (r *userRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	users, err := r.us.GetLeaderboard(c.Request.Context())
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := make([]gin.H, len(users))
	for i, user := range users {
		response[i] = gin.H{
			"rank":      i + 1,
			"wallet":    user.Wallet,
			"alias":     user.Alias,
			"xp":        user.XP,
			"avatar":    user.Avatar,
			"completed": len(user.Completed),
		}
	}

	c.JSON(http.StatusOK, response)
}

type socialAccountsPayload struct {
	Twitter  *string `json:"twitter"`
	Discord  *string `json:"discord"`
	Telegram *string `json:"telegram"`
}

func (r *userRoutes) GetSocialAccounts(c *gin.Context) {
	log := logger.Logger()

	wallet := c.Param("wallet")
	if !isOwner(c, wallet) {
		c.JSON(http.StatusForbidden, gin.H{"error": "wallet mismatch"})
		return
	}

	accounts, err := r.us.GetSocialAccounts(c.Request.Context(), wallet)
	if err != nil {
		log.Error("failed to get social accounts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get social accounts"})
		return
	}

	c.JSON(http.StatusOK, socialAccountsPayload{
		Twitter:  accounts.Twitter,
		Discord:  accounts.Discord,
		Telegram: accounts.Telegram,
	})
}

func (r *userRoutes) UpdateSocialAccounts(c *gin.Context) {
	log := logger.Logger()

	wallet := c.Param("wallet")
	if !isOwner(c, wallet) {
		c.JSON(http.StatusForbidden, gin.H{"error": "wallet mismatch"})
		return
	}

	var req socialAccountsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := r.us.UpdateSocialAccounts(c.Request.Context(), wallet, &model.SocialAccounts{
		Twitter:  req.Twitter,
		Discord:  req.Discord,
		Telegram: req.Telegram,
	})
	if err != nil {
		log.Error("failed to update social accounts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update social accounts"})
		return
	}

	c.JSON(http.StatusOK, req)
}

func userResponse(u *model.User) gin.H {
	return gin.H{
		"wallet":            u.Wallet,
		"alias":             u.Alias,
		"xp":                u.XP,
		"avatar":            u.Avatar,
		"completed":         u.Completed,
		"registration_date": u.RegistrationDate,
		"auth_date":         u.AuthDate,
	}
}

func isOwner(c *gin.Context, wallet string) bool {
	user, ok := auth.WalletFromContext(c)
	return ok && strings.EqualFold(user.Address, wallet)
}
