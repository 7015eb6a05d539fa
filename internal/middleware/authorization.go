package middleware

import (
	"errors"
	"net/http"
	"strings"

	"dnkquest-backend/internal/service"
	"dnkquest-backend/pkg/auth"
	"dnkquest-backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

// Authorization decides admin capability for a wallet. A wallet is admin when
// it appears in the configured allowlist or its user record carries the admin
// flag; no address comparison happens outside this type.
type Authorization struct {
	userService  service.UserServiceI
	adminWallets map[string]struct{}
}

func NewAuthorization(userService service.UserServiceI, adminWallets []string) *Authorization {
	wallets := make(map[string]struct{}, len(adminWallets))
	for _, w := range adminWallets {
		wallets[strings.ToLower(w)] = struct{}{}
	}
	return &Authorization{
		userService:  userService,
		adminWallets: wallets,
	}
}

func (a *Authorization) IsAdmin(c *gin.Context, wallet string) bool {
	wallet = strings.ToLower(wallet)
	if _, ok := a.adminWallets[wallet]; ok {
		return true
	}

	user, err := a.userService.GetUserByWallet(c.Request.Context(), wallet)
	if err != nil {
		if !errors.Is(err, service.ErrUserNotFound) {
			logger.Logger().Error("failed to get user data", zap.Error(err))
		}
		return false
	}
	return user.IsAdmin
}

func (a *Authorization) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		user, ok := auth.WalletFromContext(c)
		if !ok {
			log.Error("wallet user data not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if !a.IsAdmin(c, user.Address) {
			log.Info("unauthorized access attempt to admin endpoint",
				zap.String("wallet", user.Address))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		c.Set("is_admin", true)
		c.Next()
	}
}
