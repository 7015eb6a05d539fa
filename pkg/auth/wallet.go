package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dnkquest-backend/pkg/logger"
	"go.uber.org/zap"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
)

const expTime = 24 * time.Hour

// WalletAuth validates `Authorization: Wallet <address>:<timestamp>:<signature>`
// headers, where the signature is an EIP-191 personal_sign of SignedMessage for
// that address and timestamp. In debug mode the signature part is not checked.
type WalletAuth struct {
	debugMode bool
}

func NewWalletAuth(debugMode bool) *WalletAuth {
	return &WalletAuth{
		debugMode: debugMode,
	}
}

type WalletUserData struct {
	Address  string
	AuthDate time.Time
}

// SignedMessage is the exact text a wallet must personal_sign.
func SignedMessage(address string, ts int64) string {
	return fmt.Sprintf("dnkquest login\naddress: %s\ntimestamp: %d", strings.ToLower(address), ts)
}

func (w *WalletAuth) WalletAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Wallet ") {
			log.Info("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Wallet ")
		userData, err := w.validate(token)
		if err != nil {
			log.Info("invalid wallet auth data", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid wallet auth data"})
			return
		}

		c.Set("wallet_user", userData)
		c.Next()
	}
}

func (w *WalletAuth) validate(token string) (*WalletUserData, error) {
	parts := strings.SplitN(token, ":", 3)

	address := parts[0]
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid wallet address")
	}
	address = strings.ToLower(address)

	if w.debugMode {
		return &WalletUserData{Address: address, AuthDate: time.Now().UTC()}, nil
	}

	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed auth token")
	}

	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}

	authDate := time.Unix(ts, 0)
	if time.Since(authDate) > expTime {
		return nil, fmt.Errorf("auth token expired")
	}

	recovered, err := RecoverSigner(SignedMessage(address, ts), parts[2])
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(recovered, address) {
		return nil, fmt.Errorf("signature does not match address")
	}

	return &WalletUserData{Address: address, AuthDate: authDate}, nil
}

// RecoverSigner returns the address that personal_signed message.
func RecoverSigner(message string, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return "", fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("invalid signature length")
	}

	// Wallets return V as 27/28, go-ethereum expects 0/1.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("failed to recover public key: %w", err)
	}

	return strings.ToLower(crypto.PubkeyToAddress(*pub).Hex()), nil
}

// WalletFromContext extracts the authenticated wallet set by the middleware.
func WalletFromContext(c *gin.Context) (*WalletUserData, bool) {
	userData, exists := c.Get("wallet_user")
	if !exists {
		return nil, false
	}
	user, ok := userData.(*WalletUserData)
	return user, ok
}
