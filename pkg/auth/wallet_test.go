package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signAuthToken(t *testing.T, ts int64) (address string, token string) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	address = strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())

	sig, err := crypto.Sign(accounts.TextHash([]byte(SignedMessage(address, ts))), key)
	require.NoError(t, err)
	// personal_sign wallets report V as 27/28
	sig[crypto.RecoveryIDOffset] += 27

	token = fmt.Sprintf("%s:%d:%s", address, ts, hexutil.Encode(sig))
	return address, token
}

func runMiddleware(auth *WalletAuth, header string) (*httptest.ResponseRecorder, *WalletUserData) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		ctx.Request.Header.Set("Authorization", header)
	}

	auth.WalletAuthMiddleware()(ctx)

	user, _ := WalletFromContext(ctx)
	return rec, user
}

func TestWalletAuthMiddleware(t *testing.T) {
	auth := NewWalletAuth(false)

	ts := time.Now().Unix()
	address, token := signAuthToken(t, ts)

	rec, user := runMiddleware(auth, "Wallet "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, user)
	assert.Equal(t, address, user.Address)
}

func TestWalletAuthMiddleware_MissingHeader(t *testing.T) {
	auth := NewWalletAuth(false)

	rec, user := runMiddleware(auth, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, user)
}

func TestWalletAuthMiddleware_WrongScheme(t *testing.T) {
	auth := NewWalletAuth(false)

	rec, _ := runMiddleware(auth, "Bearer abcdef")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWalletAuthMiddleware_ExpiredToken(t *testing.T) {
	auth := NewWalletAuth(false)

	ts := time.Now().Add(-25 * time.Hour).Unix()
	_, token := signAuthToken(t, ts)

	rec, _ := runMiddleware(auth, "Wallet "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWalletAuthMiddleware_SignatureFromOtherKey(t *testing.T) {
	auth := NewWalletAuth(false)

	ts := time.Now().Unix()
	address, _ := signAuthToken(t, ts)
	_, otherToken := signAuthToken(t, ts)
	otherSig := strings.Split(otherToken, ":")[2]

	token := fmt.Sprintf("%s:%d:%s", address, ts, otherSig)
	rec, _ := runMiddleware(auth, "Wallet "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWalletAuthMiddleware_DebugMode(t *testing.T) {
	auth := NewWalletAuth(true)

	rec, user := runMiddleware(auth, "Wallet 0x00000000000000000000000000000000DeaDBeef")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, user)
	assert.Equal(t, "0x00000000000000000000000000000000deadbeef", user.Address)
}

func TestRecoverSigner_RejectsBadInput(t *testing.T) {
	_, err := RecoverSigner("message", "not-hex")
	assert.Error(t, err)

	_, err = RecoverSigner("message", "0xdeadbeef")
	assert.Error(t, err)
}
