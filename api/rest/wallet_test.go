package rest_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apirest "github.com/vidarp/server/api/rest"
	mw "github.com/vidarp/server/middleware"
	"github.com/vidarp/server/model"
)

func newWalletRouter(e *env) *gin.Engine {
	r := gin.New()
	h := apirest.NewWalletHandler(e.db, e.wallet, e.audit)
	g := r.Group("/api/wallet", mw.Auth(testSec, e.cache))
	g.GET("", h.Show)
	g.POST("/transfer", h.Transfer)
	return r
}

func playerBalance(t *testing.T, e *env, id int64) int64 {
	t.Helper()
	var p model.Player
	require.NoError(t, e.db.First(&p, id).Error)
	return p.WalletBalance
}

func TestWalletTransfer(t *testing.T) {
	e := newEnv(t)
	r := newWalletRouter(e)
	sender, token := e.login(t, model.RolePlayer, 300)
	receiver, _ := e.login(t, model.RolePlayer, 50)

	w := doJSON(r, http.MethodPost, "/api/wallet/transfer",
		gin.H{"to_player_id": receiver.ID, "amount": 120}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.EqualValues(t, 180, playerBalance(t, e, sender.ID))
	assert.EqualValues(t, 170, playerBalance(t, e, receiver.ID))
}

func TestWalletTransfer_InsufficientFunds(t *testing.T) {
	e := newEnv(t)
	r := newWalletRouter(e)
	sender, token := e.login(t, model.RolePlayer, 100)
	receiver, _ := e.login(t, model.RolePlayer, 0)

	w := doJSON(r, http.MethodPost, "/api/wallet/transfer",
		gin.H{"to_player_id": receiver.ID, "amount": 150}, token)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	// Nothing moved, nothing was recorded.
	assert.EqualValues(t, 100, playerBalance(t, e, sender.ID))
	var count int64
	e.db.Model(&model.Transaction{}).Count(&count)
	assert.Zero(t, count)
}

func TestWalletTransfer_SelfAndBadAmount(t *testing.T) {
	e := newEnv(t)
	r := newWalletRouter(e)
	sender, token := e.login(t, model.RolePlayer, 100)

	w := doJSON(r, http.MethodPost, "/api/wallet/transfer",
		gin.H{"to_player_id": sender.ID, "amount": 10}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	other, _ := e.login(t, model.RolePlayer, 0)
	w = doJSON(r, http.MethodPost, "/api/wallet/transfer",
		gin.H{"to_player_id": other.ID, "amount": -5}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletShow(t *testing.T) {
	e := newEnv(t)
	r := newWalletRouter(e)
	_, token := e.login(t, model.RolePlayer, 420)

	w := doJSON(r, http.MethodGet, "/api/wallet", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.EqualValues(t, 420, resp["balance"])
}

func TestWallet_Unauthenticated(t *testing.T) {
	e := newEnv(t)
	r := newWalletRouter(e)
	w := doJSON(r, http.MethodGet, "/api/wallet", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
