package rest_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apirest "github.com/vidarp/server/api/rest"
	mw "github.com/vidarp/server/middleware"
	"github.com/vidarp/server/model"
)

func newAuthRouter(e *env) *gin.Engine {
	r := gin.New()
	h := apirest.NewAuthHandler(e.db, e.cache, testSec, testGame)
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/logout", mw.Auth(testSec, e.cache), h.Logout)
	r.POST("/api/auth/refresh", mw.Auth(testSec, e.cache), h.Refresh)
	return r
}

func TestLogin_AutoRegister(t *testing.T) {
	e := newEnv(t)
	r := newAuthRouter(e)

	w := doJSON(r, http.MethodPost, "/api/auth/login",
		gin.H{"username": "ana", "password": "segredo1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.NotEmpty(t, resp["token"])
	assert.Equal(t, "ana", resp["display_name"])

	username, _ := resp["username"].(string)
	require.True(t, strings.Contains(username, "#"), "server assigns a discriminator")
	require.Len(t, username, len("ana")+5)

	var acc model.Account
	require.NoError(t, e.db.Where("username = ?", username).First(&acc).Error)
	var p model.Player
	require.NoError(t, e.db.Where("account_id = ?", acc.ID).First(&p).Error)
	assert.Equal(t, testGame.StartingBalance, p.WalletBalance)
}

func TestLogin_FullUsernameReturnsSameAccount(t *testing.T) {
	e := newEnv(t)
	r := newAuthRouter(e)

	w := doJSON(r, http.MethodPost, "/api/auth/login",
		gin.H{"username": "bruno", "password": "segredo1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	first := decode(t, w)

	w = doJSON(r, http.MethodPost, "/api/auth/login",
		gin.H{"username": first["username"], "password": "segredo1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	second := decode(t, w)
	assert.Equal(t, first["account_id"], second["account_id"])
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newEnv(t)
	r := newAuthRouter(e)

	w := doJSON(r, http.MethodPost, "/api/auth/login",
		gin.H{"username": "carla", "password": "segredo1"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	username := decode(t, w)["username"]

	w = doJSON(r, http.MethodPost, "/api/auth/login",
		gin.H{"username": username, "password": "errada99"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_DecoratedUnknownNameIsNotASignup(t *testing.T) {
	e := newEnv(t)
	r := newAuthRouter(e)

	w := doJSON(r, http.MethodPost, "/api/auth/login",
		gin.H{"username": "fantasma#1234", "password": "segredo1"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	e.db.Model(&model.Account{}).Count(&count)
	assert.Zero(t, count)
}

func TestLogin_Banned(t *testing.T) {
	e := newEnv(t)
	r := newAuthRouter(e)

	hash, err := bcrypt.GenerateFromPassword([]byte("segredo1"), bcrypt.MinCost)
	require.NoError(t, err)
	acc := &model.Account{Username: "vilao#0001", PasswordHash: string(hash), Role: model.RolePlayer}
	require.NoError(t, e.db.Create(acc).Error)
	// Ban via Update: a zero Status on Create is swallowed by the column
	// default, the same way admin bans flip the column.
	require.NoError(t, e.db.Model(acc).Update("status", 0).Error)

	w := doJSON(r, http.MethodPost, "/api/auth/login",
		gin.H{"username": "vilao#0001", "password": "segredo1"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLogout_KillsSession(t *testing.T) {
	e := newEnv(t)
	r := newAuthRouter(e)
	_, token := e.login(t, model.RolePlayer, 0)

	w := doJSON(r, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	// Session is gone, the token no longer passes auth.
	w = doJSON(r, http.MethodPost, "/api/auth/refresh", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh_IssuesWorkingToken(t *testing.T) {
	e := newEnv(t)
	r := newAuthRouter(e)
	_, token := e.login(t, model.RolePlayer, 0)

	w := doJSON(r, http.MethodPost, "/api/auth/refresh", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	fresh, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, fresh)

	// Tokens signed within the same second can be byte-identical, so only
	// the new token's validity is asserted here.
	w = doJSON(r, http.MethodPost, "/api/auth/refresh", nil, fresh)
	assert.Equal(t, http.StatusOK, w.Code)
}
