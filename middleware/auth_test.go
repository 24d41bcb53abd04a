package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidarp/server/config"
	mw "github.com/vidarp/server/middleware"
	"github.com/vidarp/server/testutil"
)

func authedRouter(t *testing.T, sec config.SecurityConfig) (*gin.Engine, string) {
	t.Helper()
	c, _ := testutil.SetupTestCache(t)

	token, err := mw.GenerateToken(7, "manager", sec.JWTSecret, sec.JWTTTLH)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), "session:"+token, "7", sec.JWTTTLH))

	r := gin.New()
	r.Use(mw.Auth(sec, c))
	r.GET("/me", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"id": mw.GetAccountID(ctx), "role": mw.GetRole(ctx)})
	})
	r.GET("/manager", mw.RequireRole("manager"), func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"ok": true})
	})
	r.GET("/courier", mw.RequireRole("courier"), func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"ok": true})
	})
	return r, token
}

func TestAuth_MissingToken(t *testing.T) {
	sec := config.SecurityConfig{JWTSecret: "s", JWTTTLH: time.Hour}
	r, _ := authedRouter(t, sec)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	sec := config.SecurityConfig{JWTSecret: "s", JWTTTLH: time.Hour}
	r, _ := authedRouter(t, sec)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_ValidTokenSetsIdentity(t *testing.T) {
	sec := config.SecurityConfig{JWTSecret: "s", JWTTTLH: time.Hour}
	r, token := authedRouter(t, sec)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":7`)
	assert.Contains(t, w.Body.String(), `"role":"manager"`)
}

func TestRequireRole(t *testing.T) {
	sec := config.SecurityConfig{JWTSecret: "s", JWTTTLH: time.Hour}
	r, token := authedRouter(t, sec)

	req := httptest.NewRequest(http.MethodGet, "/manager", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/courier", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestParseToken_RoundTrip(t *testing.T) {
	token, err := mw.GenerateToken(42, "player", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := mw.ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.AccountID)
	assert.Equal(t, "player", claims.Role)

	_, err = mw.ParseToken(token, "wrong-secret")
	assert.Error(t, err)
}
