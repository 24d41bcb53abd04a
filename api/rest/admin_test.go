package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apirest "github.com/vidarp/server/api/rest"
	"github.com/vidarp/server/model"
	"github.com/vidarp/server/scheduler"
)

func newAdminRouter(e *env, adminKey string) *gin.Engine {
	r := gin.New()
	sched := scheduler.New(nopLogger())
	h := apirest.NewAdminHandler(e.db, e.catalog, e.med, sched, nopLogger())
	g := r.Group("/api/admin", apirest.AdminAuth(adminKey))
	g.GET("/metrics", h.Metrics)
	g.POST("/reconcile-diseases", h.ReconcileDiseases)
	g.POST("/accounts/:id/ban", h.BanAccount)
	g.POST("/accounts/:id/role", h.SetRole)
	g.GET("/scheduler", h.ListSchedulerTasks)
	return r
}

func adminGet(r *gin.Engine, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("X-Admin-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminAuth_EmptyKeyDisablesRoutes(t *testing.T) {
	e := newEnv(t)
	r := newAdminRouter(e, "")
	w := adminGet(r, "/api/admin/metrics", "whatever")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminAuth_WrongKey(t *testing.T) {
	e := newEnv(t)
	r := newAdminRouter(e, "s3cret")
	w := adminGet(r, "/api/admin/metrics", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = adminGet(r, "/api/admin/metrics", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminMetrics(t *testing.T) {
	e := newEnv(t)
	r := newAdminRouter(e, "s3cret")
	e.login(t, model.RolePlayer, 0)
	e.login(t, model.RolePlayer, 0)

	w := adminGet(r, "/api/admin/metrics", "s3cret")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.EqualValues(t, 2, resp["accounts"])
	assert.EqualValues(t, 2, resp["players"])
}

func TestAdminBanAndRole(t *testing.T) {
	e := newEnv(t)
	r := newAdminRouter(e, "s3cret")
	p, _ := e.login(t, model.RolePlayer, 0)

	req := httptest.NewRequest(http.MethodPost,
		"/api/admin/accounts/"+itoa(p.AccountID)+"/ban", jsonBody(t, gin.H{"ban": true}))
	req.Header.Set("X-Admin-Key", "s3cret")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var acc model.Account
	require.NoError(t, e.db.First(&acc, p.AccountID).Error)
	assert.Equal(t, 0, acc.Status)

	req = httptest.NewRequest(http.MethodPost,
		"/api/admin/accounts/"+itoa(p.AccountID)+"/role", jsonBody(t, gin.H{"role": "courier"}))
	req.Header.Set("X-Admin-Key", "s3cret")
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, e.db.First(&acc, p.AccountID).Error)
	assert.Equal(t, model.RoleCourier, acc.Role)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func jsonBody(t *testing.T, v interface{}) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}
