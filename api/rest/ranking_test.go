package rest_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apirest "github.com/vidarp/server/api/rest"
	"github.com/vidarp/server/model"
)

func newRankingRouter(e *env) *gin.Engine {
	r := gin.New()
	h := apirest.NewRankingHandler(e.db, e.wallet)
	r.GET("/api/ranking/wealth", h.Wealth)
	return r
}

func TestRankingWealth(t *testing.T) {
	e := newEnv(t)
	r := newRankingRouter(e)
	e.login(t, model.RolePlayer, 50)
	rich, _ := e.login(t, model.RolePlayer, 900)
	e.login(t, model.RolePlayer, 400)

	require.NoError(t, e.wallet.RefreshRanking(context.Background(), 100))

	w := doJSON(r, http.MethodGet, "/api/ranking/wealth", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	ranking, _ := decode(t, w)["ranking"].([]interface{})
	require.Len(t, ranking, 3)

	top, _ := ranking[0].(map[string]interface{})
	assert.EqualValues(t, rich.ID, top["player_id"])
	assert.EqualValues(t, 900, top["balance"])
	assert.NotEmpty(t, top["display_name"])
}

func TestRankingWealth_EmptyBoard(t *testing.T) {
	e := newEnv(t)
	r := newRankingRouter(e)

	w := doJSON(r, http.MethodGet, "/api/ranking/wealth", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["ranking"], 0)
}
