package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vidarp/server/audit"
	"github.com/vidarp/server/cache"
	"github.com/vidarp/server/catalog"
	"github.com/vidarp/server/config"
	"github.com/vidarp/server/feed"
	"github.com/vidarp/server/game/effect"
	"github.com/vidarp/server/game/inventory"
	"github.com/vidarp/server/game/medicine"
	"github.com/vidarp/server/game/relationship"
	"github.com/vidarp/server/game/wallet"
	mw "github.com/vidarp/server/middleware"
	"github.com/vidarp/server/model"
	"github.com/vidarp/server/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSec = config.SecurityConfig{
	JWTSecret: "test-secret",
	JWTTTLH:   72 * time.Hour,
}

var testGame = config.GameConfig{
	StartingBalance: 500,
	DivorceFee:      1000,
	MoodEffectTTL:   time.Hour,
}

// env bundles everything a handler test needs.
type env struct {
	db      *gorm.DB
	cache   cache.Cache
	catalog *catalog.Catalog
	wallet  *wallet.Service
	rel     *relationship.Service
	med     *medicine.Service
	audit   *audit.Service
	trans   *effect.Transients
	proj    *inventory.Projector
	custIdx *inventory.CustomIndex
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	cat := catalog.FromStores(
		&catalog.StoreDef{
			ID:   "padaria",
			Name: "Padaria",
			Items: []*catalog.Item{
				{ID: "pao_frances", Name: "Pão Francês", Price: 2, ItemType: model.ItemTypeFood,
					Effect: &catalog.Effect{Type: catalog.EffectHunger, Value: 30}},
				{ID: "cafe", Name: "Café", Price: 3, ItemType: model.ItemTypeDrink,
					Effect: &catalog.Effect{Type: catalog.EffectEnergy, Value: 10}},
			},
		},
		&catalog.StoreDef{
			ID:             "sorveteria",
			Name:           "Sorveteria",
			HappinessStore: true,
			Items: []*catalog.Item{
				{ID: "sorvete", Name: "Sorvete", Price: 6, ItemType: model.ItemTypeFood,
					Effect: &catalog.Effect{Type: catalog.EffectMood, Value: 10, Message: "Feliz com o sorvete"}},
			},
		},
		&catalog.StoreDef{
			ID:   "farmacia",
			Name: "Farmácia",
			Items: []*catalog.Item{
				{ID: "antigripal", Name: "Antigripal", Price: 12, ItemType: model.ItemTypeFood},
			},
		},
		&catalog.StoreDef{
			ID:       "pizzaria",
			Name:     "Pizzaria",
			Delivery: true,
			Items: []*catalog.Item{
				{ID: "pizza_mussarela", Name: "Pizza de Mussarela", Price: 40, ItemType: model.ItemTypeFood,
					Effect: &catalog.Effect{Type: catalog.EffectHunger, Value: 50}},
			},
		},
		&catalog.StoreDef{
			ID:   "joalheria",
			Name: "Joalheria",
			Items: []*catalog.Item{
				{ID: "anel_namoro", Name: "Anel de Namoro", Price: 100,
					ItemType: model.ItemTypeObject, RelationshipType: model.RelDating},
			},
		},
	)
	pub := feed.NewPublisher(ps, logger)
	w := wallet.NewService(db, c, cat, pub, testGame.DivorceFee, logger)
	aud := audit.New(db, logger)
	t.Cleanup(func() { aud.Stop(context.Background()) })
	return &env{
		db:      db,
		cache:   c,
		catalog: cat,
		wallet:  w,
		rel:     relationship.NewService(db, cat, w, pub, logger),
		med:     medicine.NewService(db, logger),
		audit:   aud,
		trans:   effect.NewTransients(c, testGame.MoodEffectTTL, logger),
		proj:    inventory.NewProjector(cat, logger),
		custIdx: inventory.NewCustomIndex(db, c, logger),
	}
}

// login creates an account+player and a live session, returning the player
// and a Bearer token.
func (e *env) login(t *testing.T, role string, balance int64) (*model.Player, string) {
	t.Helper()
	acc := &model.Account{
		Username:     "p#" + uuid.NewString()[:4],
		PasswordHash: "x",
		Role:         role,
		Status:       1,
	}
	require.NoError(t, e.db.Create(acc).Error)
	p := &model.Player{AccountID: acc.ID, Health: 80, Hunger: 40, Mood: 50, Happiness: 50, Energy: 60, WalletBalance: balance}
	require.NoError(t, e.db.Create(p).Error)

	token, err := mw.GenerateToken(acc.ID, acc.Role, testSec.JWTSecret, testSec.JWTTTLH)
	require.NoError(t, err)
	require.NoError(t, e.cache.Set(context.Background(), "session:"+token,
		strconv.FormatInt(acc.ID, 10), testSec.JWTTTLH))
	return p, token
}

func nopLogger() *zap.Logger { return zap.NewNop() }

func doJSON(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
