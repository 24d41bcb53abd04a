package medicine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vidarp/server/model"
	"github.com/vidarp/server/testutil"
)

func seedPlayer(t *testing.T, db *gorm.DB, health, diseaseStat int, diseases ...string) *model.Player {
	t.Helper()
	acc := &model.Account{Username: "doente#" + uuid.NewString()[:4], PasswordHash: "x", Role: model.RolePlayer}
	require.NoError(t, db.Create(acc).Error)
	p := &model.Player{AccountID: acc.ID, Health: health, DiseaseStat: diseaseStat}
	require.NoError(t, db.Create(p).Error)
	for _, d := range diseases {
		require.NoError(t, db.Create(&model.PlayerDisease{PlayerID: p.ID, Name: d}).Error)
	}
	return p
}

func TestTryCure_RemovesDiseaseAndRestoresHealth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db, zap.NewNop())
	p := seedPlayer(t, db, 60, 15, "Desnutrição")

	cured, err := svc.TryCure(context.Background(), p.ID, "Complexo Vitamínico")
	require.NoError(t, err)
	assert.True(t, cured)

	var got model.Player
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, 80, got.Health)
	assert.Equal(t, 0, got.DiseaseStat, "last disease gone, stat goes to zero")

	var count int64
	db.Model(&model.PlayerDisease{}).Where("player_id = ?", p.ID).Count(&count)
	assert.Zero(t, count)
}

func TestTryCure_HealthClampedAtCap(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db, zap.NewNop())
	p := seedPlayer(t, db, 95, 15, "Gripe")

	cured, err := svc.TryCure(context.Background(), p.ID, "Antigripal")
	require.NoError(t, err)
	assert.True(t, cured)

	var got model.Player
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, 100, got.Health)
}

func TestTryCure_StatDropWithRemainingDiseases(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db, zap.NewNop())
	p := seedPlayer(t, db, 50, 30, "Gripe", "Infecção")

	cured, err := svc.TryCure(context.Background(), p.ID, "Antigripal")
	require.NoError(t, err)
	assert.True(t, cured)

	var got model.Player
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, 15, got.DiseaseStat, "one disease left, stat drops by the fixed amount")

	var count int64
	db.Model(&model.PlayerDisease{}).Where("player_id = ?", p.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestTryCure_IneffectiveLeavesEverything(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db, zap.NewNop())
	// Player has Desnutrição / stat 15 and consumes an unrelated item.
	p := seedPlayer(t, db, 60, 15, "Desnutrição")

	cured, err := svc.TryCure(context.Background(), p.ID, "Pão Francês")
	require.NoError(t, err)
	assert.False(t, cured)

	// A real medicine for a disease the player does not have is just as
	// ineffective.
	cured, err = svc.TryCure(context.Background(), p.ID, "Antigripal")
	require.NoError(t, err)
	assert.False(t, cured)

	var got model.Player
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, 60, got.Health)
	assert.Equal(t, 15, got.DiseaseStat)

	var count int64
	db.Model(&model.PlayerDisease{}).Where("player_id = ?", p.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestContract_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db, zap.NewNop())
	p := seedPlayer(t, db, 80, 0)

	require.NoError(t, svc.Contract(context.Background(), p.ID, "Gripe", 15))
	require.NoError(t, svc.Contract(context.Background(), p.ID, "Gripe", 15))

	var count int64
	db.Model(&model.PlayerDisease{}).Where("player_id = ?", p.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	var got model.Player
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, 15, got.DiseaseStat)
}

func TestReconcile_RepairsStaleStat(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db, zap.NewNop())
	stale := seedPlayer(t, db, 80, 25)          // empty set, stale stat
	sick := seedPlayer(t, db, 80, 25, "Gripe")  // legit stat
	clean := seedPlayer(t, db, 80, 0)           // already consistent

	require.NoError(t, svc.Reconcile(context.Background(), stale.ID))
	require.NoError(t, svc.Reconcile(context.Background(), sick.ID))
	require.NoError(t, svc.Reconcile(context.Background(), clean.ID))

	// A fresh struct per lookup; reusing one would carry the previous
	// primary key into the next query's conditions.
	var repaired model.Player
	require.NoError(t, db.First(&repaired, stale.ID).Error)
	assert.Equal(t, 0, repaired.DiseaseStat)
	var untouched model.Player
	require.NoError(t, db.First(&untouched, sick.ID).Error)
	assert.Equal(t, 25, untouched.DiseaseStat)
}

func TestReconcileAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db, zap.NewNop())
	stale1 := seedPlayer(t, db, 80, 10)
	stale2 := seedPlayer(t, db, 80, 99)
	sick := seedPlayer(t, db, 80, 15, "Desnutrição")

	fixed, err := svc.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, fixed)

	for _, id := range []int64{stale1.ID, stale2.ID} {
		var got model.Player
		require.NoError(t, db.First(&got, id).Error)
		assert.Equal(t, 0, got.DiseaseStat)
	}
	var got model.Player
	require.NoError(t, db.First(&got, sick.ID).Error)
	assert.Equal(t, 15, got.DiseaseStat)
}

func TestCureFor(t *testing.T) {
	d, ok := CureFor("Complexo Vitamínico")
	assert.True(t, ok)
	assert.Equal(t, "Desnutrição", d)

	_, ok = CureFor("Cerveja")
	assert.False(t, ok)
	assert.True(t, IsMedicine("Analgésico"))
}
