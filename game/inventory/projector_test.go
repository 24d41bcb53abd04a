package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/vidarp/server/catalog"
	"github.com/vidarp/server/model"
	"github.com/vidarp/server/testutil"
)

func fixtureCatalog() *catalog.Catalog {
	return catalog.FromStores(
		&catalog.StoreDef{
			ID:   "padaria",
			Name: "Padaria",
			Items: []*catalog.Item{
				{ID: "pao_frances", Name: "Pão Francês", Price: 2, ItemType: model.ItemTypeFood,
					Effect: &catalog.Effect{Type: catalog.EffectHunger, Value: 10}},
			},
		},
		&catalog.StoreDef{
			ID:   "joalheria",
			Name: "Joalheria",
			Items: []*catalog.Item{
				{ID: "anel_ouro", Name: "Anel de Ouro", Price: 500, ItemType: model.ItemTypeObject,
					RelationshipType: "engagement"},
			},
		},
	)
}

func TestProject_CatalogItem(t *testing.T) {
	p := NewProjector(fixtureCatalog(), zap.NewNop())

	d := p.Project(&model.Inventory{ID: 7, PlayerID: 1, ItemID: "pao_frances", Qty: 3}, nil)
	require.NotNil(t, d)
	assert.Equal(t, "Pão Francês", d.Name)
	assert.Equal(t, 3, d.Qty)
	assert.True(t, d.Usable)
	assert.True(t, d.Sendable)
	assert.False(t, d.Ring)
}

func TestProject_RingItemNotSendable(t *testing.T) {
	p := NewProjector(fixtureCatalog(), zap.NewNop())

	d := p.Project(&model.Inventory{ID: 8, PlayerID: 1, ItemID: "anel_ouro", Qty: 1}, nil)
	require.NotNil(t, d)
	assert.True(t, d.Ring)
	assert.False(t, d.Sendable)
}

func TestProject_UnknownCatalogIDDropped(t *testing.T) {
	p := NewProjector(fixtureCatalog(), zap.NewNop())
	assert.Nil(t, p.Project(&model.Inventory{ID: 9, ItemID: "item_removido", Qty: 1}, nil))
}

func TestProject_CustomItem(t *testing.T) {
	p := NewProjector(fixtureCatalog(), zap.NewNop())
	custom := map[string]*model.CustomItem{
		"custom_abc": {ID: "custom_abc", Name: "Bolo da Vovó", ItemType: model.ItemTypeFood},
	}

	d := p.Project(&model.Inventory{ID: 10, ItemID: "custom_abc", Qty: 2}, custom)
	require.NotNil(t, d)
	assert.Equal(t, "Bolo da Vovó", d.Name)
	assert.True(t, d.Usable)
}

func TestProject_CustomItemFallback(t *testing.T) {
	p := NewProjector(fixtureCatalog(), zap.NewNop())

	d := p.Project(&model.Inventory{ID: 11, ItemID: "custom_sumiu", Qty: 1}, nil)
	require.NotNil(t, d, "missing custom item synthesizes a placeholder")
	assert.Equal(t, "Item personalizado", d.Name)
	assert.Equal(t, fallbackIcon, d.Icon)
}

func TestProjectAll_NeverPanics(t *testing.T) {
	p := NewProjector(fixtureCatalog(), zap.NewNop())
	rows := []model.Inventory{
		{ID: 1, ItemID: "pao_frances", Qty: 1},
		{ID: 2, ItemID: "item_removido", Qty: 1},
		{ID: 3, ItemID: "custom_sumiu", Qty: 1},
		{ID: 4, ItemID: "pao_frances", Qty: 0},
	}
	out := p.ProjectAll(rows, nil)
	assert.Len(t, out, 2, "resolvable rows project, the rest drop")
}

func TestCustomIndex_FetchesOnlyOwnedIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	idx := NewCustomIndex(db, c, zap.NewNop())

	require.NoError(t, db.Create(&model.CustomItem{
		ID: "custom_abc", Name: "Bolo da Vovó", ItemType: model.ItemTypeFood,
		Effects: datatypes.JSON(`{"type":"hunger","value":20}`), CreatorAccountID: 1,
	}).Error)
	require.NoError(t, db.Create(&model.CustomItem{
		ID: "custom_xyz", Name: "Quadro", ItemType: model.ItemTypeObject, CreatorAccountID: 1,
	}).Error)

	rows := []model.Inventory{
		{ItemID: "custom_abc", Qty: 1},
		{ItemID: "pao_frances", Qty: 1},
		{ItemID: "custom_nao_existe", Qty: 1},
	}
	index, err := idx.ForRows(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, index, 1, "only owned, existing custom IDs resolve")
	assert.Equal(t, "Bolo da Vovó", index["custom_abc"].Name)

	// Second call is served from the cache.
	index, err = idx.ForRows(context.Background(), rows[:1])
	require.NoError(t, err)
	assert.Equal(t, "Bolo da Vovó", index["custom_abc"].Name)
}
