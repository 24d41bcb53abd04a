// Package inventory projects raw inventory rows into display items and
// enforces the per-item stack cap on grants.
package inventory

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vidarp/server/cache"
	"github.com/vidarp/server/catalog"
	"github.com/vidarp/server/model"
)

// DisplayItem is one inventory row resolved against the catalog or the
// custom-item store, ready to send to the client.
type DisplayItem struct {
	RowID       int64      `json:"row_id"`
	ItemID      string     `json:"item_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	ItemType    string     `json:"item_type"`
	Qty         int        `json:"qty"`
	Sendable    bool       `json:"sendable"`
	Usable      bool       `json:"usable"`
	Ring        bool       `json:"ring"`
	SenderName  string     `json:"sender_name,omitempty"`
	ReceivedAt  *time.Time `json:"received_at,omitempty"`
}

const fallbackIcon = "item_generic"

// Projector resolves inventory rows. Catalog misses are logged and dropped;
// custom-item misses fall back to a synthesized placeholder so a deleted
// custom item never hides the row.
type Projector struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

func NewProjector(c *catalog.Catalog, logger *zap.Logger) *Projector {
	return &Projector{catalog: c, logger: logger}
}

// Project resolves one row. A nil result means the row is dropped.
func (p *Projector) Project(row *model.Inventory, custom map[string]*model.CustomItem) *DisplayItem {
	if row == nil || row.Qty <= 0 {
		return nil
	}

	if model.IsCustomItemID(row.ItemID) {
		ci := custom[row.ItemID]
		if ci == nil {
			// The custom item was deleted or the fetch missed it; show a
			// placeholder instead of losing the row.
			return &DisplayItem{
				RowID:      row.ID,
				ItemID:     row.ItemID,
				Name:       "Item personalizado",
				Icon:       fallbackIcon,
				ItemType:   model.ItemTypeObject,
				Qty:        row.Qty,
				Sendable:   true,
				SenderName: row.SenderName,
				ReceivedAt: row.ReceivedAt,
			}
		}
		return &DisplayItem{
			RowID:       row.ID,
			ItemID:      ci.ID,
			Name:        ci.Name,
			Description: ci.Description,
			Icon:        ci.Icon,
			ItemType:    ci.ItemType,
			Qty:         row.Qty,
			Sendable:    true,
			Usable:      ci.ItemType == model.ItemTypeFood || ci.ItemType == model.ItemTypeDrink,
			SenderName:  row.SenderName,
			ReceivedAt:  row.ReceivedAt,
		}
	}

	entry, ok := p.catalog.Lookup(row.ItemID)
	if !ok {
		p.logger.Warn("inventory row references unknown catalog item",
			zap.Int64("row_id", row.ID),
			zap.String("item_id", row.ItemID))
		return nil
	}
	it := entry.Item
	return &DisplayItem{
		RowID:       row.ID,
		ItemID:      it.ID,
		Name:        it.Name,
		Description: it.Description,
		Icon:        it.Icon,
		ItemType:    it.ItemType,
		Qty:         row.Qty,
		Sendable:    it.RelationshipType == "",
		Usable:      it.Effect != nil || it.ItemType == model.ItemTypeFood || it.ItemType == model.ItemTypeDrink,
		Ring:        it.RelationshipType != "",
		SenderName:  row.SenderName,
		ReceivedAt:  row.ReceivedAt,
	}
}

// ProjectAll resolves a slice of rows, dropping the unresolvable ones.
func (p *Projector) ProjectAll(rows []model.Inventory, custom map[string]*model.CustomItem) []*DisplayItem {
	out := make([]*DisplayItem, 0, len(rows))
	for i := range rows {
		if d := p.Project(&rows[i], custom); d != nil {
			out = append(out, d)
		}
	}
	return out
}

const customIndexTTL = 5 * time.Minute

// CustomIndex fetches the custom items referenced by a set of inventory
// rows. Only the owned IDs are fetched, never the whole table; resolved
// rows are kept in a short-TTL cache keyed per item.
type CustomIndex struct {
	db     *gorm.DB
	cache  cache.Cache
	logger *zap.Logger
}

func NewCustomIndex(db *gorm.DB, c cache.Cache, logger *zap.Logger) *CustomIndex {
	return &CustomIndex{db: db, cache: c, logger: logger}
}

// ForRows returns an id→item map covering every custom item ID present in
// rows. Cache hits are unioned with a single DB fetch for the misses.
func (ci *CustomIndex) ForRows(ctx context.Context, rows []model.Inventory) (map[string]*model.CustomItem, error) {
	index := make(map[string]*model.CustomItem)
	var missing []string
	seen := make(map[string]bool)
	for i := range rows {
		id := rows[i].ItemID
		if !model.IsCustomItemID(id) || seen[id] {
			continue
		}
		seen[id] = true
		if item := ci.fromCache(ctx, id); item != nil {
			index[id] = item
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return index, nil
	}

	var fetched []model.CustomItem
	if err := ci.db.WithContext(ctx).Where("id IN ?", missing).Find(&fetched).Error; err != nil {
		return nil, err
	}
	for i := range fetched {
		item := fetched[i]
		index[item.ID] = &item
		ci.toCache(ctx, &item)
	}
	return index, nil
}

func (ci *CustomIndex) fromCache(ctx context.Context, id string) *model.CustomItem {
	raw, err := ci.cache.Get(ctx, "customitem:"+id)
	if err != nil {
		return nil
	}
	var item model.CustomItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil
	}
	return &item
}

func (ci *CustomIndex) toCache(ctx context.Context, item *model.CustomItem) {
	raw, err := json.Marshal(item)
	if err != nil {
		return
	}
	if err := ci.cache.Set(ctx, "customitem:"+item.ID, string(raw), customIndexTTL); err != nil {
		ci.logger.Warn("custom item cache write failed",
			zap.String("item_id", item.ID), zap.Error(err))
	}
}
