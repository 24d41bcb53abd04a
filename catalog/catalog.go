package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Effect types understood by the resolver. EffectMultiple marks a composite
// effect whose Effects slice holds the sub-effects.
const (
	EffectHealth     = "health"
	EffectHunger     = "hunger"
	EffectMood       = "mood"
	EffectHappiness  = "happiness"
	EffectEnergy     = "energy"
	EffectAlcoholism = "alcoholism"
	EffectMultiple   = "multiple"
)

// Effect is one stat effect of an item. When Type is "multiple" the Effects
// slice holds the sub-effects and Value/Message are ignored.
type Effect struct {
	Type    string   `json:"type"`
	Value   int      `json:"value"`
	Message string   `json:"message,omitempty"`
	Effects []Effect `json:"effects,omitempty"`
}

// Item is one immutable catalog entry bundled with a store definition.
type Item struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Price            int64   `json:"price"`
	ItemType         string  `json:"item_type"` // food | drink | object
	Effect           *Effect `json:"effect,omitempty"`
	RelationshipType string  `json:"relationship_type,omitempty"` // ring items
	Icon             string  `json:"icon,omitempty"`
}

// StoreDef defines one store and its listing.
type StoreDef struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	HappinessStore bool    `json:"happiness_store"`
	Delivery       bool    `json:"delivery"`
	Items          []*Item `json:"items"`
}

// Entry is an item resolved through the flattened index, carrying its
// origin store.
type Entry struct {
	Item           *Item
	StoreID        string
	HappinessStore bool
}

// Catalog holds all store definitions and a flattened id→item index.
type Catalog struct {
	dataPath string
	Stores   []*StoreDef
	index    map[string]*Entry
}

// NewCatalog creates a Catalog rooted at the given data directory.
func NewCatalog(dataPath string) *Catalog {
	return &Catalog{dataPath: dataPath, index: make(map[string]*Entry)}
}

// FromStores builds a Catalog from in-memory definitions (tests, fixtures).
func FromStores(stores ...*StoreDef) *Catalog {
	c := &Catalog{index: make(map[string]*Entry)}
	c.Stores = stores
	c.buildIndex()
	return c
}

// Load reads every *.json store definition under the data path and builds
// the index. Files that fail to parse are reported but do not abort the
// load; a store with a bad file is simply absent.
func (c *Catalog) Load() error {
	entries, err := os.ReadDir(c.dataPath)
	if err != nil {
		return fmt.Errorf("catalog: read dir %s: %w", c.dataPath, err)
	}

	var loadErrs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(c.dataPath, e.Name()))
		if err != nil {
			loadErrs = append(loadErrs, fmt.Sprintf("%s: %v", e.Name(), err))
			continue
		}
		var def StoreDef
		if err := json.Unmarshal(raw, &def); err != nil {
			loadErrs = append(loadErrs, fmt.Sprintf("%s: %v", e.Name(), err))
			continue
		}
		c.Stores = append(c.Stores, &def)
	}
	c.buildIndex()

	if len(loadErrs) > 0 {
		return fmt.Errorf("catalog: %s", strings.Join(loadErrs, "; "))
	}
	return nil
}

func (c *Catalog) buildIndex() {
	for _, s := range c.Stores {
		for _, it := range s.Items {
			if it == nil || it.ID == "" {
				continue
			}
			// First definition wins; duplicate IDs across stores are a
			// data error we tolerate.
			if _, ok := c.index[it.ID]; ok {
				continue
			}
			c.index[it.ID] = &Entry{Item: it, StoreID: s.ID, HappinessStore: s.HappinessStore}
		}
	}
}

// Lookup resolves a catalog item by ID.
func (c *Catalog) Lookup(id string) (*Entry, bool) {
	e, ok := c.index[id]
	return e, ok
}

// Store returns the store definition with the given ID.
func (c *Catalog) Store(id string) (*StoreDef, bool) {
	for _, s := range c.Stores {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// Len reports the number of indexed items.
func (c *Catalog) Len() int { return len(c.index) }
