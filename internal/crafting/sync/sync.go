// Package sync loads ArtifactsMMO game data into the knowledge base, either
// from JSON dumps on disk or directly from the game API.
package sync

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/sync/errgroup"

	"github.com/rsned/artifactsmmo-crafting-planner/internal/crafting/db"
	"github.com/rsned/artifactsmmo-crafting-planner/internal/logger"
	"github.com/rsned/artifactsmmo-crafting-planner/pkg/crafting"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Catalog is the subset of the API client used for a full sync.
type Catalog interface {
	ListItems(ctx context.Context) ([]crafting.Item, error)
	ListResources(ctx context.Context) ([]crafting.Resource, error)
	ListMaps(ctx context.Context) ([]crafting.MapLocation, error)
}

// Syncer handles data synchronization into the knowledge base.
type Syncer struct {
	db      *db.DB
	schemas map[string]*jsonschema.Schema
}

// NewSyncer creates a new Syncer. It fails only if an embedded schema is
// malformed.
func NewSyncer(database *db.DB) (*Syncer, error) {
	s := &Syncer{db: database, schemas: make(map[string]*jsonschema.Schema)}
	for _, kind := range []string{"items", "resources", "workshops", "maps"} {
		raw, err := schemaFS.ReadFile("schemas/" + kind + ".json")
		if err != nil {
			return nil, fmt.Errorf("reading %s schema: %w", kind, err)
		}
		schema, err := jsonschema.CompileString(kind+".json", string(raw))
		if err != nil {
			return nil, fmt.Errorf("compiling %s schema: %w", kind, err)
		}
		s.schemas[kind] = schema
	}
	return s, nil
}

// ItemImport is the dump format of an item. Older dumps name the recipe
// craft_data instead of craft.
type ItemImport struct {
	Code      string       `json:"code"`
	Name      string       `json:"name"`
	Level     int          `json:"level"`
	Type      string       `json:"type"`
	Subtype   string       `json:"subtype"`
	Craft     *CraftImport `json:"craft"`
	CraftData *CraftImport `json:"craft_data"`
}

// CraftImport is the dump format of a recipe.
type CraftImport struct {
	Skill    string                `json:"skill"`
	Level    int                   `json:"level"`
	Quantity int                   `json:"quantity"`
	Items    []crafting.RecipeItem `json:"items"`
}

// WorkshopImport is the dump format of a workshop or legacy facility.
type WorkshopImport struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	CraftSkill   string `json:"craft_skill"`
	FacilityType string `json:"facility_type"`
}

// MapImport is the dump format of a map tile.
type MapImport struct {
	Name    string `json:"name"`
	Skin    string `json:"skin"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Content *struct {
		Type string `json:"type"`
		Code string `json:"code"`
	} `json:"content"`
}

// ImportItemsFromFile imports items and their recipes from a JSON dump.
func (s *Syncer) ImportItemsFromFile(ctx context.Context, path string) error {
	var imports []ItemImport
	if err := s.load(ctx, path, "items", &imports); err != nil {
		return err
	}

	items := make([]crafting.Item, 0, len(imports))
	for _, imp := range imports {
		items = append(items, transformItem(imp))
	}

	if err := db.NewItemStore(s.db).BulkInsertItems(ctx, items); err != nil {
		return fmt.Errorf("inserting items: %w", err)
	}

	return s.recordSync(ctx, "items", len(items))
}

// ImportResourcesFromFile imports gatherable resources from a JSON dump.
func (s *Syncer) ImportResourcesFromFile(ctx context.Context, path string) error {
	var resources []crafting.Resource
	if err := s.load(ctx, path, "resources", &resources); err != nil {
		return err
	}

	if err := db.NewResourceStore(s.db).BulkInsertResources(ctx, resources); err != nil {
		return fmt.Errorf("inserting resources: %w", err)
	}

	return s.recordSync(ctx, "resources", len(resources))
}

// ImportWorkshopsFromFile imports workshops from a JSON dump. The dump is
// either a plain array or an object with "workshops" and legacy
// "facilities" arrays.
func (s *Syncer) ImportWorkshopsFromFile(ctx context.Context, path string) error {
	data, err := s.read(ctx, path, "workshops")
	if err != nil {
		return err
	}

	var workshops []crafting.Workshop
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var imports []WorkshopImport
		if err := json.Unmarshal(data, &imports); err != nil {
			return fmt.Errorf("parsing JSON: %w", err)
		}
		workshops = transformWorkshops(imports, false)
	} else {
		var doc struct {
			Workshops  []WorkshopImport `json:"workshops"`
			Facilities []WorkshopImport `json:"facilities"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing JSON: %w", err)
		}
		workshops = append(transformWorkshops(doc.Workshops, false), transformWorkshops(doc.Facilities, true)...)
	}

	if err := db.NewWorkshopStore(s.db).BulkInsertWorkshops(ctx, workshops); err != nil {
		return fmt.Errorf("inserting workshops: %w", err)
	}

	return s.recordSync(ctx, "workshops", len(workshops))
}

// ImportMapsFromFile imports map tiles from a JSON dump.
func (s *Syncer) ImportMapsFromFile(ctx context.Context, path string) error {
	var imports []MapImport
	if err := s.load(ctx, path, "maps", &imports); err != nil {
		return err
	}

	tiles := make([]crafting.MapLocation, 0, len(imports))
	for _, imp := range imports {
		tile := crafting.MapLocation{Name: imp.Name, Skin: imp.Skin, X: imp.X, Y: imp.Y}
		if imp.Content != nil {
			tile.ContentType = imp.Content.Type
			tile.ContentCode = imp.Content.Code
		}
		tiles = append(tiles, tile)
	}

	if err := db.NewMapStore(s.db).BulkInsertTiles(ctx, tiles); err != nil {
		return fmt.Errorf("inserting map tiles: %w", err)
	}

	return s.recordSync(ctx, "maps", len(tiles))
}

// SyncFromAPI pulls items, resources and map tiles from the game API and
// stores them. Workshops are derived from the workshop tiles.
func (s *Syncer) SyncFromAPI(ctx context.Context, catalog Catalog) error {
	var (
		items     []crafting.Item
		resources []crafting.Resource
		tiles     []crafting.MapLocation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = catalog.ListItems(gctx)
		if err != nil {
			return fmt.Errorf("listing items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		resources, err = catalog.ListResources(gctx)
		if err != nil {
			return fmt.Errorf("listing resources: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		tiles, err = catalog.ListMaps(gctx)
		if err != nil {
			return fmt.Errorf("listing maps: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	workshops := workshopsFromTiles(tiles)

	if err := db.NewItemStore(s.db).BulkInsertItems(ctx, items); err != nil {
		return fmt.Errorf("inserting items: %w", err)
	}
	if err := db.NewResourceStore(s.db).BulkInsertResources(ctx, resources); err != nil {
		return fmt.Errorf("inserting resources: %w", err)
	}
	if err := db.NewMapStore(s.db).BulkInsertTiles(ctx, tiles); err != nil {
		return fmt.Errorf("inserting map tiles: %w", err)
	}
	if err := db.NewWorkshopStore(s.db).BulkInsertWorkshops(ctx, workshops); err != nil {
		return fmt.Errorf("inserting workshops: %w", err)
	}

	for kind, n := range map[string]int{
		"items":     len(items),
		"resources": len(resources),
		"maps":      len(tiles),
		"workshops": len(workshops),
	} {
		if err := s.recordSync(ctx, kind, n); err != nil {
			return err
		}
	}

	logger.FromContext(ctx).Info("synced from API",
		"items", len(items),
		"resources", len(resources),
		"tiles", len(tiles),
		"workshops", len(workshops))
	return nil
}

// ClearAll removes all data from the database.
func (s *Syncer) ClearAll(ctx context.Context) error {
	if err := db.NewItemStore(s.db).ClearItems(ctx); err != nil {
		return err
	}
	if err := db.NewResourceStore(s.db).ClearResources(ctx); err != nil {
		return err
	}
	if err := db.NewWorkshopStore(s.db).ClearWorkshops(ctx); err != nil {
		return err
	}
	if err := db.NewMapStore(s.db).ClearMaps(ctx); err != nil {
		return err
	}
	return nil
}

// load reads, validates and decodes a dump into out.
func (s *Syncer) load(ctx context.Context, path, kind string, out any) error {
	data, err := s.read(ctx, path, kind)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	return nil
}

// read returns the dump contents after checking them against the schema
// for kind. Files ending in .zst are zstd-decompressed first.
func (s *Syncer) read(ctx context.Context, path, kind string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	logger.FromContext(ctx).Debug("read dump", "kind", kind, "path", path, "size", humanize.Bytes(uint64(len(data))))

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if err := s.schemas[kind].Validate(doc); err != nil {
		return nil, fmt.Errorf("invalid %s dump: %w", kind, err)
	}

	return data, nil
}

func (s *Syncer) recordSync(ctx context.Context, kind string, count int) error {
	if err := s.db.SetSyncMetadata(ctx, kind+"_last_sync", time.Now().Format(time.RFC3339)); err != nil {
		return err
	}
	return s.db.SetSyncMetadata(ctx, kind+"_count", fmt.Sprintf("%d", count))
}

// transformItem converts import format to domain format.
func transformItem(imp ItemImport) crafting.Item {
	item := crafting.Item{
		Code:    imp.Code,
		Name:    imp.Name,
		Level:   imp.Level,
		Type:    imp.Type,
		Subtype: imp.Subtype,
	}

	craft := imp.Craft
	if craft == nil {
		craft = imp.CraftData
	}
	if craft == nil || craft.Skill == "" {
		return item
	}

	item.Craft = &crafting.CraftRecipe{
		Skill:    craft.Skill,
		Level:    craft.Level,
		Quantity: craft.Quantity,
		Items:    craft.Items,
	}
	if item.Craft.Quantity <= 0 {
		item.Craft.Quantity = 1
	}
	return item
}

func transformWorkshops(imports []WorkshopImport, legacy bool) []crafting.Workshop {
	workshops := make([]crafting.Workshop, 0, len(imports))
	for _, imp := range imports {
		w := crafting.Workshop{
			Code:         imp.Code,
			Name:         imp.Name,
			CraftSkill:   imp.CraftSkill,
			FacilityType: imp.FacilityType,
			Legacy:       legacy,
		}
		if w.FacilityType == "" {
			w.FacilityType = crafting.FacilityTypeWorkshop
		}
		workshops = append(workshops, w)
	}
	return workshops
}

// workshopsFromTiles derives one workshop per distinct workshop tile code.
// On the live map the content code of a workshop is its crafting skill.
func workshopsFromTiles(tiles []crafting.MapLocation) []crafting.Workshop {
	seen := make(map[string]bool)
	var workshops []crafting.Workshop
	for _, t := range tiles {
		if t.ContentType != crafting.FacilityTypeWorkshop || t.ContentCode == "" || seen[t.ContentCode] {
			continue
		}
		seen[t.ContentCode] = true
		workshops = append(workshops, crafting.Workshop{
			Code:         t.ContentCode,
			Name:         t.Name,
			CraftSkill:   t.ContentCode,
			FacilityType: crafting.FacilityTypeWorkshop,
		})
	}
	return workshops
}
