package facets

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-foodiebot-backend/internal/domain"
)

func newFacetsDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:facets_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Product{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestExtract_MixedEncodings(t *testing.T) {
	db := newFacetsDB(t)

	// One product inserted through the canonical codec.
	if err := db.Create(&domain.Product{
		ProductID:   "FF001",
		Name:        "Smoky Veggie Stack",
		Category:    "Burgers",
		DietaryTags: domain.TagList{"vegetarian"},
		MoodTags:    domain.TagList{"comfort"},
		Allergens:   domain.TagList{"soy"},
		Ingredients: domain.TagList{"veggie patty"},
	}).Error; err != nil {
		t.Fatalf("seed canonical: %v", err)
	}

	// One legacy row written with bracket/quote text straight into the
	// columns, bypassing the codec.
	if err := db.Exec(`INSERT INTO products
		(product_id, name, category, description, ingredients, price, calories, prep_time,
		 dietary_tags, mood_tags, allergens, popularity_score, chef_special, limited_time, spice_level, image_prompt)
		VALUES ('FF002', 'Inferno Wings', 'Sides', '', '[''chicken'', ''ghost pepper glaze'']', 6, 540, 10,
		 'spicy, vegetarian', '[''adventurous'']', 'gluten', 93, 1, 0, 9, '')`).Error; err != nil {
		t.Fatalf("seed legacy: %v", err)
	}

	v, err := Extract(context.Background(), db)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if !reflect.DeepEqual(v.Categories, []string{"Burgers", "Sides"}) {
		t.Fatalf("categories: %v", v.Categories)
	}
	if !reflect.DeepEqual(v.DietaryTags, []string{"spicy", "vegetarian"}) {
		t.Fatalf("dietary tags not de-duplicated/merged: %v", v.DietaryTags)
	}
	if !reflect.DeepEqual(v.MoodTags, []string{"adventurous", "comfort"}) {
		t.Fatalf("mood tags: %v", v.MoodTags)
	}
	if !reflect.DeepEqual(v.Allergens, []string{"gluten", "soy"}) {
		t.Fatalf("allergens: %v", v.Allergens)
	}

	// No encoding artifacts may survive normalization.
	for _, set := range [][]string{v.MoodTags, v.DietaryTags, v.Allergens, v.Ingredients} {
		for _, tok := range set {
			if strings.ContainsAny(tok, `[]'"`) {
				t.Fatalf("encoding artifact survived: %q", tok)
			}
		}
	}
}

func TestResolveCategory(t *testing.T) {
	v := Vocabulary{Categories: []string{"Burgers", "Sides"}}
	if got := v.ResolveCategory("burgers"); got != "Burgers" {
		t.Fatalf("case-insensitive resolve failed: %q", got)
	}
	if got := v.ResolveCategory(" Sides "); got != "Sides" {
		t.Fatalf("trimmed resolve failed: %q", got)
	}
	if got := v.ResolveCategory("Sushi"); got != "" {
		t.Fatalf("unknown category must resolve empty, got %q", got)
	}
	if v.HasCategory("Sushi") || !v.HasCategory("sides") {
		t.Fatalf("HasCategory mismatch")
	}
}

func TestExtract_EmptyCatalog(t *testing.T) {
	db := newFacetsDB(t)
	v, err := Extract(context.Background(), db)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(v.Categories) != 0 || len(v.MoodTags) != 0 {
		t.Fatalf("expected empty vocabulary, got %+v", v)
	}
}
