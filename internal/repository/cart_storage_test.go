package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/framestock/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func sampleItems() []models.CartLineItem {
	return []models.CartLineItem{
		{
			ID:       "photo-42",
			Product:  models.ProductSnapshot{ID: "42", Type: "photo", Title: "Harbor", Image: "/img/42.jpg", Price: "10.00"},
			Quantity: 2,
		},
		{
			ID:       "print-9-1a2b3c4d",
			Product:  models.ProductSnapshot{ID: "9", Type: "print", Title: "Dunes", PriceHD: "25.50"},
			Quantity: 1,
			Options:  models.CartOptions{"size": "A3", "physical": "true"},
		},
	}
}

func assertSameItems(t *testing.T, got, want []models.CartLineItem) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len want %d got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Quantity != want[i].Quantity || got[i].Product != want[i].Product {
			t.Fatalf("item %d mismatch: got %+v want %+v", i, got[i], want[i])
		}
		if len(got[i].Options) != len(want[i].Options) {
			t.Fatalf("item %d options mismatch: got %v want %v", i, got[i].Options, want[i].Options)
		}
		for k, v := range want[i].Options {
			if got[i].Options[k] != v {
				t.Fatalf("item %d option %s mismatch", i, k)
			}
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload, err := EncodeCartRecord(sampleItems())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	var probe map[string]interface{}
	if err := json.Unmarshal(payload, &probe); err != nil {
		t.Fatalf("payload should be json: %v", err)
	}
	if probe["version"] != float64(1) {
		t.Fatalf("payload should carry version 1, got %v", probe["version"])
	}
	items, err := DecodeCartRecord(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assertSameItems(t, items, sampleItems())
}

func TestDecodeLegacyArrayAndNumericPrice(t *testing.T) {
	raw := []byte(`[{"id":"photo-42","product":{"id":"42","type":"photo","price":10.5},"quantity":1}]`)
	items, err := DecodeCartRecord(raw)
	if err != nil {
		t.Fatalf("decode legacy failed: %v", err)
	}
	if len(items) != 1 || items[0].Product.Price != "10.5" {
		t.Fatalf("unexpected legacy decode: %+v", items)
	}
}

func TestDecodeNormalizesEntries(t *testing.T) {
	raw := []byte(`{"version":1,"items":[
		{"id":"photo-42","product":{"id":"42"},"quantity":1},
		{"id":"","product":{},"quantity":3},
		{"id":"video-7","product":{"id":"7"},"quantity":0},
		{"id":"photo-42","product":{"id":"42"},"quantity":2}
	]}`)
	items, err := DecodeCartRecord(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "photo-42" || items[0].Quantity != 3 {
		t.Fatalf("unexpected normalization: %+v", items)
	}
}

func TestDecodeSaturatesMergedQuantity(t *testing.T) {
	raw := []byte(fmt.Sprintf(`{"version":1,"items":[
		{"id":"photo-42","product":{"id":"42","price":"10.00"},"quantity":%[1]d},
		{"id":"photo-42","product":{"id":"42","price":"10.00"},"quantity":%[1]d},
		{"id":"photo-7","product":{"id":"7"},"quantity":-5}
	]}`, math.MaxInt))
	items, err := DecodeCartRecord(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(items) != 1 || items[0].Quantity != math.MaxInt {
		t.Fatalf("duplicate merge should saturate, got %+v", items)
	}
}

func TestNormalizeCartItemsDropsNonPositive(t *testing.T) {
	items := NormalizeCartItems([]models.CartLineItem{
		{ID: "photo-1", Quantity: -3},
		{ID: "photo-2", Quantity: 0},
		{ID: "photo-3", Quantity: 2},
		{ID: "photo-3", Quantity: -1},
	})
	if len(items) != 1 || items[0].ID != "photo-3" || items[0].Quantity != 2 {
		t.Fatalf("unexpected normalization: %+v", items)
	}
}

func TestDecodeRejectsCorruptRecords(t *testing.T) {
	for _, raw := range []string{"{broken", "42", `"text"`, `{"version":99,"items":[]}`} {
		if _, err := DecodeCartRecord([]byte(raw)); !errors.Is(err, ErrCartRecordInvalid) {
			t.Fatalf("%q want ErrCartRecordInvalid got %v", raw, err)
		}
	}
	items, err := DecodeCartRecord([]byte("   "))
	if err != nil || items != nil {
		t.Fatalf("blank record should decode as empty, got %v %v", items, err)
	}
}

func TestNamespaceKey(t *testing.T) {
	if got := NamespaceKey("", "abc"); got != "cart:abc" {
		t.Fatalf("unexpected key %s", got)
	}
	if got := NamespaceKey("bag", " abc "); got != "bag:abc" {
		t.Fatalf("unexpected key %s", got)
	}
}

func TestFileCartStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	storage := NewFileCartStorage(dir, "cart:session/../1")
	if filepath.Dir(storage.Path()) != dir {
		t.Fatalf("file must stay inside dir: %s", storage.Path())
	}

	items, err := storage.Load(ctx)
	if err != nil || items != nil {
		t.Fatalf("missing file should load empty, got %v %v", items, err)
	}
	if err := storage.Save(ctx, sampleItems()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	items, err = storage.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	assertSameItems(t, items, sampleItems())

	if err := os.WriteFile(storage.Path(), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write garbage failed: %v", err)
	}
	if _, err := storage.Load(ctx); !errors.Is(err, ErrCartRecordInvalid) {
		t.Fatalf("garbage file want ErrCartRecordInvalid got %v", err)
	}
}

func TestGormCartStorageUpsert(t *testing.T) {
	ctx := context.Background()
	db := setupRepositoryTestDB(t)
	storage := NewGormCartStorage(db, NamespaceKey("cart", "s1"))

	items, err := storage.Load(ctx)
	if err != nil || items != nil {
		t.Fatalf("missing record should load empty, got %v %v", items, err)
	}
	if err := storage.Save(ctx, sampleItems()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := storage.Save(ctx, sampleItems()[:1]); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.CartRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("upsert should keep one row, got %d", count)
	}
	items, err = storage.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	assertSameItems(t, items, sampleItems()[:1])

	other := NewGormCartStorage(db, NamespaceKey("cart", "s2"))
	if items, _ := other.Load(ctx); len(items) != 0 {
		t.Fatalf("other namespace should be empty")
	}
}

func TestMemoryCartStorageSharesBlobs(t *testing.T) {
	ctx := context.Background()
	blobs := NewMemoryBlobs()
	if err := NewMemoryCartStorage(blobs, "cart:a").Save(ctx, sampleItems()); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	items, err := NewMemoryCartStorage(blobs, "cart:a").Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	assertSameItems(t, items, sampleItems())
}
