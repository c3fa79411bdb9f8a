package store

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erazemk/magazyn/internal/db"
	"github.com/erazemk/magazyn/internal/idalloc"
	"github.com/erazemk/magazyn/internal/model"
	"github.com/erazemk/magazyn/internal/proxy"
)

func sampleItem(name, category string) *model.Item {
	d := model.NewDate(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	return &model.Item{
		Name:          name,
		Quantity:      "1 szt.",
		Count:         2,
		Description:   "Samsung QLED",
		Category:      category,
		Height:        71.5,
		Width:         123,
		Depth:         5.5,
		DepartureDate: &d,
		InStock:       true,
		DriveLink:     "https://drive.example/x",
		UpdatedBy:     "ala",
		DeviceID:      "DEV-ABC12345",
		Stand:         "B4",
	}
}

func assertSameItem(t *testing.T, got, want *model.Item) {
	t.Helper()

	if got.Name != want.Name || got.Quantity != want.Quantity || got.Count != want.Count ||
		got.Description != want.Description || got.Category != want.Category ||
		got.Height != want.Height || got.Width != want.Width || got.Depth != want.Depth ||
		got.InStock != want.InStock || got.DriveLink != want.DriveLink ||
		got.UpdatedBy != want.UpdatedBy || got.DeviceID != want.DeviceID || got.Stand != want.Stand {
		t.Errorf("item mismatch:\n got  %+v\n want %+v", got, want)
	}
	if (got.DepartureDate == nil) != (want.DepartureDate == nil) ||
		(got.DepartureDate != nil && got.DepartureDate.String() != want.DepartureDate.String()) {
		t.Errorf("departure date mismatch: got %v, want %v", got.DepartureDate, want.DepartureDate)
	}
}

func TestAddAndListItems(t *testing.T) {
	q := proxy.NewDBExecutor(db.NewTestDB(t))
	ctx := context.Background()

	want := sampleItem("TV55001", model.CategoryTV)
	stored, err := AddItem(ctx, q, want)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	assertSameItem(t, stored, want)
	if stored.UpdatedAt == nil || stored.UpdatedAt.IsZero() {
		t.Error("expected updatedat to be set")
	}

	AddItem(ctx, q, sampleItem("L001", model.CategoryFridges))

	tvs, err := ListItems(ctx, q, model.CategoryTV)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(tvs) != 1 {
		t.Fatalf("expected 1 television, got %d", len(tvs))
	}
	assertSameItem(t, &tvs[0], want)

	all, _ := ListItems(ctx, q, "")
	if len(all) != 2 || all[0].Name != "L001" {
		t.Errorf("expected 2 items ordered by name, got %+v", all)
	}
}

func TestAddItemDefaults(t *testing.T) {
	q := proxy.NewDBExecutor(db.NewTestDB(t))
	ctx := context.Background()

	stored, err := AddItem(ctx, q, &model.Item{Name: "NM001", Quantity: "1"})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if stored.Category != model.CategoryNM {
		t.Errorf("expected default category NM, got %q", stored.Category)
	}
	if stored.UpdatedBy != model.Unknown || stored.DeviceID != model.Unknown {
		t.Errorf("expected Unknown updater and device, got %q %q", stored.UpdatedBy, stored.DeviceID)
	}
	if stored.DepartureDate != nil {
		t.Errorf("expected no departure date, got %v", stored.DepartureDate)
	}
}

func TestAddItemDuplicate(t *testing.T) {
	q := proxy.NewDBExecutor(db.NewTestDB(t))
	ctx := context.Background()

	AddItem(ctx, q, sampleItem("K001", model.CategoryChairs))
	_, err := AddItem(ctx, q, sampleItem("K001", model.CategoryChairs))
	if !errors.Is(err, ErrItemExists) {
		t.Fatalf("expected ErrItemExists, got %v", err)
	}
}

func TestUpdateItem(t *testing.T) {
	q := proxy.NewDBExecutor(db.NewTestDB(t))
	ctx := context.Background()

	AddItem(ctx, q, sampleItem("E001", model.CategoryEspresso))

	changed := sampleItem("E001", model.CategoryEspresso)
	changed.Count = 7
	changed.InStock = false
	changed.DepartureDate = nil
	changed.UpdatedBy = "ola"

	updated, err := UpdateItem(ctx, q, "E001", changed)
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	assertSameItem(t, updated, changed)

	got, _ := GetItem(ctx, q, "E001")
	if got == nil || got.Count != 7 || got.UpdatedBy != "ola" {
		t.Errorf("expected update to persist, got %+v", got)
	}

	_, err = UpdateItem(ctx, q, "E999", changed)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteItem(t *testing.T) {
	q := proxy.NewDBExecutor(db.NewTestDB(t))
	ctx := context.Background()

	AddItem(ctx, q, sampleItem("A001", model.CategoryCounters))
	SetItemPhoto(ctx, q, "A001", []byte("jpeg"), "image/jpeg", "/api/items/A001/photo")

	deleted, err := DeleteItem(ctx, q, "A001")
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if deleted.Name != "A001" {
		t.Errorf("expected deleted item A001, got %q", deleted.Name)
	}

	if got, _ := GetItem(ctx, q, "A001"); got != nil {
		t.Error("expected item to be gone")
	}
	if data, _, _ := GetItemPhoto(ctx, q, "A001"); data != nil {
		t.Error("expected photo to be deleted with the item")
	}

	if _, err := DeleteItem(ctx, q, "A001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestItemsWithoutDeviceColumn(t *testing.T) {
	database := db.NewEmptyTestDB(t)
	q := proxy.NewDBExecutor(database)
	ctx := context.Background()

	// An items table from before device tracking.
	_, err := database.Exec(`CREATE TABLE items (
		name TEXT PRIMARY KEY,
		quantity TEXT NOT NULL DEFAULT '',
		ilosc INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT 'NM',
		wysokosc REAL NOT NULL DEFAULT 0,
		szerokosc REAL NOT NULL DEFAULT 0,
		glebokosc REAL NOT NULL DEFAULT 0,
		data_wyjazdu DATE,
		stan INTEGER NOT NULL DEFAULT 0,
		linknadysk TEXT NOT NULL DEFAULT '',
		updatedat TIMESTAMP,
		updatedby TEXT,
		stoisko TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		t.Fatal(err)
	}

	stored, err := AddItem(ctx, q, sampleItem("K001", model.CategoryChairs))
	if err != nil {
		t.Fatalf("AddItem without deviceid column: %v", err)
	}
	if stored.DeviceID != "" {
		t.Errorf("expected no device id, got %q", stored.DeviceID)
	}
	if stored.UpdatedBy != "ala" {
		t.Errorf("expected updatedby ala, got %q", stored.UpdatedBy)
	}

	changed := sampleItem("K001", model.CategoryChairs)
	changed.Count = 9
	updated, err := UpdateItem(ctx, q, "K001", changed)
	if err != nil {
		t.Fatalf("UpdateItem without deviceid column: %v", err)
	}
	if updated.Count != 9 {
		t.Errorf("expected count 9, got %d", updated.Count)
	}
}

func TestNextAvailableID(t *testing.T) {
	q := proxy.NewDBExecutor(db.NewTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"L001", "L002", "L004", "TV55001"} {
		AddItem(ctx, q, &model.Item{Name: name})
	}

	id, err := NextAvailableID(ctx, q, model.CategoryFridges, "")
	if err != nil {
		t.Fatalf("NextAvailableID: %v", err)
	}
	if id != "L003" {
		t.Errorf("expected L003, got %q", id)
	}

	id, err = NextAvailableID(ctx, q, model.CategoryTV, "55")
	if err != nil {
		t.Fatalf("NextAvailableID: %v", err)
	}
	if id != "TV55002" {
		t.Errorf("expected TV55002, got %q", id)
	}

	_, err = NextAvailableID(ctx, q, "Rowery", "")
	if !errors.Is(err, idalloc.ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestItemPhoto(t *testing.T) {
	q := proxy.NewDBExecutor(db.NewTestDB(t))
	ctx := context.Background()

	AddItem(ctx, q, sampleItem("E001", model.CategoryEspresso))

	data, mime, err := GetItemPhoto(ctx, q, "E001")
	if err != nil || data != nil || mime != "" {
		t.Fatalf("expected no photo, got %q %q %v", data, mime, err)
	}

	if err := SetItemPhoto(ctx, q, "E001", []byte{0xff, 0xd8, 0x00}, "image/jpeg", "/api/items/E001/photo"); err != nil {
		t.Fatalf("SetItemPhoto: %v", err)
	}
	if err := SetItemPhoto(ctx, q, "E001", []byte{0xff, 0xd8, 0x01}, "image/jpeg", "/api/items/E001/photo"); err != nil {
		t.Fatalf("replacing photo: %v", err)
	}

	data, mime, err = GetItemPhoto(ctx, q, "E001")
	if err != nil {
		t.Fatalf("GetItemPhoto: %v", err)
	}
	if string(data) != string([]byte{0xff, 0xd8, 0x01}) || mime != "image/jpeg" {
		t.Errorf("unexpected photo %v %q", data, mime)
	}

	item, _ := GetItem(ctx, q, "E001")
	if item.PhotoURL != "/api/items/E001/photo" {
		t.Errorf("expected photo_url to be set, got %q", item.PhotoURL)
	}

	err = SetItemPhoto(ctx, q, "E404", []byte{1}, "image/jpeg", "/api/items/E404/photo")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing item, got %v", err)
	}
}

func TestItemsThroughProxy(t *testing.T) {
	handler := &proxy.Handler{
		Exec:        proxy.NewDBExecutor(db.NewTestDB(t)),
		HealthQuery: db.HealthQuery(db.SQLite),
	}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	q := proxy.NewClient(srv.URL, "")
	ctx := context.Background()

	want := sampleItem("TV65001", model.CategoryTV)
	if _, err := AddItem(ctx, q, want); err != nil {
		t.Fatalf("AddItem through proxy: %v", err)
	}

	items, err := ListItems(ctx, q, model.CategoryTV)
	if err != nil {
		t.Fatalf("ListItems through proxy: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	assertSameItem(t, &items[0], want)

	if _, err := AddItem(ctx, q, want); !errors.Is(err, ErrItemExists) {
		t.Errorf("expected ErrItemExists through proxy, got %v", err)
	}

	if _, err := RegisterUser(ctx, q, "ala", "kot", ""); err != nil {
		t.Fatalf("RegisterUser through proxy: %v", err)
	}
	if _, err := RegisterUser(ctx, q, "ala", "kot", ""); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken through proxy, got %v", err)
	}
	user, err := LoginUser(ctx, q, "ala", "kot")
	if err != nil || user == nil || user.ID == 0 {
		t.Errorf("expected login through proxy, got %+v %v", user, err)
	}
}
