package store

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/magazyn/internal/idalloc"
	"github.com/erazemk/magazyn/internal/model"
	"github.com/erazemk/magazyn/internal/proxy"
)

// assignment is a column and the value written to it.
type assignment struct {
	col string
	val any
}

// itemAssignments returns the writable item columns except name. The
// deviceid column is left out when withDevice is false.
func itemAssignments(item *model.Item, now time.Time, withDevice bool) []assignment {
	category := item.Category
	if category == "" {
		category = model.DefaultCategory
	}
	updatedBy := item.UpdatedBy
	if updatedBy == "" {
		updatedBy = model.Unknown
	}
	deviceID := item.DeviceID
	if deviceID == "" {
		deviceID = model.Unknown
	}
	var departure any
	if item.DepartureDate != nil {
		departure = *item.DepartureDate
	}

	cols := []assignment{
		{"quantity", item.Quantity},
		{"ilosc", item.Count},
		{"description", item.Description},
		{"photo_url", item.PhotoURL},
		{"category", category},
		{"wysokosc", item.Height},
		{"szerokosc", item.Width},
		{"glebokosc", item.Depth},
		{"data_wyjazdu", departure},
		{"stan", item.InStock},
		{"linknadysk", item.DriveLink},
		{"updatedat", model.Timestamp{Time: now}},
		{"updatedby", updatedBy},
	}
	if withDevice {
		cols = append(cols, assignment{"deviceid", deviceID})
	}
	return append(cols, assignment{"stoisko", item.Stand})
}

func insertItemQuery(item *model.Item, now time.Time, withDevice bool) (string, []any) {
	cols := append([]assignment{{"name", item.Name}}, itemAssignments(item, now, withDevice)...)

	names := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	params := make([]any, len(cols))
	for i, c := range cols {
		names[i] = c.col
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		params[i] = c.val
	}

	query := fmt.Sprintf(`INSERT INTO items (%s) VALUES (%s) RETURNING *`,
		strings.Join(names, ", "), strings.Join(placeholders, ", "))
	return query, params
}

func updateItemQuery(name string, item *model.Item, now time.Time, withDevice bool) (string, []any) {
	cols := itemAssignments(item, now, withDevice)

	sets := make([]string, len(cols))
	params := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c.col, i+1)
		params = append(params, c.val)
	}
	params = append(params, name)

	query := fmt.Sprintf(`UPDATE items SET %s WHERE name = $%d RETURNING *`,
		strings.Join(sets, ", "), len(params))
	return query, params
}

// ListItems returns all items ordered by name, optionally limited to one
// category.
func ListItems(ctx context.Context, q proxy.Executor, category string) ([]model.Item, error) {
	var rows []proxy.Row
	var err error

	if category != "" {
		rows, err = q.Query(ctx, `SELECT * FROM items WHERE category = $1 ORDER BY name`, []any{category})
	} else {
		rows, err = q.Query(ctx, `SELECT * FROM items ORDER BY name`, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	return decodeRows[model.Item](rows)
}

// GetItem returns an item by name, or nil if it does not exist.
func GetItem(ctx context.Context, q proxy.Executor, name string) (*model.Item, error) {
	rows, err := q.Query(ctx, `SELECT * FROM items WHERE name = $1`, []any{name})
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return decodeFirst[model.Item](rows)
}

// AddItem inserts a new item and returns it as stored. Tables created
// before device tracking are written without the deviceid column.
func AddItem(ctx context.Context, q proxy.Executor, item *model.Item) (*model.Item, error) {
	now := time.Now().UTC()

	query, params := insertItemQuery(item, now, true)
	rows, err := q.Query(ctx, query, params)
	if err != nil && isMissingDeviceColumn(err) {
		slog.Warn("deviceid column not found, inserting without it", "item", item.Name)
		query, params = insertItemQuery(item, now, false)
		rows, err = q.Query(ctx, query, params)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrItemExists
		}
		return nil, fmt.Errorf("adding item: %w", err)
	}

	stored, err := decodeFirst[model.Item](rows)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("adding item: no row returned")
	}
	return stored, nil
}

// UpdateItem overwrites the item called name with item's fields. The name
// itself is not changed. Returns ErrNotFound if no such item exists.
func UpdateItem(ctx context.Context, q proxy.Executor, name string, item *model.Item) (*model.Item, error) {
	now := time.Now().UTC()

	query, params := updateItemQuery(name, item, now, true)
	rows, err := q.Query(ctx, query, params)
	if err != nil && isMissingDeviceColumn(err) {
		slog.Warn("deviceid column not found, updating without it", "item", name)
		query, params = updateItemQuery(name, item, now, false)
		rows, err = q.Query(ctx, query, params)
	}
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	stored, err := decodeFirst[model.Item](rows)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrNotFound
	}
	return stored, nil
}

// DeleteItem removes an item and its photo and returns the deleted item.
func DeleteItem(ctx context.Context, q proxy.Executor, name string) (*model.Item, error) {
	rows, err := q.Query(ctx, `DELETE FROM items WHERE name = $1 RETURNING *`, []any{name})
	if err != nil {
		return nil, fmt.Errorf("deleting item: %w", err)
	}

	deleted, err := decodeFirst[model.Item](rows)
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		return nil, ErrNotFound
	}

	if _, err := q.Query(ctx, `DELETE FROM item_photos WHERE name = $1`, []any{name}); err != nil {
		slog.Warn("failed to delete item photo", "item", name, "error", err)
	}

	return deleted, nil
}

// NextAvailableID returns the next free item name for category. For
// televisions, size selects the screen size.
func NextAvailableID(ctx context.Context, q proxy.Executor, category, size string) (string, error) {
	rows, err := q.Query(ctx, `SELECT name FROM items`, nil)
	if err != nil {
		return "", fmt.Errorf("listing item names: %w", err)
	}

	type nameRow struct {
		Name string `json:"name"`
	}
	decoded, err := decodeRows[nameRow](rows)
	if err != nil {
		return "", err
	}

	names := make([]string, len(decoded))
	for i, r := range decoded {
		names[i] = r.Name
	}

	return idalloc.Next(category, size, names)
}

// SetItemPhoto stores a photo for an item and points its photo_url at url.
func SetItemPhoto(ctx context.Context, q proxy.Executor, name string, data []byte, mime, url string) error {
	rows, err := q.Query(ctx,
		`UPDATE items SET photo_url = $1 WHERE name = $2 RETURNING name`,
		[]any{url, name},
	)
	if err != nil {
		return fmt.Errorf("setting photo url: %w", err)
	}
	if len(rows) == 0 {
		return ErrNotFound
	}

	_, err = q.Query(ctx,
		`INSERT INTO item_photos (name, data, mime) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET data = excluded.data, mime = excluded.mime`,
		[]any{name, base64.StdEncoding.EncodeToString(data), mime},
	)
	if err != nil {
		return fmt.Errorf("storing photo: %w", err)
	}
	return nil
}

// GetItemPhoto returns an item's photo and MIME type, or nil if it has none.
func GetItemPhoto(ctx context.Context, q proxy.Executor, name string) ([]byte, string, error) {
	rows, err := q.Query(ctx, `SELECT data, mime FROM item_photos WHERE name = $1`, []any{name})
	if err != nil {
		return nil, "", fmt.Errorf("getting photo: %w", err)
	}

	type photoRow struct {
		Data string `json:"data"`
		Mime string `json:"mime"`
	}
	photo, err := decodeFirst[photoRow](rows)
	if err != nil || photo == nil {
		return nil, "", err
	}

	data, err := base64.StdEncoding.DecodeString(photo.Data)
	if err != nil {
		return nil, "", fmt.Errorf("decoding photo: %w", err)
	}
	return data, photo.Mime, nil
}
