package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Item is a physical item. Its name is the unique id and encodes the
// category and sequence number (e.g. TV55003, L012).
type Item struct {
	Name          string     `json:"name"`
	Quantity      string     `json:"quantity"`
	Count         Amount     `json:"ilosc"`
	Description   string     `json:"description"`
	PhotoURL      string     `json:"photo_url"`
	Category      string     `json:"category"`
	Height        Measure    `json:"wysokosc"`
	Width         Measure    `json:"szerokosc"`
	Depth         Measure    `json:"glebokosc"`
	DepartureDate *Date      `json:"data_wyjazdu"`
	InStock       Flag       `json:"stan"`
	DriveLink     string     `json:"linknadysk"`
	UpdatedAt     *Timestamp `json:"updatedat,omitempty"`
	UpdatedBy     string     `json:"updatedby,omitempty"`
	DeviceID      string     `json:"deviceid,omitempty"`
	Stand         string     `json:"stoisko"`
}

// UnmarshalJSON decodes an item, treating an empty departure date as none.
func (it *Item) UnmarshalJSON(b []byte) error {
	type plain Item
	aux := struct {
		*plain
		DepartureDate json.RawMessage `json:"data_wyjazdu"`
	}{plain: (*plain)(it)}

	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.DepartureDate != nil {
		d, err := parseNullableDate(aux.DepartureDate)
		if err != nil {
			return err
		}
		it.DepartureDate = d
	}
	return nil
}

// Unknown is recorded when the updater or device is not known.
const Unknown = "Unknown"

// Matches reports whether the item matches a free-text search query. The
// name, description and non-zero dimensions are searched case-insensitively.
func (it *Item) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(it.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(it.Description), q) {
		return true
	}
	for _, m := range []Measure{it.Height, it.Width, it.Depth} {
		if m != 0 && strings.Contains(strconv.FormatFloat(float64(m), 'f', -1, 64), q) {
			return true
		}
	}
	return false
}

// FilterItems returns the items matching query and, when inStock is non-nil,
// the given stock flag.
func FilterItems(items []Item, query string, inStock *bool) []Item {
	out := make([]Item, 0, len(items))
	for i := range items {
		if inStock != nil && bool(items[i].InStock) != *inStock {
			continue
		}
		if !items[i].Matches(query) {
			continue
		}
		out = append(out, items[i])
	}
	return out
}
