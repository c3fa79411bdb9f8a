package model

// Category names.
const (
	CategoryTV       = "Telewizory"
	CategoryFridges  = "Lodowki"
	CategoryEspresso = "Ekspresy"
	CategoryChairs   = "Krzesla"
	CategoryNM       = "NM"
	CategoryCounters = "LADY"
)

// DefaultCategory is used when an item is saved without one.
const DefaultCategory = CategoryNM

// TVSizes are the screen-size buckets used in television ids, in allocation order.
var TVSizes = []string{"55", "65", "75", "85"}

// Category describes an item category and its id prefix.
type Category struct {
	Name   string   `json:"name"`
	Prefix string   `json:"prefix"`
	Sizes  []string `json:"sizes,omitempty"`
}

// Categories lists all categories in display order.
var Categories = []Category{
	{Name: CategoryTV, Prefix: "TV", Sizes: TVSizes},
	{Name: CategoryFridges, Prefix: "L"},
	{Name: CategoryEspresso, Prefix: "E"},
	{Name: CategoryChairs, Prefix: "K"},
	{Name: CategoryNM, Prefix: "NM"},
	{Name: CategoryCounters, Prefix: "A"},
}

// LookupCategory returns the category with the given name.
func LookupCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// ValidTVSize reports whether size is one of TVSizes.
func ValidTVSize(size string) bool {
	for _, s := range TVSizes {
		if s == size {
			return true
		}
	}
	return false
}
