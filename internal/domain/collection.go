package domain

import "fmt"

// CollectionType identifies one of the search collections the service
// maintains. The zero value is invalid.
type CollectionType int

const (
	CollectionProducts CollectionType = iota + 1
	CollectionCategories
	CollectionBrands
)

// AllCollectionTypes returns every collection type in indexing order.
func AllCollectionTypes() []CollectionType {
	return []CollectionType{CollectionProducts, CollectionCategories, CollectionBrands}
}

// ParseCollectionType resolves a collection type from its wire name.
func ParseCollectionType(s string) (CollectionType, error) {
	switch s {
	case "products":
		return CollectionProducts, nil
	case "categories":
		return CollectionCategories, nil
	case "brands":
		return CollectionBrands, nil
	default:
		return 0, fmt.Errorf("unknown collection type %q", s)
	}
}

// String returns the unprefixed collection base name.
func (t CollectionType) String() string {
	switch t {
	case CollectionProducts:
		return "products"
	case CollectionCategories:
		return "categories"
	case CollectionBrands:
		return "brands"
	default:
		return fmt.Sprintf("CollectionType(%d)", int(t))
	}
}

// Valid reports whether t is one of the known collection types.
func (t CollectionType) Valid() bool {
	switch t {
	case CollectionProducts, CollectionCategories, CollectionBrands:
		return true
	}
	return false
}

// CollectionField describes a single field in a collection schema.
type CollectionField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Facet    bool   `json:"facet,omitempty"`
	Sort     bool   `json:"sort,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// CollectionSchema is the schema payload sent to the engine when creating a
// collection. Name carries the deployment prefix, already applied by the
// engine client.
type CollectionSchema struct {
	Name                string            `json:"name"`
	Fields              []CollectionField `json:"fields"`
	DefaultSortingField string            `json:"default_sorting_field,omitempty"`
	NumDocuments        int64             `json:"num_documents,omitempty"`
}

// Schema returns the engine schema for the collection type. The field sets
// and flags are the indexing contract; changing them requires a reindex.
func (t CollectionType) Schema() CollectionSchema {
	switch t {
	case CollectionProducts:
		return CollectionSchema{
			Name: t.String(),
			Fields: []CollectionField{
				{Name: "id", Type: "string"},
				{Name: "name", Type: "string", Sort: true},
				{Name: "description", Type: "string", Optional: true},
				{Name: "short_description", Type: "string", Optional: true},
				{Name: "permalink", Type: "string"},
				{Name: "image", Type: "string", Optional: true},
				{Name: "price", Type: "float", Optional: true, Sort: true},
				{Name: "regular_price", Type: "float", Optional: true},
				{Name: "sale_price", Type: "float", Optional: true},
				{Name: "sku", Type: "string", Optional: true},
				{Name: "stock_status", Type: "string", Facet: true, Sort: true},
				{Name: "categories", Type: "string[]", Facet: true},
				{Name: "category_ids", Type: "int32[]", Facet: true},
				{Name: "brands", Type: "string[]", Facet: true},
				{Name: "brand_ids", Type: "int32[]", Facet: true},
				{Name: "tags", Type: "string[]", Facet: true},
				{Name: "status", Type: "string", Facet: true},
				{Name: "is_on_sale", Type: "bool", Facet: true, Sort: true},
				{Name: "sale_boost", Type: "float", Optional: true, Sort: true},
				{Name: "manufacturer", Type: "string", Optional: true},
				{Name: "stock_quantity", Type: "int32", Optional: true},
			},
			DefaultSortingField: "name",
		}
	case CollectionCategories:
		return CollectionSchema{
			Name: t.String(),
			Fields: []CollectionField{
				{Name: "id", Type: "string"},
				{Name: "name", Type: "string", Sort: true},
				{Name: "description", Type: "string", Optional: true},
				{Name: "permalink", Type: "string"},
				{Name: "image", Type: "string", Optional: true},
				{Name: "parent_id", Type: "int32", Optional: true},
				{Name: "count", Type: "int32", Optional: true},
			},
			DefaultSortingField: "name",
		}
	case CollectionBrands:
		return CollectionSchema{
			Name: t.String(),
			Fields: []CollectionField{
				{Name: "id", Type: "string"},
				{Name: "name", Type: "string", Sort: true},
				{Name: "description", Type: "string", Optional: true},
				{Name: "permalink", Type: "string"},
				{Name: "image", Type: "string", Optional: true},
				{Name: "count", Type: "int32", Optional: true},
			},
			DefaultSortingField: "name",
		}
	default:
		panic(fmt.Sprintf("schema for invalid collection type %d", int(t)))
	}
}
