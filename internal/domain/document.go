package domain

// ProductDocument is a product as stored in the search index. Price fields
// are pointers so absent prices are omitted rather than indexed as zero.
type ProductDocument struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"short_description"`
	Permalink        string   `json:"permalink"`
	Image            string   `json:"image"`
	Price            *float64 `json:"price,omitempty"`
	RegularPrice     *float64 `json:"regular_price,omitempty"`
	SalePrice        *float64 `json:"sale_price,omitempty"`
	SKU              string   `json:"sku"`
	StockStatus      string   `json:"stock_status"`
	StockQuantity    *int32   `json:"stock_quantity,omitempty"`
	Categories       []string `json:"categories"`
	CategoryIDs      []int32  `json:"category_ids"`
	Brands           []string `json:"brands"`
	BrandIDs         []int32  `json:"brand_ids"`
	Tags             []string `json:"tags"`
	Status           string   `json:"status"`
	IsOnSale         bool     `json:"is_on_sale"`
	SaleBoost        float64  `json:"sale_boost"`
	Manufacturer     string   `json:"manufacturer"`
}

// CategoryDocument is a category as stored in the search index.
type CategoryDocument struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Permalink   string `json:"permalink"`
	Image       string `json:"image"`
	ParentID    *int32 `json:"parent_id,omitempty"`
	Count       int32  `json:"count"`
}

// BrandDocument is a brand as stored in the search index.
type BrandDocument struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Permalink   string `json:"permalink"`
	Image       string `json:"image"`
	Count       int32  `json:"count"`
}
