package catalog

import "time"

// Brand is a product brand. Inactive brands keep the time they were
// switched off.
type Brand struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Status        bool       `json:"status"`
	InactivatedAt *time.Time `json:"inactivated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Category is a top-level product category.
type Category struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	HasSubcategory bool      `json:"has_subcategory"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Subcategory is filed under exactly one category.
type Subcategory struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BrandPatch holds the optional fields of a brand update.
type BrandPatch struct {
	Title  *string `json:"title,omitempty"`
	Status *bool   `json:"status,omitempty"`
}

// CategoryPatch holds the optional fields of a category update.
type CategoryPatch struct {
	Name           *string `json:"name,omitempty"`
	Description    *string `json:"description,omitempty"`
	HasSubcategory *bool   `json:"has_subcategory,omitempty"`
}

// SubcategoryPatch holds the optional fields of a subcategory update.
type SubcategoryPatch struct {
	CategoryID  *string `json:"category_id,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}
