package domain

import "time"

type Product struct {
	ID          string
	Name        string
	Description string
	Price       float64
	Stock       int
	Category    string
	ImageURL    string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) View() ProductView {
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type ProductView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductUpdate enumerates the updatable product fields. A nil field is left
// unchanged.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	Category    *string
	ImageURL    *string
}
