package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is the persisted catalog entity.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductRequest is the inbound shape for create and update. The id is only
// honoured on create; on update the path id wins.
type ProductRequest struct {
	ID          string          `json:"id"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// Prices must fit a Decimal128 (Mongo) and a DynamoDB number.
const (
	MaxPriceScale  = 18
	MaxPriceDigits = 34
)

// Validate rejects a blank name and a negative or unrepresentable price.
func (r ProductRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if r.Price.IsNegative() {
		return &ValidationError{Field: "price", Message: "price must not be negative"}
	}
	if r.Price.Exponent() < -MaxPriceScale {
		return &ValidationError{Field: "price", Message: fmt.Sprintf("price must have at most %d decimal places", MaxPriceScale)}
	}
	if priceDigits(r.Price) > MaxPriceDigits {
		return &ValidationError{Field: "price", Message: fmt.Sprintf("price must have at most %d digits", MaxPriceDigits)}
	}
	return nil
}

// priceDigits counts the digits String() would print, trailing zeros of a
// positive exponent included.
func priceDigits(d decimal.Decimal) int {
	digits := d.NumDigits()
	if exp := int64(d.Exponent()); exp > 0 {
		return digits + int(min(exp, MaxPriceDigits+1))
	}
	return digits
}

// ToProduct builds a new entity from the request, copying the id verbatim.
func (r ProductRequest) ToProduct() *Product {
	return &Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
	}
}

// Apply overwrites the mutable fields of p. The id is never touched.
func (r ProductRequest) Apply(p *Product) {
	p.Name = r.Name
	p.Description = r.Description
	p.Price = r.Price
}

func ToProductResponse(p *Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
	}
}
