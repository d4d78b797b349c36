package models

import (
	"time"

	"github.com/google/uuid"
)

// Listing represents a property listing
type Listing struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Description     *string   `json:"description,omitempty" db:"description"`
	LocationAddress string    `json:"location_address" db:"location_address"`
	Price           float64   `json:"price" db:"price"`
	PropertyType    string    `json:"property_type" db:"property_type"`
	Status          string    `json:"status" db:"status"`
	Images          []string  `json:"images" db:"images"`
	DateCreated     time.Time `json:"date_created" db:"date_created"`
	DateUpdated     time.Time `json:"date_updated" db:"date_updated"`
}

// NewListing creates a new Listing with matching creation and update times
func NewListing(title, locationAddress string, price float64, propertyType, status string) *Listing {
	now := time.Now().UTC()
	return &Listing{
		ID:              uuid.New(),
		Title:           title,
		LocationAddress: locationAddress,
		Price:           price,
		PropertyType:    propertyType,
		Status:          status,
		Images:          []string{},
		DateCreated:     now,
		DateUpdated:     now,
	}
}

// ListingPatch carries the fields of a partial update; nil fields are left unchanged
type ListingPatch struct {
	Title           *string
	Description     *string
	LocationAddress *string
	Price           *float64
	PropertyType    *string
	Status          *string
	Images          []string
}

// Apply copies the non-nil fields of p onto l and bumps DateUpdated
func (p ListingPatch) Apply(l *Listing, now time.Time) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = p.Description
	}
	if p.LocationAddress != nil {
		l.LocationAddress = *p.LocationAddress
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.PropertyType != nil {
		l.PropertyType = *p.PropertyType
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.Images != nil {
		l.Images = p.Images
	}
	l.DateUpdated = now
}
