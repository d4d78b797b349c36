package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/upb/property-listings/models"
	"github.com/upb/property-listings/repositories"
	"go.uber.org/zap"
)

const listingColumns = `id, title, description, location_address, price, property_type, status, images, date_created, date_updated`

// ListingRepository implements the repositories.ListingRepository interface
type ListingRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *DB, logger *zap.Logger) repositories.ListingRepository {
	return &ListingRepository{db: db, logger: logger}
}

// List retrieves all listings ordered by date_updated, newest first
func (r *ListingRepository) List(ctx context.Context) ([]*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings ORDER BY date_updated DESC`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	listings := make([]*models.Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listing rows: %w", err)
	}

	return listings, nil
}

// GetByID retrieves a listing by ID
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	listing, err := scanListing(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("listing %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

// Create inserts a new listing
func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	query := `
		INSERT INTO listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		listing.ID,
		listing.Title,
		listing.Description,
		listing.LocationAddress,
		listing.Price,
		listing.PropertyType,
		listing.Status,
		pq.Array(listing.Images),
		listing.DateCreated,
		listing.DateUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	r.logger.Debug("listing created", zap.String("id", listing.ID.String()))
	return nil
}

// Update overwrites the mutable fields of a listing
func (r *ListingRepository) Update(ctx context.Context, listing *models.Listing) error {
	query := `
		UPDATE listings
		SET title = $2,
		    description = $3,
		    location_address = $4,
		    price = $5,
		    property_type = $6,
		    status = $7,
		    images = $8,
		    date_updated = $9
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		listing.ID,
		listing.Title,
		listing.Description,
		listing.LocationAddress,
		listing.Price,
		listing.PropertyType,
		listing.Status,
		pq.Array(listing.Images),
		listing.DateUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("listing %s: %w", listing.ID, repositories.ErrNotFound)
	}

	r.logger.Debug("listing updated", zap.String("id", listing.ID.String()))
	return nil
}

// Delete deletes a listing
func (r *ListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM listings WHERE id = $1`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("listing %s: %w", id, repositories.ErrNotFound)
	}

	r.logger.Debug("listing deleted", zap.String("id", id.String()))
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanListing(s scanner) (*models.Listing, error) {
	listing := &models.Listing{}
	var description sql.NullString
	var images pq.StringArray

	err := s.Scan(
		&listing.ID,
		&listing.Title,
		&description,
		&listing.LocationAddress,
		&listing.Price,
		&listing.PropertyType,
		&listing.Status,
		&images,
		&listing.DateCreated,
		&listing.DateUpdated,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		listing.Description = &description.String
	}
	listing.Images = []string(images)
	if listing.Images == nil {
		listing.Images = []string{}
	}
	return listing, nil
}
