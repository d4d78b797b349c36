package services

import (
	"context"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/property-listings/internal/observability"
	"github.com/upb/property-listings/models"
	"github.com/upb/property-listings/repositories"
	"github.com/upb/property-listings/storage"
	"github.com/upb/property-listings/utils"
	"go.uber.org/zap"
)

// ImageUpload is an uploaded image file
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// CreateListingInput is the listing creation request. Price is the raw form value.
type CreateListingInput struct {
	Title           string       `json:"title" validate:"required"`
	Description     *string      `json:"description"`
	LocationAddress string       `json:"location_address" validate:"required"`
	Price           string       `json:"price" validate:"required"`
	PropertyType    string       `json:"property_type" validate:"required"`
	Status          string       `json:"status" validate:"required"`
	Image           *ImageUpload `json:"-"`
}

// UpdateListingInput is a partial listing update; nil fields are left unchanged
type UpdateListingInput struct {
	Title           *string
	Description     *string
	LocationAddress *string
	Price           *string
	PropertyType    *string
	Status          *string
	Image           *ImageUpload
}

// ListingService handles listing CRUD and image upload
type ListingService struct {
	listings repositories.ListingRepository
	uploader storage.Uploader
	bucket   string
	txMgr    repositories.TransactionManager
	logger   *zap.Logger
	now      func() time.Time
}

// NewListingService creates a new ListingService. Images go to bucket.
func NewListingService(
	listings repositories.ListingRepository,
	uploader storage.Uploader,
	bucket string,
	txMgr repositories.TransactionManager,
	logger *zap.Logger,
) *ListingService {
	return &ListingService{
		listings: listings,
		uploader: uploader,
		bucket:   bucket,
		txMgr:    txMgr,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns all listings, most recently updated first
func (s *ListingService) List(ctx context.Context) ([]*models.Listing, error) {
	listings, err := s.listings.List(ctx)
	if err != nil {
		return nil, ErrDatabaseError.Wrap(err)
	}
	return listings, nil
}

// Get returns a single listing
func (s *ListingService) Get(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, mapListingError(err)
	}
	return listing, nil
}

// Create validates the input, uploads the optional image and inserts the listing
func (s *ListingService) Create(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.LocationAddress = strings.TrimSpace(in.LocationAddress)
	in.Price = strings.TrimSpace(in.Price)
	in.PropertyType = strings.TrimSpace(in.PropertyType)
	in.Status = strings.TrimSpace(in.Status)

	if err := utils.ValidateStruct(&in); err != nil {
		return nil, withFields(ErrMissingListingFields, err)
	}

	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}

	listing := models.NewListing(in.Title, in.LocationAddress, price, in.PropertyType, in.Status)
	listing.Description = in.Description
	now := s.now().UTC()
	listing.DateCreated = now
	listing.DateUpdated = now

	if in.Image != nil {
		url, err := s.upload(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		listing.Images = []string{url}
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, ErrDatabaseError.Wrap(err)
	}

	s.logger.Info("listing created", zap.String("listing_id", listing.ID.String()))
	return listing, nil
}

// Update applies the provided fields to an existing listing. A new image
// replaces the listing's images.
func (s *ListingService) Update(ctx context.Context, id uuid.UUID, in UpdateListingInput) (*models.Listing, error) {
	patch := models.ListingPatch{
		Title:           in.Title,
		Description:     in.Description,
		LocationAddress: in.LocationAddress,
		PropertyType:    in.PropertyType,
		Status:          in.Status,
	}

	if in.Price != nil {
		price, err := parsePrice(strings.TrimSpace(*in.Price))
		if err != nil {
			return nil, err
		}
		patch.Price = &price
	}

	if in.Image != nil {
		if _, ok := storage.ImageType(in.Image.Filename); !ok {
			return nil, ErrUnsupportedImage
		}
	}

	// the image is stored only once the listing is known to exist
	listing, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) (*models.Listing, error) {
		listing, err := s.listings.GetByID(ctx, id)
		if err != nil {
			return nil, mapListingError(err)
		}
		if in.Image != nil {
			url, err := s.upload(ctx, in.Image)
			if err != nil {
				return nil, err
			}
			patch.Images = []string{url}
		}
		patch.Apply(listing, s.now().UTC())
		if err := s.listings.Update(ctx, listing); err != nil {
			return nil, mapListingError(err)
		}
		return listing, nil
	})
	if err != nil {
		var domainErr *DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, ErrTransactionFailed.Wrap(err)
	}

	s.logger.Info("listing updated", zap.String("listing_id", id.String()))
	return listing, nil
}

// Delete removes a listing
func (s *ListingService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.listings.Delete(ctx, id); err != nil {
		return mapListingError(err)
	}
	s.logger.Info("listing deleted", zap.String("listing_id", id.String()))
	return nil
}

// upload stores an image under its allow-listed media type; the client's
// declared content type is only logged
func (s *ListingService) upload(ctx context.Context, img *ImageUpload) (string, error) {
	object := storage.ObjectName(s.now(), img.Filename)
	mediaType, ok := storage.ImageType(object)
	if !ok {
		observability.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		return "", ErrUnsupportedImage
	}

	url, err := s.uploader.Upload(ctx, s.bucket, object, mediaType, img.Body)
	if errors.Is(err, storage.ErrUnsupportedMedia) {
		observability.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		s.logger.Warn("image rejected",
			zap.String("object", object),
			zap.String("declared_content_type", img.ContentType),
			zap.Error(err))
		return "", ErrUnsupportedImage.Wrap(err)
	}
	if err != nil {
		observability.ImageUploadsTotal.WithLabelValues("error").Inc()
		s.logger.Error("image upload failed", zap.String("object", object), zap.Error(err))
		return "", ErrStorageFailed.Wrap(err)
	}
	observability.ImageUploadsTotal.WithLabelValues("ok").Inc()
	return url, nil
}

// maxPrice is the exclusive upper bound of the NUMERIC(14, 2) price column
const maxPrice = 1e12

// parsePrice accepts a non-negative decimal that the price column stores
// exactly: below maxPrice with at most two decimals
func parsePrice(raw string) (float64, error) {
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(price) || price < 0 || price >= maxPrice {
		return 0, ErrInvalidPrice
	}
	// shortest decimal form that round-trips, so "1.50" and "15e-1" both read 1.5
	if _, frac, ok := strings.Cut(strconv.FormatFloat(price, 'f', -1, 64), "."); ok && len(frac) > 2 {
		return 0, ErrInvalidPrice
	}
	return price, nil
}

func mapListingError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrListingNotFound.Wrap(err)
	}
	return ErrDatabaseError.Wrap(err)
}
