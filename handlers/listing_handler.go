package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/property-listings/middleware"
	"github.com/upb/property-listings/services"
	"github.com/upb/property-listings/utils"
	"go.uber.org/zap"
)

// imageField is the multipart field carrying the listing image
const imageField = "images"

// multipartMemory is the part of a multipart body kept in memory; the rest spills to temp files
const multipartMemory = 8 << 20

// listingRequest holds the listing fields of a request. Nil fields were not sent.
type listingRequest struct {
	Title           *string      `json:"title"`
	Description     *string      `json:"description"`
	LocationAddress *string      `json:"location_address"`
	Price           *json.Number `json:"price"`
	PropertyType    *string      `json:"property_type"`
	Status          *string      `json:"status"`

	image *services.ImageUpload
}

// ListingHandler handles listing CRUD
type ListingHandler struct {
	listings       ListingService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewListingHandler creates a new ListingHandler. Request bodies are capped at maxUploadBytes.
func NewListingHandler(listings ListingService, maxUploadBytes int64, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{
		listings:       listings,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// HandleList handles GET /api/listings
func (h *ListingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, ListingsResponse{Listings: listings}, "")
}

// HandleGet handles GET /api/listings/{id}
func (h *ListingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := listingID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	listing, err := h.listings.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, listing, "")
}

// HandleCreate handles POST /api/listings/create
func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, cleanup, err := h.parseListingRequest(w, r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	defer cleanup()

	in := services.CreateListingInput{
		Title:           deref(req.Title),
		Description:     req.Description,
		LocationAddress: deref(req.LocationAddress),
		PropertyType:    deref(req.PropertyType),
		Status:          deref(req.Status),
		Image:           req.image,
	}
	if req.Price != nil {
		in.Price = req.Price.String()
	}

	listing, err := h.listings.Create(ctx, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("listing created",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("listing_id", listing.ID.String()),
		zap.String("user_id", middleware.GetUserIDFromContext(ctx).String()))

	_ = utils.WriteCreated(w, listing, "Listing created")
}

// HandleUpdate handles PUT /api/listings/{id}
func (h *ListingHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := listingID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	req, cleanup, err := h.parseListingRequest(w, r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	defer cleanup()

	in := services.UpdateListingInput{
		Title:           req.Title,
		Description:     req.Description,
		LocationAddress: req.LocationAddress,
		PropertyType:    req.PropertyType,
		Status:          req.Status,
		Image:           req.image,
	}
	if req.Price != nil {
		price := req.Price.String()
		in.Price = &price
	}

	listing, err := h.listings.Update(r.Context(), id, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, listing, "Listing updated")
}

// HandleDelete handles DELETE /api/listings/{id}
func (h *ListingHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := listingID(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := h.listings.Delete(r.Context(), id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, nil, "Listing deleted")
}

// parseListingRequest reads a JSON, urlencoded or multipart listing body.
// The returned cleanup closes the uploaded file and removes spilled parts.
func (h *ListingHandler) parseListingRequest(w http.ResponseWriter, r *http.Request) (*listingRequest, func(), error) {
	noop := func() {}
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, noop, bodyError(err)
		}
		req := formListingRequest(url.Values(r.MultipartForm.Value))

		file, header, err := r.FormFile(imageField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
			return req, func() { _ = r.MultipartForm.RemoveAll() }, nil
		case err != nil:
			_ = r.MultipartForm.RemoveAll()
			return nil, noop, bodyError(err)
		}
		req.image = imageUpload(file, header)
		return req, func() {
			_ = file.Close()
			_ = r.MultipartForm.RemoveAll()
		}, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, noop, bodyError(err)
		}
		return formListingRequest(r.PostForm), noop, nil

	default:
		var req listingRequest
		if err := utils.DecodeJSON(r, &req); err != nil {
			return nil, noop, bodyError(err)
		}
		return &req, noop, nil
	}
}

func formListingRequest(values url.Values) *listingRequest {
	req := &listingRequest{
		Title:           formValue(values, "title"),
		Description:     formValue(values, "description"),
		LocationAddress: formValue(values, "location_address"),
		PropertyType:    formValue(values, "property_type"),
		Status:          formValue(values, "status"),
	}
	if price := formValue(values, "price"); price != nil {
		n := json.Number(*price)
		req.Price = &n
	}
	return req
}

func imageUpload(file multipart.File, header *multipart.FileHeader) *services.ImageUpload {
	return &services.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
}

// formValue returns the first value of key, or nil when the key was not sent
func formValue(values url.Values, key string) *string {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return nil
	}
	v := vs[0]
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func listingID(r *http.Request) (uuid.UUID, error) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"), "id")
	if err != nil {
		return uuid.Nil, services.ErrInvalidListingID.Wrap(err)
	}
	return id, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return services.ErrUploadTooLarge.Wrap(err)
	}
	return services.ErrInvalidInput.Wrap(err)
}
