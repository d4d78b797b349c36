package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// User tests
func TestNewUser(t *testing.T) {
	id := uuid.New()

	user := NewUser(id, "jdoe", "Jane Doe")

	assert.Equal(t, id, user.ID)
	assert.Equal(t, "jdoe", user.Username)
	assert.Equal(t, "Jane Doe", user.FullName)
	assert.Equal(t, RoleUser, user.Role)
	assert.Nil(t, user.Avatar)
	assert.Nil(t, user.LastLoginAt)
	assert.Nil(t, user.LastLogoutAt)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUser_JSONKeepsNullAvatar(t *testing.T) {
	data, err := json.Marshal(NewUser(uuid.New(), "jdoe", "Jane Doe"))
	require.NoError(t, err)

	assert.Contains(t, string(data), `"avatar":null`)
	assert.NotContains(t, string(data), "last_logout_at")
}

// Identity tests
func TestNewIdentity(t *testing.T) {
	identity := NewIdentity("jdoe@yourapp.local", "hash")

	assert.NotEqual(t, uuid.Nil, identity.ID)

	data, err := json.Marshal(identity)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hash")
}

// Listing tests
func TestNewListing(t *testing.T) {
	listing := NewListing("Loft", "1 Main St", 1200, "apartment", "available")

	assert.NotEqual(t, uuid.Nil, listing.ID)
	assert.Equal(t, listing.DateCreated, listing.DateUpdated)
	assert.NotNil(t, listing.Images)
	assert.Empty(t, listing.Images)
}

func TestListingPatch_Apply(t *testing.T) {
	listing := NewListing("Loft", "1 Main St", 1200, "apartment", "available")
	created := listing.DateCreated

	title := "Sunny Loft"
	price := 1500.0
	later := created.Add(time.Hour)

	ListingPatch{Title: &title, Price: &price, Images: []string{"http://cdn/a.jpg"}}.Apply(listing, later)

	assert.Equal(t, "Sunny Loft", listing.Title)
	assert.Equal(t, 1500.0, listing.Price)
	assert.Equal(t, "1 Main St", listing.LocationAddress)
	assert.Equal(t, "apartment", listing.PropertyType)
	assert.Equal(t, []string{"http://cdn/a.jpg"}, listing.Images)
	assert.Equal(t, created, listing.DateCreated)
	assert.Equal(t, later, listing.DateUpdated)
}

func TestListingPatch_ApplyEmptyKeepsImages(t *testing.T) {
	listing := NewListing("Loft", "1 Main St", 1200, "apartment", "available")
	listing.Images = []string{"http://cdn/a.jpg"}

	ListingPatch{}.Apply(listing, time.Now())

	assert.Equal(t, []string{"http://cdn/a.jpg"}, listing.Images)
}
