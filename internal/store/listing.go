package store

import (
	"context"

	"archieos.app/intake/core/db/sqlc"
	"archieos.app/intake/internal/model"
)

type listingStore struct {
	queries *sqlc.Queries
}

func newListingStore(queries *sqlc.Queries) ListingStore {
	return &listingStore{queries: queries}
}

func (s *listingStore) Create(ctx context.Context, listing *model.Listing) (*model.Listing, error) {
	metadata := []byte(listing.Metadata)
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	row, err := s.queries.CreateListing(ctx, sqlc.CreateListingParams{
		ListingID:     listing.ID,
		Type:          listing.Type,
		Status:        listing.Status,
		AddressString: listing.AddressString,
		RealtorID:     listing.RealtorID,
		DueDate:       toTimestamptz(listing.DueDate),
		Metadata:      metadata,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toListingModel(row), nil
}

func toListingModel(row sqlc.Listing) *model.Listing {
	return &model.Listing{
		ID:            row.ListingID,
		Type:          row.Type,
		Status:        row.Status,
		AddressString: row.AddressString,
		RealtorID:     row.RealtorID,
		DueDate:       timePtr(row.DueDate),
		Metadata:      row.Metadata,
		CreatedAt:     timeOrZero(row.CreatedAt),
		UpdatedAt:     timeOrZero(row.UpdatedAt),
	}
}
