package store

import (
	"context"

	"archieos.app/intake/core/db/sqlc"
	"archieos.app/intake/internal/model"
)

type realtorStore struct {
	queries *sqlc.Queries
}

func newRealtorStore(queries *sqlc.Queries) RealtorStore {
	return &realtorStore{queries: queries}
}

func (s *realtorStore) GetBySlackUserID(ctx context.Context, slackUserID string) (*model.Realtor, error) {
	row, err := s.queries.GetRealtorBySlackUserID(ctx, &slackUserID)
	if err != nil {
		return nil, mapError(err)
	}
	return toRealtorModel(row), nil
}

func (s *realtorStore) Create(ctx context.Context, realtor *model.Realtor) (*model.Realtor, error) {
	territories := realtor.Territories
	if territories == nil {
		territories = []string{}
	}
	metadata := []byte(realtor.Metadata)
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	row, err := s.queries.CreateRealtor(ctx, sqlc.CreateRealtorParams{
		RealtorID:     realtor.ID,
		Email:         realtor.Email,
		Name:          realtor.Name,
		Phone:         realtor.Phone,
		LicenseNumber: realtor.LicenseNumber,
		Brokerage:     realtor.Brokerage,
		SlackUserID:   realtor.SlackUserID,
		Territories:   territories,
		Status:        string(realtor.Status),
		Metadata:      metadata,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toRealtorModel(row), nil
}

func (s *realtorStore) UpdateContact(ctx context.Context, realtorID string, name, email, phone *string) (*model.Realtor, error) {
	row, err := s.queries.UpdateRealtorContact(ctx, sqlc.UpdateRealtorContactParams{
		Name:      name,
		Email:     email,
		Phone:     phone,
		RealtorID: realtorID,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toRealtorModel(row), nil
}

func toRealtorModel(row sqlc.Realtor) *model.Realtor {
	return &model.Realtor{
		ID:            row.RealtorID,
		Email:         row.Email,
		Name:          row.Name,
		Phone:         row.Phone,
		LicenseNumber: row.LicenseNumber,
		Brokerage:     row.Brokerage,
		SlackUserID:   row.SlackUserID,
		Territories:   row.Territories,
		Status:        model.RealtorStatus(row.Status),
		Metadata:      row.Metadata,
		CreatedAt:     timeOrZero(row.CreatedAt),
		UpdatedAt:     timeOrZero(row.UpdatedAt),
	}
}
