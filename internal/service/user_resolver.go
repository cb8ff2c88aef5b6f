package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"archieos.app/intake/internal/model"
	"archieos.app/intake/internal/store"
)

const placeholderEmailDomain = "@slack.local"

var ErrInvalidSlackUserID = errors.New("slack user id is required")

// UserResolver maps Slack users to realtor records.
type UserResolver interface {
	// Resolve returns the realtor for slackUserID, creating a placeholder
	// record on first sighting.
	Resolve(ctx context.Context, slackUserID string) (*model.Realtor, error)
	// Enrich replaces placeholder contact details. Nil fields are kept.
	Enrich(ctx context.Context, realtorID string, name, email, phone *string) (*model.Realtor, error)
}

type userResolver struct {
	realtors store.RealtorStore
	logger   *slog.Logger
}

func NewUserResolver(realtors store.RealtorStore, logger *slog.Logger) UserResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &userResolver{realtors: realtors, logger: logger}
}

func (r *userResolver) Resolve(ctx context.Context, slackUserID string) (*model.Realtor, error) {
	if slackUserID == "" {
		return nil, ErrInvalidSlackUserID
	}

	realtor, err := r.realtors.GetBySlackUserID(ctx, slackUserID)
	if err == nil {
		return realtor, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("looking up realtor: %w", err)
	}

	created, err := r.realtors.Create(ctx, PlaceholderRealtor(slackUserID))
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Another poller created it between our lookup and insert.
			realtor, getErr := r.realtors.GetBySlackUserID(ctx, slackUserID)
			if getErr != nil {
				return nil, fmt.Errorf("re-reading realtor after conflict: %w", getErr)
			}
			return realtor, nil
		}
		return nil, fmt.Errorf("creating placeholder realtor: %w", err)
	}

	r.logger.InfoContext(ctx, "created placeholder realtor",
		"realtor_id", created.ID,
		"name", created.Name)
	return created, nil
}

func (r *userResolver) Enrich(ctx context.Context, realtorID string, name, email, phone *string) (*model.Realtor, error) {
	realtor, err := r.realtors.UpdateContact(ctx, realtorID, name, email, phone)
	if err != nil {
		return nil, fmt.Errorf("enriching realtor %s: %w", realtorID, err)
	}
	return realtor, nil
}

// PlaceholderRealtor synthesizes the record created for an unknown Slack user.
func PlaceholderRealtor(slackUserID string) *model.Realtor {
	suffix := slackUserID
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}

	return &model.Realtor{
		ID:          uuid.NewString(),
		Email:       slackUserID + placeholderEmailDomain,
		Name:        "User_" + suffix,
		SlackUserID: &slackUserID,
		Territories: []string{},
		Status:      model.RealtorStatusActive,
		Metadata:    []byte(`{"source":"slack_auto_provision"}`),
	}
}
