package service_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"archieos.app/intake/internal/model"
	"archieos.app/intake/internal/service"
	"archieos.app/intake/internal/store"
)

var _ = Describe("UserResolver", func() {
	var (
		ctx      context.Context
		realtors *mockRealtorStore
		resolver service.UserResolver
	)

	BeforeEach(func() {
		ctx = context.Background()
		realtors = &mockRealtorStore{}
		resolver = service.NewUserResolver(realtors, nil)
	})

	It("returns an existing realtor without creating one", func() {
		existing := &model.Realtor{ID: "r-1", Name: "Dana Realtor"}
		realtors.getFn = func(ctx context.Context, slackUserID string) (*model.Realtor, error) {
			return existing, nil
		}

		got, err := resolver.Resolve(ctx, "U012ABCDEF")

		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(existing))
		Expect(realtors.created).To(BeEmpty())
	})

	It("creates a placeholder realtor on first sighting", func() {
		got, err := resolver.Resolve(ctx, "U012ABCDEFGH")

		Expect(err).NotTo(HaveOccurred())
		Expect(realtors.created).To(HaveLen(1))
		Expect(got.Name).To(Equal("User_ABCDEFGH"))
		Expect(got.Email).To(Equal("U012ABCDEFGH@slack.local"))
		Expect(got.Status).To(Equal(model.RealtorStatusActive))
		Expect(*got.SlackUserID).To(Equal("U012ABCDEFGH"))
		Expect(got.ID).NotTo(BeEmpty())
	})

	It("uses the whole id for short user ids", func() {
		got, err := resolver.Resolve(ctx, "U42")

		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal("User_U42"))
	})

	It("re-reads the realtor when a concurrent insert wins", func() {
		winner := &model.Realtor{ID: "r-winner"}
		realtors.getFn = func(ctx context.Context, slackUserID string) (*model.Realtor, error) {
			if realtors.getCalls == 1 {
				return nil, store.ErrNotFound
			}
			return winner, nil
		}
		realtors.createFn = func(ctx context.Context, realtor *model.Realtor) (*model.Realtor, error) {
			return nil, fmt.Errorf("insert: %w", store.ErrDuplicate)
		}

		got, err := resolver.Resolve(ctx, "U0RACE")

		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(winner))
	})

	It("surfaces lookup failures", func() {
		realtors.getFn = func(ctx context.Context, slackUserID string) (*model.Realtor, error) {
			return nil, errors.New("timeout")
		}

		_, err := resolver.Resolve(ctx, "U0FAIL")

		Expect(err).To(MatchError(ContainSubstring("looking up realtor")))
		Expect(realtors.created).To(BeEmpty())
	})

	It("rejects an empty user id", func() {
		_, err := resolver.Resolve(ctx, "")
		Expect(err).To(MatchError(service.ErrInvalidSlackUserID))
	})

	It("passes enrichment through to the store", func() {
		name := "Dana Realtor"
		var gotName *string
		realtors.updateFn = func(ctx context.Context, realtorID string, n, email, phone *string) (*model.Realtor, error) {
			gotName = n
			return &model.Realtor{ID: realtorID, Name: *n}, nil
		}

		got, err := resolver.Enrich(ctx, "r-1", &name, nil, nil)

		Expect(err).NotTo(HaveOccurred())
		Expect(got.Name).To(Equal(name))
		Expect(gotName).To(Equal(&name))
	})
})
