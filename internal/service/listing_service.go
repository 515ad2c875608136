package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/cheese-market/internal/cache"
	"github.com/spec-kit/cheese-market/internal/domain"
	"github.com/spec-kit/cheese-market/internal/events"
	"github.com/spec-kit/cheese-market/internal/repository"
	apperrors "github.com/spec-kit/cheese-market/pkg/util"
)

// ListingsPerPage is the fixed collection page size.
const ListingsPerPage = 10

var validate = validator.New()

// ListingService coordinates cheese listing workflows.
type ListingService struct {
	listings   repository.ListingRepository
	users      repository.UserRepository
	cache      *cache.ListingCache
	dispatcher events.Dispatcher
}

// ListingDependencies bundles collaborators for the listing service.
type ListingDependencies struct {
	ListingRepo repository.ListingRepository
	UserRepo    repository.UserRepository
	Cache       *cache.ListingCache
	Dispatcher  events.Dispatcher
}

// ListingInput describes the writable surface of a listing. Fields are
// pointers so that missing and zero values are distinguishable; every violated
// constraint is reported in a single validation error.
type ListingInput struct {
	Title       *string `validate:"required,min=2,max=50"`
	Description *string `validate:"required"`
	Price       *int    `validate:"required,gt=0"`
	Owner       *string `validate:"required"`
}

// NewListingService constructs the service.
func NewListingService(deps ListingDependencies) *ListingService {
	return &ListingService{
		listings:   deps.ListingRepo,
		users:      deps.UserRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
	}
}

// Create validates input and persists a new listing. The raw description is
// normalized before storage; isPublished always starts false and createdAt is
// assigned by the store.
func (s *ListingService) Create(ctx context.Context, actorID string, input ListingInput) (*domain.CheeseListing, error) {
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	listing := &domain.CheeseListing{
		OwnerID:     *input.Owner,
		Title:       *input.Title,
		Description: domain.NormalizeDescription(*input.Description),
		Price:       *input.Price,
		IsPublished: false,
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventListingCreated, listing, actorID)
	return listing, nil
}

// Update applies the writable fields to an existing listing. isPublished,
// createdAt and id are not part of the write surface and survive unchanged.
func (s *ListingService) Update(ctx context.Context, id, actorID string, input ListingInput) (*domain.CheeseListing, error) {
	listing, err := s.loadListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	listing.OwnerID = *input.Owner
	listing.Title = *input.Title
	listing.Description = domain.NormalizeDescription(*input.Description)
	listing.Price = *input.Price

	if err := s.listings.Update(ctx, listing); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("cheese listing", map[string]any{"id": id})
		}
		return nil, err
	}

	s.publish(ctx, events.EventListingUpdated, listing, actorID)
	return listing, nil
}

// Delete removes a listing. The admin-role requirement is enforced at the
// route level.
func (s *ListingService) Delete(ctx context.Context, id, actorID string) error {
	listing, err := s.loadListing(ctx, id)
	if err != nil {
		return err
	}
	if err := s.listings.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("cheese listing", map[string]any{"id": id})
		}
		return err
	}

	s.publish(ctx, events.EventListingDeleted, listing, actorID)
	return nil
}

// Get returns a listing and its owner, consulting the item cache first.
func (s *ListingService) Get(ctx context.Context, id string) (*domain.CheeseListing, *domain.User, error) {
	listing := s.cache.Get(ctx, id)
	if listing == nil {
		var err error
		listing, err = s.loadListing(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		s.cache.Set(ctx, listing)
	}

	owner, err := s.users.GetByID(ctx, listing.OwnerID)
	if err != nil && err != pgx.ErrNoRows {
		return nil, nil, err
	}
	return listing, owner, nil
}

// List returns one fixed-size page of listings plus the total match count.
// Page size is always ListingsPerPage regardless of requested limits.
func (s *ListingService) List(ctx context.Context, filter repository.ListingFilter, page int) ([]domain.CheeseListing, int, error) {
	if page < 1 {
		page = 1
	}
	filter.Limit = ListingsPerPage
	filter.Offset = (page - 1) * ListingsPerPage

	listings, err := s.listings.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.listings.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// ListByOwner returns a page of listings owned by the given user.
func (s *ListingService) ListByOwner(ctx context.Context, ownerID string, page int) ([]domain.CheeseListing, int, error) {
	return s.List(ctx, repository.ListingFilter{OwnerID: &ownerID}, page)
}

func (s *ListingService) loadListing(ctx context.Context, id string) (*domain.CheeseListing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("cheese listing", map[string]any{"id": id})
		}
		return nil, err
	}
	return listing, nil
}

// validateInput collects every violated constraint, including owner
// well-formedness, into one error.
func (s *ListingService) validateInput(ctx context.Context, input ListingInput) error {
	details := map[string]any{}

	if err := validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			field, message := violationMessage(fe)
			details[field] = message
		}
	}

	if input.Owner != nil {
		if _, err := s.users.GetByID(ctx, *input.Owner); err != nil {
			if err == pgx.ErrNoRows {
				details["owner"] = "owner must reference an existing user"
			} else {
				return err
			}
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details)
	}
	return nil
}

func violationMessage(fe validator.FieldError) (string, string) {
	switch fe.StructField() {
	case "Title":
		switch fe.Tag() {
		case "min":
			return "title", "title must be at least 2 characters"
		case "max":
			return "title", "title must be at most 50 characters"
		default:
			return "title", "title is required"
		}
	case "Description":
		return "description", "description is required"
	case "Price":
		if fe.Tag() == "gt" {
			return "price", "price must be a positive integer"
		}
		return "price", "price is required"
	case "Owner":
		return "owner", "owner is required"
	default:
		return fe.StructField(), "invalid value"
	}
}

func (s *ListingService) publish(ctx context.Context, eventType events.EventType, listing *domain.CheeseListing, actorID string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload: events.ListingPayload{
			ListingID: listing.ID,
			OwnerID:   listing.OwnerID,
			Title:     listing.Title,
			ActorID:   actorID,
		},
	})
}
