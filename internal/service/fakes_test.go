package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/cheese-market/internal/domain"
	"github.com/spec-kit/cheese-market/internal/repository"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeListingRepo struct {
	mu         sync.Mutex
	listings   map[string]*domain.CheeseListing
	lastFilter repository.ListingFilter
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: map[string]*domain.CheeseListing{}}
}

func (r *fakeListingRepo) Create(_ context.Context, listing *domain.CheeseListing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing.ID = uuid.NewString()
	listing.CreatedAt = time.Now()
	listing.UpdatedAt = listing.CreatedAt
	clone := *listing
	r.listings[listing.ID] = &clone
	return nil
}

func (r *fakeListingRepo) Update(_ context.Context, listing *domain.CheeseListing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[listing.ID]; !ok {
		return pgx.ErrNoRows
	}
	listing.UpdatedAt = time.Now()
	clone := *listing
	r.listings[listing.ID] = &clone
	return nil
}

func (r *fakeListingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.listings, id)
	return nil
}

func (r *fakeListingRepo) GetByID(_ context.Context, id string) (*domain.CheeseListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.listings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *listing
	return &clone, nil
}

func (r *fakeListingRepo) ListWithFilter(_ context.Context, filter repository.ListingFilter) ([]domain.CheeseListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter

	matched := r.match(filter)
	offset := filter.Offset
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + filter.Limit
	if filter.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *fakeListingRepo) CountWithFilter(_ context.Context, filter repository.ListingFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.match(filter)), nil
}

func (r *fakeListingRepo) match(filter repository.ListingFilter) []domain.CheeseListing {
	var matched []domain.CheeseListing
	for _, listing := range r.listings {
		if filter.IsPublished != nil && listing.IsPublished != *filter.IsPublished {
			continue
		}
		if filter.OwnerID != nil && listing.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.Title != nil && !strings.Contains(strings.ToLower(listing.Title), strings.ToLower(*filter.Title)) {
			continue
		}
		if filter.Description != nil && !strings.Contains(strings.ToLower(listing.Description), strings.ToLower(*filter.Description)) {
			continue
		}
		if filter.PriceMin != nil && listing.Price < *filter.PriceMin {
			continue
		}
		if filter.PriceMax != nil && listing.Price > *filter.PriceMax {
			continue
		}
		matched = append(matched, *listing)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }
