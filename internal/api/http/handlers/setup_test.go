package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/cheese-market/internal/api/http"
	"github.com/spec-kit/cheese-market/internal/api/http/handlers"
	"github.com/spec-kit/cheese-market/internal/auth"
	"github.com/spec-kit/cheese-market/internal/config"
	"github.com/spec-kit/cheese-market/internal/domain"
	"github.com/spec-kit/cheese-market/internal/events"
	"github.com/spec-kit/cheese-market/internal/observability"
	"github.com/spec-kit/cheese-market/internal/persistence"
	"github.com/spec-kit/cheese-market/internal/repository"
	"github.com/spec-kit/cheese-market/internal/service"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*domain.User{}}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
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

type memListingRepo struct {
	mu       sync.Mutex
	users    *memUserRepo
	listings map[string]*domain.CheeseListing
}

func newMemListingRepo(users *memUserRepo) *memListingRepo {
	return &memListingRepo{users: users, listings: map[string]*domain.CheeseListing{}}
}

func (r *memListingRepo) Create(_ context.Context, listing *domain.CheeseListing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing.ID = uuid.NewString()
	listing.CreatedAt = time.Now()
	listing.UpdatedAt = listing.CreatedAt
	clone := *listing
	r.listings[listing.ID] = &clone
	return nil
}

func (r *memListingRepo) Update(_ context.Context, listing *domain.CheeseListing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[listing.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *listing
	r.listings[listing.ID] = &clone
	return nil
}

func (r *memListingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.listings, id)
	return nil
}

func (r *memListingRepo) GetByID(_ context.Context, id string) (*domain.CheeseListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.listings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *listing
	return &clone, nil
}

func (r *memListingRepo) ListWithFilter(ctx context.Context, filter repository.ListingFilter) ([]domain.CheeseListing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := r.match(ctx, filter)
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

func (r *memListingRepo) CountWithFilter(ctx context.Context, filter repository.ListingFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.match(ctx, filter)), nil
}

func (r *memListingRepo) match(ctx context.Context, filter repository.ListingFilter) []domain.CheeseListing {
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
		if filter.OwnerEmail != nil {
			owner, err := r.users.GetByID(ctx, listing.OwnerID)
			if err != nil || !strings.Contains(strings.ToLower(owner.Email), strings.ToLower(*filter.OwnerEmail)) {
				continue
			}
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

type testEnv struct {
	app      *fiber.App
	users    *memUserRepo
	listings *memListingRepo
	auth     *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		App: config.AppConfig{Name: "cheese-market-test", Version: "test"},
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLSeconds: 3600,
			BcryptCost:            4,
		},
	}

	users := newMemUserRepo()
	listings := newMemListingRepo(users)
	dispatcher := events.NewInMemoryDispatcher()
	logger := zap.NewNop()

	authService := service.NewAuthService(cfg, users, dispatcher)
	listingService := service.NewListingService(service.ListingDependencies{
		ListingRepo: listings,
		UserRepo:    users,
		Dispatcher:  dispatcher,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, &persistence.Postgres{}, &persistence.Redis{}),
		Users:          handlers.NewUsersHandler(authService, listingService),
		Listings:       handlers.NewListingsHandler(listingService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users),
	})

	return &testEnv{app: app, users: users, listings: listings, auth: authService}
}

// registerUser creates an account and returns the user and a bearer token.
func (e *testEnv) registerUser(t *testing.T, email, password string, roles ...string) (*domain.User, string) {
	t.Helper()

	user, err := e.auth.RegisterUser(context.Background(), email, password)
	require.NoError(t, err)

	if len(roles) > 0 {
		stored, err := e.users.GetByID(context.Background(), user.ID)
		require.NoError(t, err)
		stored.Roles = append(stored.Roles, roles...)
		require.NoError(t, e.users.Update(context.Background(), stored))
		user = stored
	}

	token, _, err := e.auth.Login(context.Background(), email, password)
	require.NoError(t, err)
	return user, token
}

func jsonRequest(method, target string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req, _ := http.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}
