package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/cheese-market/internal/api/dto"
	"github.com/spec-kit/cheese-market/internal/auth"
	"github.com/spec-kit/cheese-market/internal/repository"
	"github.com/spec-kit/cheese-market/internal/service"
	apperrors "github.com/spec-kit/cheese-market/pkg/util"
)

// ListingsHandler manages the cheese listing resource.
type ListingsHandler struct {
	service *service.ListingService
}

// NewListingsHandler constructs handler.
func NewListingsHandler(listingService *service.ListingService) *ListingsHandler {
	return &ListingsHandler{service: listingService}
}

// CreateListing POST /cheeses. Requires an authenticated user.
func (h *ListingsHandler) CreateListing(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.ListingWriteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	listing, err := h.service.Create(c.Context(), principal.User.ID, writeInput(req))
	if err != nil {
		return err
	}
	return h.renderItem(c, http.StatusCreated, listing.ID)
}

// ListListings GET /cheeses. Open to anonymous callers; always 10 per page.
func (h *ListingsHandler) ListListings(c *fiber.Ctx) error {
	filter := parseListingQuery(c)
	page := parseInt(c.Query("page"), 1)

	listings, total, err := h.service.List(c.Context(), filter, page)
	if err != nil {
		return err
	}

	properties := parseProperties(c)
	views := make([]map[string]any, 0, len(listings))
	for i := range listings {
		views = append(views, dto.ApplyPropertyFilter(dto.ListingCollectionView(&listings[i]), properties))
	}

	meta := &dto.CollectionMeta{Page: page, PageSize: service.ListingsPerPage, Total: total}
	return renderListings(c, http.StatusOK, views, meta)
}

// GetListing GET /cheeses/:id (and the legacy GET /icheeses/:id alias).
func (h *ListingsHandler) GetListing(c *fiber.Ctx) error {
	return h.renderItem(c, http.StatusOK, c.Params("id"))
}

// UpdateListing PUT /cheeses/:id.
func (h *ListingsHandler) UpdateListing(c *fiber.Ctx) error {
	var req dto.ListingWriteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	actorID := ""
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		actorID = principal.User.ID
	}

	listing, err := h.service.Update(c.Context(), c.Params("id"), actorID, writeInput(req))
	if err != nil {
		return err
	}
	return h.renderItem(c, http.StatusOK, listing.ID)
}

// DeleteListing DELETE /cheeses/:id. ROLE_ADMIN enforced by route middleware.
func (h *ListingsHandler) DeleteListing(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Delete(c.Context(), c.Params("id"), principal.User.ID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *ListingsHandler) renderItem(c *fiber.Ctx, status int, id string) error {
	listing, owner, err := h.service.Get(c.Context(), id)
	if err != nil {
		return err
	}

	admin := false
	if principal, ok := auth.PrincipalFromContext(c); ok && principal.User != nil {
		admin = principal.User.IsAdmin()
	}

	view := dto.ApplyPropertyFilter(dto.ListingItemView(listing, owner, admin), parseProperties(c))
	return renderListings(c, status, []map[string]any{view}, nil)
}

func writeInput(req dto.ListingWriteRequest) service.ListingInput {
	return service.ListingInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Owner:       req.Owner,
	}
}

func parseListingQuery(c *fiber.Ctx) repository.ListingFilter {
	filter := repository.ListingFilter{}

	if published := c.Query("isPublished"); published != "" {
		if val, err := strconv.ParseBool(published); err == nil {
			filter.IsPublished = &val
		}
	}
	if title := c.Query("title"); title != "" {
		filter.Title = &title
	}
	if description := c.Query("description"); description != "" {
		filter.Description = &description
	}
	if ownerEmail := c.Query("owner"); ownerEmail != "" {
		filter.OwnerEmail = &ownerEmail
	}
	if min := c.Query("price[gte]"); min != "" {
		if val, err := strconv.Atoi(min); err == nil {
			filter.PriceMin = &val
		}
	}
	if max := c.Query("price[lte]"); max != "" {
		if val, err := strconv.Atoi(max); err == nil {
			filter.PriceMax = &val
		}
	}

	return filter
}

// parseProperties collects the client-requested field selection, accepting
// both properties[] and properties keys.
func parseProperties(c *fiber.Ctx) []string {
	var properties []string
	for _, key := range []string{"properties[]", "properties"} {
		for _, raw := range c.Context().QueryArgs().PeekMulti(key) {
			if len(raw) > 0 {
				properties = append(properties, string(raw))
			}
		}
	}
	return properties
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
