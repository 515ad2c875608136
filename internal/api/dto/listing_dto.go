// Package dto defines request payloads and the per-operation view builders
// that decide field visibility. Each view function corresponds to one
// serialization context: fields absent from a view are never emitted, and
// input fields outside the write surface are ignored on decode.
package dto

import (
	"github.com/spec-kit/cheese-market/internal/domain"
)

// ListingWriteRequest is the writable surface of a listing. Description is
// accepted as raw text and normalized before storage. Any other supplied
// properties (id, isPublished, createdAt) are dropped on decode.
type ListingWriteRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *int    `json:"price"`
	Owner       *string `json:"owner"`
}

// ListingCollectionView produces the collection read context: id, title,
// truncated description, price and a human-relative age.
func ListingCollectionView(l *domain.CheeseListing) map[string]any {
	return map[string]any{
		"id":               l.ID,
		"title":            l.Title,
		"shortDescription": l.ShortDescription(),
		"price":            l.Price,
		"createdAtAgo":     l.CreatedAtAgo(),
	}
}

// ListingItemView produces the single-resource read context. It widens the
// collection view with the full description and owner details; isPublished is
// only visible to administrators.
func ListingItemView(l *domain.CheeseListing, owner *domain.User, admin bool) map[string]any {
	view := ListingCollectionView(l)
	view["description"] = l.Description
	if owner != nil {
		view["owner"] = map[string]any{
			"id":    owner.ID,
			"email": owner.Email,
		}
	}
	if admin {
		view["isPublished"] = l.IsPublished
	}
	return view
}

// ApplyPropertyFilter restricts a view to the client-requested properties.
// An empty request leaves the group-derived default set untouched; unknown
// property names are ignored.
func ApplyPropertyFilter(view map[string]any, properties []string) map[string]any {
	if len(properties) == 0 {
		return view
	}
	filtered := make(map[string]any, len(properties))
	for _, prop := range properties {
		if val, ok := view[prop]; ok {
			filtered[prop] = val
		}
	}
	return filtered
}

// CollectionMeta describes pagination metadata for list responses.
type CollectionMeta struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}
