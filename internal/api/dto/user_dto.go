package dto

import "github.com/spec-kit/cheese-market/internal/domain"

// RegisterUserRequest payload for new accounts. The password arrives in
// plaintext and is hashed before the insert.
type RegisterUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for POST /api/login_check.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// UserView produces the user read context: id, email and summaries of owned
// listings. Roles appear only for the user themselves or administrators; the
// password hash is never serialized.
func UserView(u *domain.User, listings []domain.CheeseListing, includeRoles bool) map[string]any {
	summaries := make([]map[string]any, 0, len(listings))
	for i := range listings {
		summaries = append(summaries, ListingCollectionView(&listings[i]))
	}

	view := map[string]any{
		"id":             u.ID,
		"email":          u.Email,
		"cheeseListings": summaries,
	}
	if includeRoles {
		view["roles"] = u.Roles
	}
	return view
}
