package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/cheese-market/internal/domain"
)

// ListingFilter captures collection query parameters. Text filters are
// partial (substring) matches; price bounds are inclusive.
type ListingFilter struct {
	IsPublished *bool
	Title       *string
	Description *string
	OwnerEmail  *string
	PriceMin    *int
	PriceMax    *int
	OwnerID     *string
	Limit       int
	Offset      int
}

// ListingRepository encapsulates cheese listing persistence.
type ListingRepository interface {
	Create(ctx context.Context, listing *domain.CheeseListing) error
	Update(ctx context.Context, listing *domain.CheeseListing) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.CheeseListing, error)
	ListWithFilter(ctx context.Context, filter ListingFilter) ([]domain.CheeseListing, error)
	CountWithFilter(ctx context.Context, filter ListingFilter) (int, error)
}

type listingRepository struct {
	pool *pgxpool.Pool
}

// NewListingRepository instantiates repository.
func NewListingRepository(pool *pgxpool.Pool) ListingRepository {
	return &listingRepository{pool: pool}
}

func (r *listingRepository) Create(ctx context.Context, listing *domain.CheeseListing) error {
	const query = `
        INSERT INTO cheese_listings (owner_id, title, description, price, is_published)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		listing.OwnerID,
		listing.Title,
		listing.Description,
		listing.Price,
		listing.IsPublished,
	).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
}

func (r *listingRepository) Update(ctx context.Context, listing *domain.CheeseListing) error {
	const query = `
        UPDATE cheese_listings SET owner_id=$1, title=$2, description=$3, price=$4,
            is_published=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		listing.OwnerID,
		listing.Title,
		listing.Description,
		listing.Price,
		listing.IsPublished,
		listing.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *listingRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cheese_listings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id string) (*domain.CheeseListing, error) {
	const query = `
        SELECT id, owner_id, title, description, price, is_published, created_at, updated_at
        FROM cheese_listings WHERE id=$1`
	var listing domain.CheeseListing
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&listing.ID,
		&listing.OwnerID,
		&listing.Title,
		&listing.Description,
		&listing.Price,
		&listing.IsPublished,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) ListWithFilter(ctx context.Context, filter ListingFilter) ([]domain.CheeseListing, error) {
	clauses, args := buildListingClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT l.id, l.owner_id, l.title, l.description, l.price,
               l.is_published, l.created_at, l.updated_at
        FROM cheese_listings l JOIN users u ON u.id = l.owner_id
        WHERE %s ORDER BY l.created_at DESC LIMIT %d OFFSET %d`,
		strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanListings(rows)
}

func (r *listingRepository) CountWithFilter(ctx context.Context, filter ListingFilter) (int, error) {
	clauses, args := buildListingClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM cheese_listings l JOIN users u ON u.id = l.owner_id WHERE %s`,
		strings.Join(clauses, " AND "))

	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func buildListingClauses(filter ListingFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.IsPublished != nil {
		args = append(args, *filter.IsPublished)
		clauses = append(clauses, fmt.Sprintf("l.is_published=$%d", len(args)))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("l.owner_id=$%d", len(args)))
	}
	if filter.Title != nil && strings.TrimSpace(*filter.Title) != "" {
		args = append(args, likePattern(*filter.Title))
		clauses = append(clauses, fmt.Sprintf("LOWER(l.title) LIKE $%d", len(args)))
	}
	if filter.Description != nil && strings.TrimSpace(*filter.Description) != "" {
		args = append(args, likePattern(*filter.Description))
		clauses = append(clauses, fmt.Sprintf("LOWER(l.description) LIKE $%d", len(args)))
	}
	if filter.OwnerEmail != nil && strings.TrimSpace(*filter.OwnerEmail) != "" {
		args = append(args, likePattern(*filter.OwnerEmail))
		clauses = append(clauses, fmt.Sprintf("LOWER(u.email) LIKE $%d", len(args)))
	}
	if filter.PriceMin != nil {
		args = append(args, *filter.PriceMin)
		clauses = append(clauses, fmt.Sprintf("l.price >= $%d", len(args)))
	}
	if filter.PriceMax != nil {
		args = append(args, *filter.PriceMax)
		clauses = append(clauses, fmt.Sprintf("l.price <= $%d", len(args)))
	}

	return clauses, args
}

func likePattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}

func scanListings(rows pgx.Rows) ([]domain.CheeseListing, error) {
	var result []domain.CheeseListing
	for rows.Next() {
		var listing domain.CheeseListing
		if err := rows.Scan(
			&listing.ID,
			&listing.OwnerID,
			&listing.Title,
			&listing.Description,
			&listing.Price,
			&listing.IsPublished,
			&listing.CreatedAt,
			&listing.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, listing)
	}
	return result, rows.Err()
}
