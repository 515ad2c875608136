package domain

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Title length bounds enforced before persistence.
const (
	ListingTitleMinLen = 2
	ListingTitleMaxLen = 50
)

const shortDescriptionLen = 40

// CheeseListing is the aggregate for marketplace listings. Each listing is
// owned by exactly one user.
type CheeseListing struct {
	ID          string
	OwnerID     string
	Title       string
	Description string
	Price       int
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ShortDescription returns the description truncated to its first 40
// characters with a trailing ellipsis. Descriptions shorter than 40
// characters are returned unmodified.
func (l *CheeseListing) ShortDescription() string {
	if len(l.Description) < shortDescriptionLen {
		return l.Description
	}
	return l.Description[:shortDescriptionLen] + "..."
}

// CreatedAtAgo returns a human-relative age string, e.g. "3 minutes ago".
func (l *CheeseListing) CreatedAtAgo() string {
	return humanize.Time(l.CreatedAt)
}

// NormalizeDescription converts raw text newlines to line-break markup. The
// write path accepts raw text; listings are always stored normalized.
func NormalizeDescription(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	return strings.ReplaceAll(normalized, "\n", "<br />\n")
}
