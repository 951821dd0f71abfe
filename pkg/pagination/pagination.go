// Package pagination implements keyset paging over (created_at DESC, id DESC).
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Params holds cursor pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page.
type Cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        uuid.UUID `json:"id"`
}

// Page is one slice of a cursor-paginated listing.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer asks for one extra row so BuildPage can tell whether more remain.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Keyset returns a gorm scope that resumes after the cursor in p, orders newest
// first and fetches LimitWithBuffer rows. Columns are unqualified.
func Keyset(p Params) (func(*gorm.DB) *gorm.DB, error) {
	cursor, err := ParseCursor(p.Cursor)
	if err != nil {
		return nil, err
	}
	return func(db *gorm.DB) *gorm.DB {
		if cursor != nil {
			db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
		return db.Order("created_at DESC").Order("id DESC").Limit(LimitWithBuffer(p.Limit))
	}, nil
}

// BuildPage drops the buffered row and derives the next cursor from the last kept item.
func BuildPage[T any](rows []T, limit int, key func(T) Cursor) Page[T] {
	limit = NormalizeLimit(limit)
	page := Page[T]{Items: rows}
	if len(rows) > limit {
		page.Items = rows[:limit]
		page.NextCursor = EncodeCursor(key(page.Items[limit-1]))
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page
}

// EncodeCursor serialises c as URL-safe base64 JSON.
func EncodeCursor(c Cursor) string {
	c.CreatedAt = c.CreatedAt.UTC()
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor decodes the cursor string. An empty string yields nil.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if c.CreatedAt.IsZero() || c.ID == uuid.Nil {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}
