package leaderboard

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines the ranking storage contract. Implementations live in
// the infrastructure layer (PostgreSQL for the materialized ranking, Redis
// for the hot cache).
type Repository interface {
	// ──────────────────────────────────────────────────────────────────────────
	// Rebuild
	// ──────────────────────────────────────────────────────────────────────────

	// SaveRanking replaces the materialized ranking with a fresh build.
	SaveRanking(ctx context.Context, ranking *Ranking) error

	// GetRankMap returns creatureID -> rank of the current materialized
	// ranking. The rebuild job uses it to compute RankChange.
	GetRankMap(ctx context.Context) (map[string]Rank, error)

	// ──────────────────────────────────────────────────────────────────────────
	// Ranking queries (read model)
	// ──────────────────────────────────────────────────────────────────────────

	// GetCreatureRank returns the current entry of a creature.
	// Returns nil without error when the creature is not ranked yet.
	GetCreatureRank(ctx context.Context, creatureID string) (*Entry, error)

	// GetTop returns the first limit entries.
	GetTop(ctx context.Context, limit int) ([]*Entry, error)

	// GetPage returns one page of the ranking. page is 1-based.
	GetPage(ctx context.Context, page, pageSize int) ([]*Entry, error)

	// GetNeighbors returns the entries around a creature (±rangeSize).
	GetNeighbors(ctx context.Context, creatureID string, rangeSize int) ([]*Entry, error)

	// GetTotalCount returns the number of ranked creatures.
	GetTotalCount(ctx context.Context) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Cache defines the hot-path ranking cache. Split from the repository so the
// query layer can fall through to PostgreSQL on a miss.
type Cache interface {
	// GetCachedTop returns the cached top-N.
	// Returns nil when the cache is cold.
	GetCachedTop(ctx context.Context, limit int) ([]*Entry, error)

	// SetCachedTop stores the top-N with a TTL.
	SetCachedTop(ctx context.Context, entries []*Entry, ttl time.Duration) error

	// GetCachedRank returns the cached entry of one creature.
	GetCachedRank(ctx context.Context, creatureID string) (*Entry, error)

	// SetCachedRank stores the entry of one creature.
	SetCachedRank(ctx context.Context, entry *Entry, ttl time.Duration) error

	// InvalidateAll drops the whole leaderboard cache. Called after every
	// rebuild and after every evolution.
	InvalidateAll(ctx context.Context) error
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY OPTIONS
// ══════════════════════════════════════════════════════════════════════════════

// QueryOptions paginates leaderboard reads.
type QueryOptions struct {
	// Page - 1-based page number.
	Page int

	// PageSize - rows per page.
	PageSize int
}

// DefaultQueryOptions returns the default paging.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{Page: 1, PageSize: 20}
}

// WithPage sets the page number.
func (o QueryOptions) WithPage(page int) QueryOptions {
	if page < 1 {
		page = 1
	}
	o.Page = page
	return o
}

// WithPageSize sets the page size, capped at 100.
func (o QueryOptions) WithPageSize(size int) QueryOptions {
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	o.PageSize = size
	return o
}

// Offset returns the SQL offset.
func (o QueryOptions) Offset() int {
	return (o.Page - 1) * o.PageSize
}

// Limit returns the SQL limit.
func (o QueryOptions) Limit() int {
	return o.PageSize
}
