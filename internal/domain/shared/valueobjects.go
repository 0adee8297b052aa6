// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// CreatureID represents a unique creature identifier (UUID format).
type CreatureID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the creature ID is a valid UUID.
func (c CreatureID) IsValid() bool {
	return uuidRegex.MatchString(string(c))
}

// String returns the string representation.
func (c CreatureID) String() string {
	return string(c)
}

// IsEmpty checks if the ID is empty.
func (c CreatureID) IsEmpty() bool {
	return c == ""
}

// NewCreatureID creates a new CreatureID with validation.
func NewCreatureID(id string) (CreatureID, error) {
	cid := CreatureID(strings.ToLower(strings.TrimSpace(id)))
	if !cid.IsValid() {
		return "", NewDomainError("shared", "NewCreatureID", ErrInvalidID, "invalid creature ID format")
	}
	return cid, nil
}

// OwnerID represents the opaque external auth identity of a creature's owner.
type OwnerID string

// IsValid checks if the owner ID is non-empty and within bounds.
func (o OwnerID) IsValid() bool {
	s := string(o)
	return len(s) > 0 && len(s) <= 128
}

// String returns the string representation.
func (o OwnerID) String() string {
	return string(o)
}

// IsEmpty checks if the owner ID is empty.
func (o OwnerID) IsEmpty() bool {
	return o == ""
}

// NewOwnerID creates a new OwnerID with validation.
func NewOwnerID(id string) (OwnerID, error) {
	oid := OwnerID(strings.TrimSpace(id))
	if !oid.IsValid() {
		return "", NewDomainError("shared", "NewOwnerID", ErrInvalidID, "invalid owner ID")
	}
	return oid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// AppURL Value Object
// ═══════════════════════════════════════════════════════════════════════════

// AppURL represents the unique URL of a player's deployed creature app.
type AppURL string

// IsValid checks that the URL parses and uses http(s).
func (a AppURL) IsValid() bool {
	s := string(a)
	if len(s) == 0 || len(s) > 500 {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// String returns the string representation.
func (a AppURL) String() string {
	return string(a)
}

// Normalize lowercases the host and strips a trailing slash so that
// duplicate registrations cannot hide behind cosmetic differences.
func (a AppURL) Normalize() AppURL {
	u, err := url.Parse(string(a))
	if err != nil {
		return a
	}
	u.Host = strings.ToLower(u.Host)
	u.Scheme = strings.ToLower(u.Scheme)
	normalized := strings.TrimSuffix(u.String(), "/")
	return AppURL(normalized)
}

// NewAppURL creates a new AppURL with validation.
func NewAppURL(raw string) (AppURL, error) {
	a := AppURL(strings.TrimSpace(raw))
	if !a.IsValid() {
		return "", ErrInvalidAppURL
	}
	return a.Normalize(), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// TokenAmount Value Object ($FRUTA)
// ═══════════════════════════════════════════════════════════════════════════

// TokenAmount represents a quantity of $FRUTA tokens. Balances are always
// non-negative; ledger entries may carry negative amounts for debits.
type TokenAmount int64

// IsValid checks if the amount can be used for a balance.
func (t TokenAmount) IsValid() bool {
	return t >= 0
}

// Int64 returns the underlying int64 value.
func (t TokenAmount) Int64() int64 {
	return int64(t)
}

// String returns the string representation.
func (t TokenAmount) String() string {
	return fmt.Sprintf("%d", int64(t))
}

// Add returns the sum of two amounts.
func (t TokenAmount) Add(other TokenAmount) TokenAmount {
	return t + other
}

// CanAfford reports whether a balance covers a cost.
func (t TokenAmount) CanAfford(cost TokenAmount) bool {
	return t >= cost
}

// NewTokenAmount creates a balance-grade amount with validation.
func NewTokenAmount(amount int64) (TokenAmount, error) {
	if amount < 0 {
		return 0, NewDomainError("shared", "NewTokenAmount", ErrNegativeValue, "token amount cannot be negative")
	}
	return TokenAmount(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Points Value Object (lifetime training points)
// ═══════════════════════════════════════════════════════════════════════════

// Points represents lifetime training points. Monotonically non-decreasing.
type Points int

// MaxPoints caps the lifetime counter to keep arithmetic sane.
const MaxPoints Points = 100000000

// IsValid checks if the points value is within valid range.
func (p Points) IsValid() bool {
	return p >= 0 && p <= MaxPoints
}

// Int returns the underlying int value.
func (p Points) Int() int {
	return int(p)
}

// Add adds points and returns the result, capped at MaxPoints.
func (p Points) Add(amount int) Points {
	result := Points(int(p) + amount)
	if result > MaxPoints {
		return MaxPoints
	}
	if result < 0 {
		return 0
	}
	return result
}

// NewPoints creates a new Points value with validation.
func NewPoints(amount int) (Points, error) {
	if amount < 0 {
		return 0, NewDomainError("shared", "NewPoints", ErrNegativeValue, "points cannot be negative")
	}
	if amount > int(MaxPoints) {
		return MaxPoints, nil
	}
	return Points(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Score Value Object (AI evaluation score)
// ═══════════════════════════════════════════════════════════════════════════

// Score represents an AI evaluation score on the 0-100 scale.
type Score int

const (
	MinScore Score = 0
	MaxScore Score = 100
)

// IsValid checks if the score is within valid range.
func (s Score) IsValid() bool {
	return s >= MinScore && s <= MaxScore
}

// Int returns the underlying int value.
func (s Score) Int() int {
	return int(s)
}

// Clamp forces the score into the 0-100 range.
func (s Score) Clamp() Score {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}

// NewScore creates a new Score, clamping out-of-range values.
func NewScore(value int) Score {
	return Score(value).Clamp()
}

// ═══════════════════════════════════════════════════════════════════════════
// Rank Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rank represents a creature's position in the leaderboard.
type Rank int

const (
	MinRank  Rank = 1
	Unranked Rank = 0 // Not yet ranked
)

// IsValid checks if the rank is valid.
func (r Rank) IsValid() bool {
	return r >= MinRank
}

// Int returns the underlying int value.
func (r Rank) Int() int {
	return int(r)
}

// IsUnranked checks if the creature is not yet ranked.
func (r Rank) IsUnranked() bool {
	return r == Unranked
}

// IsTop returns true if the rank is in the top N.
func (r Rank) IsTop(n int) bool {
	return r.IsValid() && int(r) <= n
}

// NewRank creates a new Rank with validation.
func NewRank(position int) (Rank, error) {
	if position < 0 {
		return Unranked, NewDomainError("shared", "NewRank", ErrNegativeValue, "rank cannot be negative")
	}
	return Rank(position), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange represents a time period.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the time range is valid.
func (t TimeRange) IsValid() bool {
	return !t.From.IsZero() && !t.To.IsZero() && !t.From.After(t.To)
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.To.Sub(t.From)
}

// Contains checks if a time is within the range.
func (t TimeRange) Contains(tm time.Time) bool {
	return (tm.Equal(t.From) || tm.After(t.From)) && (tm.Equal(t.To) || tm.Before(t.To))
}

// NewTimeRange creates a new TimeRange with validation.
func NewTimeRange(from, to time.Time) (TimeRange, error) {
	tr := TimeRange{From: from, To: to}
	if !tr.IsValid() {
		return TimeRange{}, NewDomainError("shared", "NewTimeRange", ErrInvalidInput, "'from' must be before 'to'")
	}
	return tr, nil
}

// Last24Hours returns a TimeRange for the last 24 hours.
func Last24Hours() TimeRange {
	now := time.Now()
	return TimeRange{
		From: now.Add(-24 * time.Hour),
		To:   now,
	}
}

// LastNDays returns a TimeRange for the last N days.
func LastNDays(n int) TimeRange {
	now := time.Now()
	return TimeRange{
		From: now.AddDate(0, 0, -n),
		To:   now,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}
