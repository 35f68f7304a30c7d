package storage

import (
	"fmt"
)

// Default search configuration values
const (
	DefaultSearchLimit  = 20
	DefaultSearchOffset = 0
	MaxSearchLimit      = 100
)

// SearchOptions configures a name search over a user's tree.
type SearchOptions struct {
	// Query is the substring to match against node names,
	// case-insensitively (required).
	Query string

	// OwnerID scopes the search to a single user's tree (required).
	OwnerID string

	// ScopeID optionally restricts results to the transitive descendants
	// of this directory. nil = the user's entire tree.
	ScopeID *string

	// Pagination
	Limit  int
	Offset int
}

// ApplyDefaults fills in default values for unset fields
func (opts *SearchOptions) ApplyDefaults() {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	if opts.Offset < 0 {
		opts.Offset = DefaultSearchOffset
	}
}

// Validate checks that required fields are set and values are reasonable
func (opts *SearchOptions) Validate() error {
	if opts.Query == "" {
		return fmt.Errorf("search query cannot be empty")
	}
	if opts.OwnerID == "" {
		return fmt.Errorf("search owner cannot be empty")
	}
	if opts.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	if opts.Limit > MaxSearchLimit {
		return fmt.Errorf("limit cannot exceed %d (requested: %d)", MaxSearchLimit, opts.Limit)
	}
	if opts.Offset < 0 {
		return fmt.Errorf("offset cannot be negative")
	}
	return nil
}

// SearchResults contains matched nodes with pagination metadata.
// Results are ordered by path then name so pagination is deterministic.
type SearchResults struct {
	Results    []Node `json:"results"`
	TotalCount int    `json:"total_count"`
	HasMore    bool   `json:"has_more"`
	Offset     int    `json:"offset"`
	Limit      int    `json:"limit"`
}

// NewSearchResults creates a SearchResults with calculated HasMore flag
func NewSearchResults(results []Node, totalCount int, opts *SearchOptions) *SearchResults {
	return &SearchResults{
		Results:    results,
		TotalCount: totalCount,
		HasMore:    (opts.Offset + len(results)) < totalCount,
		Offset:     opts.Offset,
		Limit:      opts.Limit,
	}
}
