// Package domain provides domain models and business logic for the Screening Service.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScreeningStatus represents the reviewer's triage decision for a paper.
// These values must match the database enum screening_status.
type ScreeningStatus string

const (
	ScreeningPending  ScreeningStatus = "pending"
	ScreeningIncluded ScreeningStatus = "included"
	ScreeningExcluded ScreeningStatus = "excluded"
	ScreeningMaybe    ScreeningStatus = "maybe"
)

// ScreeningStatuses returns every valid screening status in a stable order.
func ScreeningStatuses() []ScreeningStatus {
	return []ScreeningStatus{
		ScreeningPending,
		ScreeningIncluded,
		ScreeningExcluded,
		ScreeningMaybe,
	}
}

// IsValid returns true if the status is a member of the closed enumeration.
func (s ScreeningStatus) IsValid() bool {
	switch s {
	case ScreeningPending, ScreeningIncluded, ScreeningExcluded, ScreeningMaybe:
		return true
	default:
		return false
	}
}

// ParseScreeningStatus validates a caller-supplied status string against the
// closed enumeration. Unknown values, including client-side sentinels such as
// "to_label", are rejected and never persisted.
func ParseScreeningStatus(raw string) (ScreeningStatus, error) {
	s := ScreeningStatus(raw)
	if !s.IsValid() {
		return "", NewValidationError("screening_status",
			"must be one of: pending, included, excluded, maybe")
	}
	return s, nil
}

// StatusFilter is a listing filter: a concrete screening status or the
// "all" sentinel. The sentinel is only a query value, never a stored status.
type StatusFilter string

// StatusFilterAll selects every paper regardless of screening status.
const StatusFilterAll StatusFilter = "all"

// ParseStatusFilter validates a caller-supplied filter string. An empty
// string is treated as "all".
func ParseStatusFilter(raw string) (StatusFilter, error) {
	if raw == "" || StatusFilter(raw) == StatusFilterAll {
		return StatusFilterAll, nil
	}
	if !ScreeningStatus(raw).IsValid() {
		return "", NewValidationError("status",
			"must be one of: all, pending, included, excluded, maybe")
	}
	return StatusFilter(raw), nil
}

// Status returns the concrete screening status selected by the filter.
// ok is false for the "all" sentinel.
func (f StatusFilter) Status() (status ScreeningStatus, ok bool) {
	if f == StatusFilterAll {
		return "", false
	}
	return ScreeningStatus(f), true
}

// Author represents a paper author as imported from bibliographic data.
type Author struct {
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Paper represents an imported bibliographic record under review.
type Paper struct {
	ID              uuid.UUID
	BibtexID        string
	Title           string
	Authors         []Author
	Year            int
	PublicationDate string
	Journal         string
	Publisher       string
	Volume          string
	DOI             string
	URL             string
	ISBN            string
	ISSN            string
	Abstract        string
	Keywords        []string
	ScreeningStatus ScreeningStatus
	ScreeningNotes  string
	Labels          []string
	ImportedFrom    string
	SourceFile      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasAllLabels returns true if the paper carries every one of the given
// labels (superset match, not any-of).
func (p *Paper) HasAllLabels(labels []string) bool {
	for _, want := range labels {
		found := false
		for _, have := range p.Labels {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Stats holds the per-status paper counts derived from the full collection.
// It is recomputed on every request and never cached.
type Stats struct {
	All      int64 `json:"all"`
	Pending  int64 `json:"pending"`
	Included int64 `json:"included"`
	Excluded int64 `json:"excluded"`
	Maybe    int64 `json:"maybe"`
}

// NewStats builds Stats from a raw status→count mapping as returned by a
// grouped aggregation. Counts recorded under a status outside the
// enumeration are folded into pending, so All always equals the full
// collection size.
func NewStats(counts map[string]int64) Stats {
	var s Stats
	for status, n := range counts {
		switch ScreeningStatus(status) {
		case ScreeningIncluded:
			s.Included += n
		case ScreeningExcluded:
			s.Excluded += n
		case ScreeningMaybe:
			s.Maybe += n
		default:
			s.Pending += n
		}
	}
	s.All = s.Pending + s.Included + s.Excluded + s.Maybe
	return s
}
