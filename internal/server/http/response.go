package httpserver

import (
	"time"

	"github.com/helixir/screening-service/internal/domain"
)

// Paper response types for JSON serialization.

type paperResponse struct {
	ID              string           `json:"id"`
	BibtexID        string           `json:"bibtex_id"`
	Title           string           `json:"title"`
	Authors         []authorResponse `json:"authors,omitempty"`
	Year            int              `json:"year,omitempty"`
	PublicationDate string           `json:"publication_date,omitempty"`
	Journal         string           `json:"journal,omitempty"`
	Publisher       string           `json:"publisher,omitempty"`
	Volume          string           `json:"volume,omitempty"`
	DOI             string           `json:"doi,omitempty"`
	URL             string           `json:"url,omitempty"`
	ISBN            string           `json:"isbn,omitempty"`
	ISSN            string           `json:"issn,omitempty"`
	Abstract        string           `json:"abstract,omitempty"`
	Keywords        []string         `json:"keywords,omitempty"`
	ScreeningStatus string           `json:"screening_status"`
	ScreeningNotes  string           `json:"screening_notes,omitempty"`
	Labels          []string         `json:"labels"`
	ImportedFrom    string           `json:"imported_from,omitempty"`
	SourceFile      string           `json:"source_file,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type authorResponse struct {
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type listPapersResponse struct {
	Papers        []paperResponse `json:"papers"`
	Stats         *statsResponse  `json:"stats,omitempty"`
	Filter        string          `json:"filter"`
	NextPageToken string          `json:"next_page_token,omitempty"`
	TotalCount    int             `json:"total_count"`
}

type statsResponse struct {
	All      int64 `json:"all"`
	Pending  int64 `json:"pending"`
	Included int64 `json:"included"`
	Excluded int64 `json:"excluded"`
	Maybe    int64 `json:"maybe"`
}

// Converter functions

func domainPaperToResponse(p *domain.Paper) paperResponse {
	authors := make([]authorResponse, len(p.Authors))
	for i, a := range p.Authors {
		authors[i] = authorResponse{
			FullName:  a.FullName,
			FirstName: a.FirstName,
			LastName:  a.LastName,
		}
	}

	labels := p.Labels
	if labels == nil {
		labels = []string{}
	}

	return paperResponse{
		ID:              p.ID.String(),
		BibtexID:        p.BibtexID,
		Title:           p.Title,
		Authors:         authors,
		Year:            p.Year,
		PublicationDate: p.PublicationDate,
		Journal:         p.Journal,
		Publisher:       p.Publisher,
		Volume:          p.Volume,
		DOI:             p.DOI,
		URL:             p.URL,
		ISBN:            p.ISBN,
		ISSN:            p.ISSN,
		Abstract:        p.Abstract,
		Keywords:        p.Keywords,
		ScreeningStatus: string(p.ScreeningStatus),
		ScreeningNotes:  p.ScreeningNotes,
		Labels:          labels,
		ImportedFrom:    p.ImportedFrom,
		SourceFile:      p.SourceFile,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func domainStatsToResponse(s domain.Stats) statsResponse {
	return statsResponse{
		All:      s.All,
		Pending:  s.Pending,
		Included: s.Included,
		Excluded: s.Excluded,
		Maybe:    s.Maybe,
	}
}
