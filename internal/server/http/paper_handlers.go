package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// setScreeningRequest is the JSON request body for recording a screening decision.
type setScreeningRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// listPapers handles GET /papers.
// It returns a paginated list of papers, optionally filtered by screening
// status. The status filter accepts pending, included, excluded, maybe, and
// the "all" sentinel; an absent filter means all. The response also carries
// the collection-wide per-status counts, which always cover the full store
// regardless of the filter.
func (s *Server) listPapers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePaginationParams(r)
	statusFilter := r.URL.Query().Get("status")

	papers, totalCount, err := s.svc.ListPapers(r.Context(), statusFilter, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	filter := statusFilter
	if filter == "" {
		filter = "all"
	}

	responses := make([]paperResponse, len(papers))
	for i, p := range papers {
		responses[i] = domainPaperToResponse(p)
	}

	statsResp := domainStatsToResponse(stats)
	writeJSON(w, http.StatusOK, listPapersResponse{
		Papers:        responses,
		Stats:         &statsResp,
		Filter:        filter,
		NextPageToken: encodePageToken(offset, limit, int(totalCount)),
		TotalCount:    int(totalCount),
	})
}

// listPapersByLabels handles GET /papers/by-labels.
// It returns papers whose label set contains every requested label. The
// "labels" query parameter may be repeated, and each value may itself be a
// comma-separated list; both forms combine.
func (s *Server) listPapersByLabels(w http.ResponseWriter, r *http.Request) {
	var labels []string
	for _, param := range r.URL.Query()["labels"] {
		labels = append(labels, strings.Split(param, ",")...)
	}

	limit, offset := parsePaginationParams(r)

	papers, totalCount, err := s.svc.ListPapersByLabels(r.Context(), labels, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	responses := make([]paperResponse, len(papers))
	for i, p := range papers {
		responses[i] = domainPaperToResponse(p)
	}

	writeJSON(w, http.StatusOK, listPapersResponse{
		Papers:        responses,
		Filter:        "labels",
		NextPageToken: encodePageToken(offset, limit, int(totalCount)),
		TotalCount:    int(totalCount),
	})
}

// getPaper handles GET /papers/{paperID}.
func (s *Server) getPaper(w http.ResponseWriter, r *http.Request) {
	paperID, ok := parseUUID(w, chi.URLParam(r, "paperID"), "paper_id")
	if !ok {
		return
	}

	paper, err := s.svc.Get(r.Context(), paperID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainPaperToResponse(paper))
}

// setScreeningStatus handles PUT /papers/{paperID}/screening.
// It records a screening decision for the paper. Any transition between
// valid statuses is accepted; notes always overwrite the stored notes.
func (s *Server) setScreeningStatus(w http.ResponseWriter, r *http.Request) {
	paperID, ok := parseUUID(w, chi.URLParam(r, "paperID"), "paper_id")
	if !ok {
		return
	}

	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var req setScreeningRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}

	if req.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}
	if len(req.Notes) > maxNotesLength {
		writeError(w, http.StatusBadRequest, "notes are too long")
		return
	}

	paper, err := s.svc.SetStatus(r.Context(), paperID, req.Status, req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainPaperToResponse(paper))
}

// assignLabels handles POST /papers/{paperID}/labels.
// It asks the classifier for topic labels and stores the result, replacing
// any labels the paper already had. No request body is expected.
func (s *Server) assignLabels(w http.ResponseWriter, r *http.Request) {
	paperID, ok := parseUUID(w, chi.URLParam(r, "paperID"), "paper_id")
	if !ok {
		return
	}

	paper, err := s.svc.AssignLabels(r.Context(), paperID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainPaperToResponse(paper))
}

// getStats handles GET /papers/stats.
// Counts are computed fresh on every request, never cached.
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, domainStatsToResponse(stats))
}
