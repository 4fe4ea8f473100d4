package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/recall/internal/domain"
	"github.com/conorfennell/recall/internal/scheduler"
	"github.com/conorfennell/recall/internal/storage"
)

type addRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Category string `json:"category"`
}

// reviewRequest carries Quality as a float so a fractional rating reaches
// the range check below instead of dying as a decode error; the rating
// must still be a whole number in 1..5.
type reviewRequest struct {
	ItemID         int64   `json:"item_id" validate:"required,gt=0"`
	Quality        float64 `json:"quality"`
	ResponseTimeMs *int    `json:"response_time_ms" validate:"omitempty,gte=0"`
}

type deleteRequest struct {
	ItemID int64 `json:"item_id" validate:"required,gt=0"`
}

type sourceRequest struct {
	Path string `json:"path" validate:"required"`
}

// handleDue returns the items waiting for review, soonest first. An
// optional ?limit= overrides the configured session size.
func (s *Server) handleDue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		limit := s.dueLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if v, err := strconv.Atoi(raw); err == nil && v > 0 {
				limit = v
			}
		}

		items, err := s.store.DueItems(limit)
		if err != nil {
			s.serverError(w, "failed to load due items", err)
			return
		}
		s.respondJSON(w, http.StatusOK, itemsOrEmpty(items))
	}
}

// handleItems returns the whole collection, optionally filtered with
// ?category=.
func (s *Server) handleItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		items, err := s.store.AllItems(r.URL.Query().Get("category"))
		if err != nil {
			s.serverError(w, "failed to load items", err)
			return
		}
		s.respondJSON(w, http.StatusOK, itemsOrEmpty(items))
	}
}

// handleAdd creates an item from a JSON body.
func (s *Server) handleAdd() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req addRequest
		if !s.decode(w, r, &req) {
			return
		}
		if err := s.validate.Struct(req); err != nil {
			s.respondFailure(w, http.StatusOK, "question and answer are required")
			return
		}

		item, err := s.store.CreateItem(domain.MemoryItem{
			Question: req.Question,
			Answer:   req.Answer,
			Category: req.Category,
		})
		switch {
		case errors.Is(err, storage.ErrEmptyContent):
			s.respondFailure(w, http.StatusOK, "question and answer are required")
		case err != nil:
			s.serverError(w, "failed to create item", err)
		default:
			s.respondJSON(w, http.StatusOK, map[string]any{"success": true, "item_id": item.ID})
		}
	}
}

// handleReview grades an item and advances its schedule.
func (s *Server) handleReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			// A rating of the wrong JSON type is an invalid rating, not
			// a malformed body.
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && typeErr.Field == "quality" {
				s.respondFailure(w, http.StatusOK, "quality must be an integer between 1 and 5")
			} else {
				s.respondFailure(w, http.StatusBadRequest, "request body must be valid JSON")
			}
			return
		}
		if err := s.validate.Struct(req); err != nil {
			if firstInvalidField(err) == "ResponseTimeMs" {
				s.respondFailure(w, http.StatusOK, "response time must be a non-negative integer")
			} else {
				s.respondFailure(w, http.StatusOK, "a valid item id is required")
			}
			return
		}
		q := scheduler.Quality(req.Quality)
		if float64(q) != req.Quality || !q.IsValid() {
			s.respondFailure(w, http.StatusOK, "quality must be an integer between 1 and 5")
			return
		}

		_, err := s.store.RecordReview(req.ItemID, q, req.ResponseTimeMs)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.respondFailure(w, http.StatusOK, "item not found")
		case errors.Is(err, scheduler.ErrInvalidQuality):
			s.respondFailure(w, http.StatusOK, "quality must be an integer between 1 and 5")
		case err != nil:
			s.serverError(w, "failed to record review", err)
		default:
			s.respondJSON(w, http.StatusOK, map[string]any{"success": true})
		}
	}
}

// handleDelete removes an item and its history.
func (s *Server) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req deleteRequest
		if !s.decode(w, r, &req) {
			return
		}
		if err := s.validate.Struct(req); err != nil {
			s.respondFailure(w, http.StatusOK, "a valid item id is required")
			return
		}

		err := s.store.DeleteItem(req.ItemID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			s.respondFailure(w, http.StatusOK, "item not found")
		case err != nil:
			s.serverError(w, "failed to delete item", err)
		default:
			s.respondJSON(w, http.StatusOK, map[string]any{"success": true})
		}
	}
}

// handleHistory returns an item's review log, oldest first.
func (s *Server) handleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil || id <= 0 {
			s.respondFailure(w, http.StatusBadRequest, "a valid item id is required")
			return
		}

		events, err := s.store.History(id)
		if err != nil {
			s.serverError(w, "failed to load history", err)
			return
		}
		if events == nil {
			events = []domain.ReviewEvent{}
		}
		s.respondJSON(w, http.StatusOK, events)
	}
}

// handleStats summarizes the collection.
func (s *Server) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		stats, err := s.store.Stats()
		if err != nil {
			s.serverError(w, "failed to load stats", err)
			return
		}
		s.respondJSON(w, http.StatusOK, stats)
	}
}

// handleCategories lists the categories in use.
func (s *Server) handleCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		categories, err := s.store.Categories()
		if err != nil {
			s.serverError(w, "failed to load categories", err)
			return
		}
		if categories == nil {
			categories = []string{}
		}
		s.respondJSON(w, http.StatusOK, categories)
	}
}

// handleSources lists registered deck sources on GET and registers a new
// one on POST.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			sources, err := s.store.Sources()
			if err != nil {
				s.serverError(w, "failed to load sources", err)
				return
			}
			if sources == nil {
				sources = []domain.Source{}
			}
			s.respondJSON(w, http.StatusOK, sources)
		case http.MethodPost:
			var req sourceRequest
			if !s.decode(w, r, &req) {
				return
			}
			if err := s.validate.Struct(req); err != nil {
				s.respondFailure(w, http.StatusOK, "a source path or git URL is required")
				return
			}
			source, err := s.store.AddSource(req.Path)
			if err != nil {
				s.serverError(w, "failed to add source", err)
				return
			}
			s.respondJSON(w, http.StatusOK, map[string]any{"success": true, "source": source})
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handleSync reconciles every source in the foreground and reports what
// changed.
func (s *Server) handleSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		report, err := s.syncer.SyncAll(r.Context())
		if err != nil {
			s.serverError(w, "failed to sync sources", err)
			return
		}
		s.respondJSON(w, http.StatusOK, map[string]any{"success": true, "report": report})
	}
}

// decode reads a JSON body into dst, answering the request itself when
// the body does not parse.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondFailure(w, http.StatusBadRequest, "request body must be valid JSON")
		return false
	}
	return true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}

func (s *Server) respondFailure(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]any{"success": false, "error": msg})
}

func (s *Server) serverError(w http.ResponseWriter, msg string, err error) {
	s.log.Error(msg, "error", err)
	s.respondFailure(w, http.StatusInternalServerError, "internal error")
}

func firstInvalidField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}

// itemsOrEmpty keeps empty results encoding as [] rather than null.
func itemsOrEmpty(items []domain.MemoryItem) []domain.MemoryItem {
	if items == nil {
		return []domain.MemoryItem{}
	}
	return items
}
