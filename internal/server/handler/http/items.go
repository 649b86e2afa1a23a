package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dsmolkin/refind/internal/middleware"
	"github.com/dsmolkin/refind/internal/models"
	"github.com/dsmolkin/refind/internal/repository"
	"github.com/dsmolkin/refind/internal/service"
)

// ItemService defines the interface for listing operations
// required by the HTTP handlers.
type ItemService interface {
	CreateItem(ctx context.Context, ownerID int64, item models.Item) (models.Item, error)
	GetItem(ctx context.Context, id int64) (service.ItemDetail, error)
	Search(ctx context.Context, filter repository.ItemFilter) ([]models.Item, error)
	ListAll(ctx context.Context) ([]models.Item, error)
	UpdateStatus(ctx context.Context, id int64, status models.ItemStatus) error
	DeleteItem(ctx context.Context, id int64) error
}

// MatchService ranks counterpart candidates for a listing.
type MatchService interface {
	MatchesForItem(ctx context.Context, itemID int64) ([]models.Match, error)
}

// ItemHandler handles HTTP requests for listings and matches.
type ItemHandler struct {
	ItemService  ItemService
	MatchService MatchService
}

// CreateItemRequest represents the JSON payload for posting a listing.
type CreateItemRequest struct {
	Type         models.ItemType `json:"type"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	Location     string          `json:"location"`
	DateReported time.Time       `json:"date_reported"`
}

// Create handles POST /api/items.
// The owner is taken from the verified token, never from the payload.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Type != models.ItemLost && req.Type != models.ItemFound {
		http.Error(w, "type must be lost or found", http.StatusBadRequest)
		return
	}

	item, err := h.ItemService.CreateItem(r.Context(), claims.UserID, models.Item{
		Type:         req.Type,
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Location:     req.Location,
		DateReported: req.DateReported,
	})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(item)
}

// Search handles GET /api/items/search with optional query parameters
// type, category, location and q.
func (h *ItemHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ItemFilter{
		Type:     models.ItemType(q.Get("type")),
		Category: q.Get("category"),
		Location: q.Get("location"),
		Query:    q.Get("q"),
	}

	items, err := h.ItemService.Search(r.Context(), filter)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.Item{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

// Get handles GET /api/items/{id} and returns the listing with its images.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	detail, err := h.ItemService.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(detail)
}

// Matches handles GET /api/items/{id}/matches and returns the ranked
// similarity list for the listing.
func (h *ItemHandler) Matches(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	matches, err := h.MatchService.MatchesForItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		http.Error(w, "matcher unavailable", http.StatusBadGateway)
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"matches": matches})
}

// ListAll handles GET /api/admin/items.
func (h *ItemHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.ItemService.ListAll(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.Item{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

// UpdateStatus handles PATCH /api/admin/items/{id}/status.
func (h *ItemHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status models.ItemStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	switch req.Status {
	case models.StatusOpen, models.StatusMatched, models.StatusResolved:
	default:
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	if err := h.ItemService.UpdateStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/admin/items/{id}.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	if err := h.ItemService.DeleteItem(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func itemID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
