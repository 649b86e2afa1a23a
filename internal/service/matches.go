package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/dsmolkin/refind/internal/models"
)

// MatchSource ranks counterpart candidates for a listing.
type MatchSource interface {
	MatchesForItem(ctx context.Context, itemID int64) ([]models.Match, error)
}

// MatchService returns ranked image-similarity matches for listings.
type MatchService struct {
	items  ItemRepository
	source MatchSource
}

// NewMatchService constructs a MatchService over the listing repository
// and the external similarity source.
func NewMatchService(items ItemRepository, source MatchSource) *MatchService {
	return &MatchService{items: items, source: source}
}

// MatchesForItem checks the listing exists and returns its ranked matches,
// best score first. The source order is not trusted.
func (s *MatchService) MatchesForItem(ctx context.Context, itemID int64) ([]models.Match, error) {
	if _, err := s.items.GetByID(ctx, itemID); err != nil {
		return nil, err
	}

	matches, err := s.source.MatchesForItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("service.MatchesForItem: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, nil
}
