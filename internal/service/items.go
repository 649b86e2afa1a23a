package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dsmolkin/refind/internal/models"
	"github.com/dsmolkin/refind/internal/repository"
)

// ItemRepository defines the persistence operations required by the ItemService.
type ItemRepository interface {
	Create(ctx context.Context, item models.Item) (models.Item, error)
	GetByID(ctx context.Context, id int64) (models.Item, error)
	Search(ctx context.Context, filter repository.ItemFilter) ([]models.Item, error)
	ListAll(ctx context.Context) ([]models.Item, error)
	UpdateStatus(ctx context.Context, id int64, status models.ItemStatus) error
	Delete(ctx context.Context, id int64) error
	AddImage(ctx context.Context, img models.ItemImage) error
	ImagesByItem(ctx context.Context, itemID int64) ([]models.ItemImage, error)
}

// ItemDetail is a listing together with its attached images.
type ItemDetail struct {
	models.Item
	Images []models.ItemImage `json:"images"`
}

// ItemService implements listing management.
type ItemService struct {
	repo ItemRepository
}

// NewItemService constructs an ItemService with the provided repository.
func NewItemService(repo ItemRepository) *ItemService {
	return &ItemService{repo: repo}
}

// CreateItem records a new lost or found listing for the owner.
// The listing starts in status open; a zero DateReported defaults to now.
func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, item models.Item) (models.Item, error) {
	item.OwnerID = ownerID
	item.Status = models.StatusOpen
	if item.DateReported.IsZero() {
		item.DateReported = time.Now()
	}

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return models.Item{}, fmt.Errorf("service.CreateItem: %w", err)
	}
	return created, nil
}

// GetItem returns a listing with its images.
func (s *ItemService) GetItem(ctx context.Context, id int64) (ItemDetail, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ItemDetail{}, err
	}
	images, err := s.repo.ImagesByItem(ctx, id)
	if err != nil {
		return ItemDetail{}, fmt.Errorf("service.GetItem: %w", err)
	}
	return ItemDetail{Item: item, Images: images}, nil
}

// Search returns open listings matching the filter.
func (s *ItemService) Search(ctx context.Context, filter repository.ItemFilter) ([]models.Item, error) {
	return s.repo.Search(ctx, filter)
}

// ListAll returns every listing for the admin dashboard.
func (s *ItemService) ListAll(ctx context.Context) ([]models.Item, error) {
	return s.repo.ListAll(ctx)
}

// UpdateStatus moves a listing to the given lifecycle status.
func (s *ItemService) UpdateStatus(ctx context.Context, id int64, status models.ItemStatus) error {
	return s.repo.UpdateStatus(ctx, id, status)
}

// DeleteItem removes a listing entirely.
func (s *ItemService) DeleteItem(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// AttachImage records an uploaded image URL against a listing,
// assigning it a fresh storage identifier.
func (s *ItemService) AttachImage(ctx context.Context, itemID int64, url string) (models.ItemImage, error) {
	img := models.ItemImage{
		ID:     uuid.NewString(),
		ItemID: itemID,
		URL:    url,
	}
	if err := s.repo.AddImage(ctx, img); err != nil {
		return models.ItemImage{}, fmt.Errorf("service.AttachImage: %w", err)
	}
	return img, nil
}
