package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dsmolkin/refind/internal/models"
)

func setupItemMock(t *testing.T) (*PostgresItemRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresItemRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func itemRows(items ...models.Item) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "owner_id", "type", "title", "description", "category",
		"location", "status", "date_reported", "created_at", "updated_at",
	})
	for _, it := range items {
		rows.AddRow(it.ID, it.OwnerID, it.Type, it.Title, it.Description,
			it.Category, it.Location, it.Status, it.DateReported, it.CreatedAt, it.UpdatedAt)
	}
	return rows
}

func TestCreate_Success(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO items`)).
		WithArgs(int64(1), models.ItemLost, "Black umbrella", "left on bus 12", "accessories", "Riverside", models.StatusOpen, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(5), now, now))

	item, err := repo.Create(context.Background(), models.Item{
		OwnerID:      1,
		Type:         models.ItemLost,
		Title:        "Black umbrella",
		Description:  "left on bus 12",
		Category:     "accessories",
		Location:     "Riverside",
		Status:       models.StatusOpen,
		DateReported: now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID != 5 {
		t.Errorf("expected id 5, got %d", item.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM items WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(itemRows())

	_, err := repo.GetByID(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSearch_NoFilters(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`SELECT .+ FROM items WHERE status = 'open' ORDER BY created_at DESC`).
		WillReturnRows(itemRows(models.Item{
			ID: 1, OwnerID: 2, Type: models.ItemFound, Title: "Keys",
			Status: models.StatusOpen, DateReported: now, CreatedAt: now, UpdatedAt: now,
		}))

	items, err := repo.Search(context.Background(), ItemFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Keys" {
		t.Errorf("unexpected items: %+v", items)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestSearch_AllFilters(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM items WHERE status = 'open' AND type = \$1 AND category = \$2 AND location = \$3 AND \(title ILIKE \$4 OR description ILIKE \$4\)`).
		WithArgs(models.ItemLost, "electronics", "Main station", "%phone%").
		WillReturnRows(itemRows())

	items, err := repo.Search(context.Background(), ItemFilter{
		Type:     models.ItemLost,
		Category: "electronics",
		Location: "Main station",
		Query:    "phone",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE items SET status = \$1, updated_at = now\(\) WHERE id = \$2`).
		WithArgs(models.StatusResolved, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), 3, models.StatusResolved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE items SET status = \$1, updated_at = now\(\) WHERE id = \$2`).
		WithArgs(models.StatusResolved, int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), 404, models.StatusResolved)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM items WHERE id = $1`)).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), 8); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestAddImage_And_ImagesByItem(t *testing.T) {
	repo, mock, cleanup := setupItemMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO item_images (id, item_id, image_url) VALUES ($1, $2, $3)`)).
		WithArgs("img-1", int64(2), "/uploads/img-1.jpg").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.AddImage(context.Background(), models.ItemImage{ID: "img-1", ItemID: 2, URL: "/uploads/img-1.jpg"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, item_id, image_url FROM item_images WHERE item_id = $1`)).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "image_url"}).
			AddRow("img-1", int64(2), "/uploads/img-1.jpg"))

	images, err := repo.ImagesByItem(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(images) != 1 || images[0].ID != "img-1" {
		t.Errorf("unexpected images: %+v", images)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
