package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dsmolkin/refind/internal/models"
)

// ItemFilter narrows a listings search. Zero-value fields are ignored.
type ItemFilter struct {
	// Type restricts to lost or found listings.
	Type models.ItemType
	// Category matches the listing category exactly.
	Category string
	// Location matches the listing location exactly.
	Location string
	// Query matches title or description, case-insensitive substring.
	Query string
}

// PostgresItemRepository implements listing persistence against a PostgreSQL database.
type PostgresItemRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresItemRepository creates a new PostgresItemRepository using the provided *sql.DB.
// db must be a valid connection to a PostgreSQL instance.
func NewPostgresItemRepository(db *sql.DB) *PostgresItemRepository {
	return &PostgresItemRepository{DB: db}
}

const itemColumns = `id, owner_id, type, title, COALESCE(description, ''), COALESCE(category, ''), COALESCE(location, ''), status, date_reported, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (models.Item, error) {
	var it models.Item
	err := row.Scan(
		&it.ID, &it.OwnerID, &it.Type, &it.Title, &it.Description,
		&it.Category, &it.Location, &it.Status, &it.DateReported,
		&it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}

// Create inserts a new listing and returns it with generated fields filled in.
func (r *PostgresItemRepository) Create(ctx context.Context, item models.Item) (models.Item, error) {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO items (owner_id, type, title, description, category, location, status, date_reported)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, item.OwnerID, item.Type, item.Title, item.Description, item.Category,
		item.Location, item.Status, item.DateReported,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return models.Item{}, fmt.Errorf("Create: %w", err)
	}
	return item, nil
}

// GetByID fetches a single listing. Returns ErrNotFound if it does not exist.
func (r *PostgresItemRepository) GetByID(ctx context.Context, id int64) (models.Item, error) {
	item, err := scanItem(r.DB.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return models.Item{}, ErrNotFound
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("GetByID: %w", err)
	}
	return item, nil
}

// Search returns open listings matching the filter, newest first.
func (r *PostgresItemRepository) Search(ctx context.Context, filter ItemFilter) ([]models.Item, error) {
	var (
		conds = []string{"status = 'open'"}
		args  []any
	)
	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Location != "" {
		args = append(args, filter.Location)
		conds = append(conds, fmt.Sprintf("location = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListAll returns every listing regardless of status, newest first.
func (r *PostgresItemRepository) ListAll(ctx context.Context) ([]models.Item, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateStatus sets the lifecycle status of a listing.
// Returns ErrNotFound if the listing does not exist.
func (r *PostgresItemRepository) UpdateStatus(ctx context.Context, id int64, status models.ItemStatus) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE items SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a listing and, via cascade, its images.
// Returns ErrNotFound if the listing does not exist.
func (r *PostgresItemRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// AddImage attaches a stored image record to a listing.
func (r *PostgresItemRepository) AddImage(ctx context.Context, img models.ItemImage) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO item_images (id, item_id, image_url) VALUES ($1, $2, $3)
	`, img.ID, img.ItemID, img.URL)
	if err != nil {
		return fmt.Errorf("AddImage: %w", err)
	}
	return nil
}

// ImagesByItem returns all images attached to the listing.
func (r *PostgresItemRepository) ImagesByItem(ctx context.Context, itemID int64) ([]models.ItemImage, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, item_id, image_url FROM item_images WHERE item_id = $1
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("ImagesByItem: %w", err)
	}
	defer rows.Close()

	var images []models.ItemImage
	for rows.Next() {
		var img models.ItemImage
		if err := rows.Scan(&img.ID, &img.ItemID, &img.URL); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
