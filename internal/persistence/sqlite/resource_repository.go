package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/lab-scheduler/internal/persistence"
)

const resourceColumns = "id, name, hardware, software, enabled, allowed_categories, created_at, updated_at"

// CreateResource inserts a catalog entry and returns it with its assigned
// numeric identity.
func (s *Store) CreateResource(ctx context.Context, resource persistence.Resource) (persistence.Resource, error) {
	query := `
		INSERT INTO resources (name, hardware, software, enabled, allowed_categories, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		resource.Name,
		resource.Hardware,
		resource.Software,
		boolToInt(resource.Enabled),
		joinCategories(resource.AllowedCategories),
		formatTime(resource.CreatedAt),
		formatTime(resource.UpdatedAt),
	)
	if err != nil {
		return persistence.Resource{}, mapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Resource{}, fmt.Errorf("sqlite: resource id: %w", err)
	}
	return s.GetResource(ctx, int(id))
}

// UpdateResource replaces the mutable fields of a catalog entry.
func (s *Store) UpdateResource(ctx context.Context, resource persistence.Resource) (persistence.Resource, error) {
	query := `
		UPDATE resources
		SET name = ?, hardware = ?, software = ?, enabled = ?, allowed_categories = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		resource.Name,
		resource.Hardware,
		resource.Software,
		boolToInt(resource.Enabled),
		joinCategories(resource.AllowedCategories),
		formatTime(resource.UpdatedAt),
		resource.ID,
	)
	if err != nil {
		return persistence.Resource{}, mapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.Resource{}, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.Resource{}, persistence.ErrNotFound
	}
	return s.GetResource(ctx, resource.ID)
}

// GetResource retrieves a catalog entry by identity.
func (s *Store) GetResource(ctx context.Context, id int) (persistence.Resource, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+resourceColumns+" FROM resources WHERE id = ?", id)
	return scanResource(row)
}

// ListResources returns the catalog ordered by identity.
func (s *Store) ListResources(ctx context.Context) ([]persistence.Resource, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+resourceColumns+" FROM resources ORDER BY id ASC")
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return resources, nil
}

// DeleteResource removes a catalog entry, refusing while reservations still
// reference it.
func (s *Store) DeleteResource(ctx context.Context, id int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRow("SELECT COUNT(*) FROM reservations WHERE resource_id = ?", id).Scan(&count); err != nil {
			return mapError(err)
		}
		if count > 0 {
			return persistence.ErrResourceInUse
		}

		result, err := tx.Exec("DELETE FROM resources WHERE id = ?", id)
		if err != nil {
			return mapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (persistence.Resource, error) {
	var resource persistence.Resource
	var enabled int
	var categories, createdAt, updatedAt string

	err := row.Scan(
		&resource.ID,
		&resource.Name,
		&resource.Hardware,
		&resource.Software,
		&enabled,
		&categories,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Resource{}, mapError(err)
	}

	resource.Enabled = enabled != 0
	resource.AllowedCategories = splitCategories(categories)
	if resource.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Resource{}, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if resource.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Resource{}, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return resource, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
