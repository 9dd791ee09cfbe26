package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/itemadmin/internal/model"
)

// ErrInUse is returned when deleting a record that others still reference.
var ErrInUse = errors.New("in use")

// EnchantmentRepository looks up enchantments for the item service.
type EnchantmentRepository struct {
	DB *sql.DB
}

// Find returns the enchantment, or nil if it does not exist.
func (r *EnchantmentRepository) Find(ctx context.Context, id int64) (*model.Enchantment, error) {
	return GetEnchantment(ctx, r.DB, id)
}

// CreateEnchantment creates a new enchantment.
func CreateEnchantment(ctx context.Context, db *sql.DB, name, gameID string) (*model.Enchantment, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO enchantments (name, game_id) VALUES (?, ?)`,
		name, gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating enchantment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting enchantment id: %w", err)
	}

	return GetEnchantment(ctx, db, id)
}

// GetEnchantment returns an enchantment by ID.
func GetEnchantment(ctx context.Context, db *sql.DB, id int64) (*model.Enchantment, error) {
	e := &model.Enchantment{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, game_id, created_at FROM enchantments WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &e.GameID, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting enchantment: %w", err)
	}
	return e, nil
}

// ListEnchantments returns all enchantments ordered by name.
func ListEnchantments(ctx context.Context, db *sql.DB) ([]model.Enchantment, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, game_id, created_at FROM enchantments ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing enchantments: %w", err)
	}
	defer rows.Close()

	var enchantments []model.Enchantment
	for rows.Next() {
		var e model.Enchantment
		if err := rows.Scan(&e.ID, &e.Name, &e.GameID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning enchantment: %w", err)
		}
		enchantments = append(enchantments, e)
	}
	return enchantments, rows.Err()
}

// DeleteEnchantment deletes an enchantment. It fails while items still use it.
func DeleteEnchantment(ctx context.Context, db *sql.DB, id int64) error {
	var used int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enchantment_items WHERE enchantment_id = ?`, id,
	).Scan(&used)
	if err != nil {
		return fmt.Errorf("checking enchantment usage: %w", err)
	}
	if used > 0 {
		return fmt.Errorf("%w: enchantment is used by %d item(s)", ErrInUse, used)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM enchantments WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting enchantment: %w", err)
	}
	return nil
}
