package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/erazemk/itemadmin/internal/model"
)

// ItemRepository persists items for the item service.
type ItemRepository struct {
	DB *sql.DB
}

// Create inserts the item.
func (r *ItemRepository) Create(ctx context.Context, item *model.Item) error {
	return CreateItem(ctx, r.DB, item)
}

// CreateItem inserts an item and its enchantments in one transaction,
// keeping the enchantment order. It sets the generated IDs on item.
func CreateItem(ctx context.Context, db *sql.DB, item *model.Item) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var extra any
	if len(item.Extra) > 0 {
		extra = string(item.Extra)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO items (name, type, game_id, description, image, extra) VALUES (?, ?, ?, ?, ?, ?)`,
		item.Name, item.Type, item.GameID, item.Description, item.Image, extra,
	)
	if err != nil {
		return fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting item id: %w", err)
	}

	for i := range item.Enchantments {
		ei := &item.Enchantments[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO enchantment_items (item_id, enchantment_id, level, position) VALUES (?, ?, ?, ?)`,
			id, ei.EnchantmentID, ei.Level, i,
		)
		if err != nil {
			return fmt.Errorf("attaching enchantment %d: %w", ei.EnchantmentID, err)
		}
		eiID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting enchantment item id: %w", err)
		}
		ei.ID = eiID
		ei.ItemID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item: %w", err)
	}

	item.ID = id
	return nil
}

const itemColumns = `id, name, type, game_id, description, image, extra, created_at`

func scanItem(row interface{ Scan(...any) error }, item *model.Item) error {
	var description, image, extra sql.NullString
	if err := row.Scan(&item.ID, &item.Name, &item.Type, &item.GameID, &description, &image, &extra, &item.CreatedAt); err != nil {
		return err
	}
	item.Description = description.String
	if image.Valid {
		item.Image = &image.String
	}
	if extra.Valid {
		item.Extra = json.RawMessage(extra.String)
	}
	item.Enchantments = []model.EnchantmentItem{}
	return nil
}

// GetItem returns an item with its enchantments by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item := &model.Item{}
	err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	), item)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	byItem, err := listEnchantmentItems(ctx, db, `WHERE ei.item_id = ?`, id)
	if err != nil {
		return nil, err
	}
	if e, ok := byItem[id]; ok {
		item.Enchantments = e
	}
	return item, nil
}

// ListItems returns all items, optionally filtered by type.
func ListItems(ctx context.Context, db *sql.DB, itemType string) ([]model.Item, error) {
	var rows *sql.Rows
	var err error

	if itemType != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM items WHERE type = ? ORDER BY name, id`, itemType,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM items ORDER BY name, id`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := scanItem(rows, &item); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("listing items: %w", err)
	}
	// Close before the next query; the test database has a single connection.
	rows.Close()

	if len(items) == 0 {
		return items, nil
	}

	byItem, err := listEnchantmentItems(ctx, db, ``)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if e, ok := byItem[items[i].ID]; ok {
			items[i].Enchantments = e
		}
	}
	return items, nil
}

func listEnchantmentItems(ctx context.Context, db *sql.DB, where string, args ...any) (map[int64][]model.EnchantmentItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT ei.id, ei.item_id, ei.enchantment_id, ei.level, e.name
		 FROM enchantment_items ei
		 JOIN enchantments e ON e.id = ei.enchantment_id
		 `+where+`
		 ORDER BY ei.item_id, ei.position`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item enchantments: %w", err)
	}
	defer rows.Close()

	byItem := map[int64][]model.EnchantmentItem{}
	for rows.Next() {
		var ei model.EnchantmentItem
		if err := rows.Scan(&ei.ID, &ei.ItemID, &ei.EnchantmentID, &ei.Level, &ei.EnchantmentName); err != nil {
			return nil, fmt.Errorf("scanning item enchantment: %w", err)
		}
		byItem[ei.ItemID] = append(byItem[ei.ItemID], ei)
	}
	return byItem, rows.Err()
}

// DeleteItem deletes an item together with its enchantments.
// It reports whether an item was deleted.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) (bool, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return n > 0, nil
}

// CountItemsWithImage returns how many items use the named image.
func CountItemsWithImage(ctx context.Context, db *sql.DB, image string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE image = ?`, image,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting items with image: %w", err)
	}
	return n, nil
}
