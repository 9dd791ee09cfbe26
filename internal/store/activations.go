package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/erazemk/itemadmin/internal/model"
)

// CreateActivation creates a pending activation with a random code.
func CreateActivation(ctx context.Context, db *sql.DB, userID int64) (*model.Activation, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generating activation code: %w", err)
	}
	code := hex.EncodeToString(buf)

	result, err := db.ExecContext(ctx,
		`INSERT INTO activations (user_id, code) VALUES (?, ?)`,
		userID, code,
	)
	if err != nil {
		return nil, fmt.Errorf("creating activation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting activation id: %w", err)
	}

	return &model.Activation{ID: id, UserID: userID, Code: code}, nil
}

// CompleteActivation marks the pending activation with code as completed.
// It reports whether a pending activation was found.
func CompleteActivation(ctx context.Context, db *sql.DB, userID int64, code string) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE activations SET completed = 1, completed_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND code = ? AND completed = 0`,
		userID, code,
	)
	if err != nil {
		return false, fmt.Errorf("completing activation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("completing activation: %w", err)
	}
	return n > 0, nil
}

// ListActivations returns a user's activations, oldest first.
func ListActivations(ctx context.Context, db *sql.DB, userID int64) ([]model.Activation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, code, completed, completed_at, created_at
		 FROM activations WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing activations: %w", err)
	}
	defer rows.Close()

	var activations []model.Activation
	for rows.Next() {
		var a model.Activation
		if err := rows.Scan(&a.ID, &a.UserID, &a.Code, &a.Completed, &a.CompletedAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activation: %w", err)
		}
		activations = append(activations, a)
	}
	return activations, rows.Err()
}
