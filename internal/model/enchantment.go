package model

import "time"

// Enchantment is a reference entity managed outside item creation.
type Enchantment struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	GameID    string    `json:"game_id"`
	CreatedAt time.Time `json:"created_at"`
}

// EnchantmentItem attaches an enchantment to an item at a given level.
// It refers to its item by ID only.
type EnchantmentItem struct {
	ID            int64 `json:"id"`
	ItemID        int64 `json:"item_id"`
	EnchantmentID int64 `json:"enchantment_id"`
	Level         int   `json:"level"`

	// Joined fields (not always populated).
	EnchantmentName string `json:"enchantment_name,omitempty"`
}
