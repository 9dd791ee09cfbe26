package model

import (
	"encoding/json"
	"time"
)

// Item is a purchasable shop entry. Image is nil when the default image is used.
type Item struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	GameID       string            `json:"game_id"`
	Description  string            `json:"description,omitempty"`
	Image        *string           `json:"image"`
	Extra        json.RawMessage   `json:"extra,omitempty"`
	Enchantments []EnchantmentItem `json:"enchantments"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Item types.
const (
	ItemTypeItem      = "item"
	ItemTypePermgroup = "permgroup"
)

// ValidItemType reports whether t is a known item type.
func ValidItemType(t string) bool {
	return t == ItemTypeItem || t == ItemTypePermgroup
}

// AcceptsEnchantments reports whether items of this type carry enchantments.
func (i *Item) AcceptsEnchantments() bool {
	return i.Type == ItemTypeItem
}

// AddEnchantment appends an association and links it to the item.
func (i *Item) AddEnchantment(ei EnchantmentItem) {
	ei.ItemID = i.ID
	i.Enchantments = append(i.Enchantments, ei)
}
