package model

import "testing"

func TestValidItemType(t *testing.T) {
	for _, typ := range []string{ItemTypeItem, ItemTypePermgroup} {
		if !ValidItemType(typ) {
			t.Errorf("expected %q to be valid", typ)
		}
	}
	for _, typ := range []string{"", "Item", "currency"} {
		if ValidItemType(typ) {
			t.Errorf("expected %q to be invalid", typ)
		}
	}
}

func TestAddEnchantmentLinksItem(t *testing.T) {
	item := &Item{ID: 42, Type: ItemTypeItem}
	item.AddEnchantment(EnchantmentItem{EnchantmentID: 1, Level: 3})
	item.AddEnchantment(EnchantmentItem{EnchantmentID: 2, Level: 1})

	if len(item.Enchantments) != 2 {
		t.Fatalf("expected 2 enchantments, got %d", len(item.Enchantments))
	}
	for i, ei := range item.Enchantments {
		if ei.ItemID != 42 {
			t.Errorf("enchantment %d: expected item_id 42, got %d", i, ei.ItemID)
		}
	}
	if item.Enchantments[0].EnchantmentID != 1 || item.Enchantments[1].EnchantmentID != 2 {
		t.Error("expected enchantments in insertion order")
	}
}
