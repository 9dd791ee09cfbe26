package items

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/erazemk/itemadmin/internal/model"
)

// EnchantmentFinder looks up enchantments. Find returns (nil, nil) when the
// enchantment does not exist.
type EnchantmentFinder interface {
	Find(ctx context.Context, id int64) (*model.Enchantment, error)
}

// Repository persists new items.
type Repository interface {
	Create(ctx context.Context, item *model.Item) error
}

// ImageResolver resolves an image source to a stored name.
type ImageResolver interface {
	Resolve(ctx context.Context, src ImageSource) (*string, error)
}

// EnchantmentRef requests an enchantment at a level.
type EnchantmentRef struct {
	ID    int64
	Level int
}

// CreateRequest carries an already shape-validated item creation request.
type CreateRequest struct {
	Name         string
	Type         string
	GameID       string
	Description  string
	Extra        json.RawMessage
	Image        ImageSource
	Enchantments []EnchantmentRef
}

// Service creates items.
type Service struct {
	items        Repository
	enchantments EnchantmentFinder
	images       ImageResolver
}

// NewService creates an item service.
func NewService(items Repository, enchantments EnchantmentFinder, images ImageResolver) *Service {
	return &Service{items: items, enchantments: enchantments, images: images}
}

// Create builds the item and persists it. Enchantments are checked before
// the image is resolved, so a missing enchantment never leaves an uploaded
// file behind.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Item, error) {
	item, err := s.Assemble(ctx, req, nil)
	if err != nil {
		return nil, err
	}

	image, err := s.images.Resolve(ctx, req.Image)
	if err != nil {
		return nil, err
	}
	item.Image = image

	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	slog.Info("item created", "id", item.ID, "name", item.Name, "type", item.Type, "enchantments", len(item.Enchantments))
	return item, nil
}

// Assemble builds an item from req with the given resolved image. For the
// regular item type every requested enchantment is looked up in order; the
// first missing one aborts assembly and no item is returned. Enchantment
// requests are ignored for other types.
func (s *Service) Assemble(ctx context.Context, req CreateRequest, image *string) (*model.Item, error) {
	item := &model.Item{
		Name:         req.Name,
		Type:         req.Type,
		GameID:       req.GameID,
		Description:  req.Description,
		Image:        image,
		Extra:        req.Extra,
		Enchantments: []model.EnchantmentItem{},
	}

	if !item.AcceptsEnchantments() {
		return item, nil
	}

	for _, ref := range req.Enchantments {
		e, err := s.enchantments.Find(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("finding enchantment %d: %w", ref.ID, err)
		}
		if e == nil {
			return nil, &DoesNotExistError{ID: ref.ID}
		}

		item.AddEnchantment(model.EnchantmentItem{
			EnchantmentID:   e.ID,
			Level:           ref.Level,
			EnchantmentName: e.Name,
		})
	}

	return item, nil
}
