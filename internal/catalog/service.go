package catalog

import (
	"context"

	"github.com/nerrad567/keygate/internal/auth"
	"github.com/nerrad567/keygate/internal/events"
)

// Publisher receives catalog.changed events. Satisfied by *events.Bus.
type Publisher interface {
	Publish(e events.Event)
}

// Catalog operations reported in the "op" detail of catalog.changed.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// Service wraps a Repository and announces every successful change.
type Service struct {
	repo Repository
	pub  Publisher
}

// NewService creates a Service. A nil pub discards events.
func NewService(repo Repository, pub Publisher) *Service {
	return &Service{repo: repo, pub: pub}
}

func (s *Service) changed(ctx context.Context, entityType, id, op string) {
	if s.pub == nil {
		return
	}
	e := events.New(events.TypeCatalogChanged, entityType, id).With("op", op)
	if u, ok := auth.UserFromContext(ctx); ok {
		e = e.By(u.ID)
	}
	s.pub.Publish(e)
}

func (s *Service) CreateBrand(ctx context.Context, b *Brand) error {
	if err := s.repo.CreateBrand(ctx, b); err != nil {
		return err
	}
	s.changed(ctx, "brand", b.ID, OpCreated)
	return nil
}

func (s *Service) ListBrands(ctx context.Context) ([]Brand, error) {
	return s.repo.ListBrands(ctx)
}

func (s *Service) GetBrand(ctx context.Context, id string) (*Brand, error) {
	return s.repo.GetBrand(ctx, id)
}

func (s *Service) UpdateBrand(ctx context.Context, id string, patch BrandPatch) (*Brand, error) {
	b, err := s.repo.UpdateBrand(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, "brand", id, OpUpdated)
	return b, nil
}

func (s *Service) DeleteBrand(ctx context.Context, id string) error {
	if err := s.repo.DeleteBrand(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, "brand", id, OpDeleted)
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, c *Category) error {
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return err
	}
	s.changed(ctx, "category", c.ID, OpCreated)
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id string) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *Service) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*Category, error) {
	c, err := s.repo.UpdateCategory(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, "category", id, OpUpdated)
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, "category", id, OpDeleted)
	return nil
}

func (s *Service) CreateSubcategory(ctx context.Context, sub *Subcategory) error {
	if err := s.repo.CreateSubcategory(ctx, sub); err != nil {
		return err
	}
	s.changed(ctx, "subcategory", sub.ID, OpCreated)
	return nil
}

func (s *Service) ListSubcategories(ctx context.Context) ([]Subcategory, error) {
	return s.repo.ListSubcategories(ctx)
}

func (s *Service) ListSubcategoriesByCategory(ctx context.Context, categoryID string) ([]Subcategory, error) {
	return s.repo.ListSubcategoriesByCategory(ctx, categoryID)
}

func (s *Service) GetSubcategory(ctx context.Context, id string) (*Subcategory, error) {
	return s.repo.GetSubcategory(ctx, id)
}

func (s *Service) UpdateSubcategory(ctx context.Context, id string, patch SubcategoryPatch) (*Subcategory, error) {
	sub, err := s.repo.UpdateSubcategory(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, "subcategory", id, OpUpdated)
	return sub, nil
}

func (s *Service) DeleteSubcategory(ctx context.Context, id string) error {
	if err := s.repo.DeleteSubcategory(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, "subcategory", id, OpDeleted)
	return nil
}
