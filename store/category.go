package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gymstack/rbac/catalog"
	"github.com/gymstack/rbac/models"
	"github.com/gymstack/rbac/ordering"
	"gorm.io/gorm"
)

// CategoryStore handles the ordered category catalog of a module.
type CategoryStore struct{ DB *gorm.DB }

func NewCategoryStore(db *gorm.DB) *CategoryStore { return &CategoryStore{DB: db} }

// ListOrdered returns the module's categories in ascending sort order.
func (s *CategoryStore) ListOrdered(ctx context.Context, module models.Module) ([]models.Category, error) {
	var cats []models.Category
	err := s.DB.WithContext(ctx).Where("module = ?", module).Order("sort_order ASC").Find(&cats).Error
	return cats, err
}

// GetByName finds a category by (name, module). Returns nil when absent.
func (s *CategoryStore) GetByName(ctx context.Context, module models.Module, name string) (*models.Category, error) {
	var cat models.Category
	err := s.DB.WithContext(ctx).Where("module = ? AND name = ?", module, strings.TrimSpace(name)).First(&cat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// orderItems projects categories into the ordering engine's input.
func orderItems(cats []models.Category) []ordering.Item {
	items := make([]ordering.Item, len(cats))
	for i, c := range cats {
		items[i] = ordering.Item{ID: c.ID, Order: c.SortOrder}
	}
	return items
}

// applyOrderPlan persists the plan's updates. Rows whose order is unchanged
// are not in the plan, so no-op writes never happen.
func applyOrderPlan[T any](tx *gorm.DB, model T, plan ordering.Plan) error {
	for _, u := range plan.Updates {
		if err := tx.Model(&model).Where("id = ?", u.ID).Update("sort_order", u.Order).Error; err != nil {
			return err
		}
	}
	return nil
}

// CreateAt inserts a new category at the given 1-based position, shifting
// siblings down. Position validation and duplicate-name checks run before any
// write; the shift and the insert commit in one transaction.
func (s *CategoryStore) CreateAt(ctx context.Context, module models.Module, name, description string, position int) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.ErrNameRequired
	}
	if !module.IsValid() {
		return nil, models.ErrInvalidModule
	}
	var created models.Category
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cats []models.Category
		if err := tx.Where("module = ?", module).Order("sort_order ASC").Find(&cats).Error; err != nil {
			return err
		}
		for _, c := range cats {
			if strings.EqualFold(c.Name, name) {
				return models.ErrDuplicateName
			}
		}
		plan, err := ordering.PlanInsert(orderItems(cats), position)
		if err != nil {
			return err
		}
		if err := applyOrderPlan(tx, models.Category{}, plan); err != nil {
			return err
		}
		created = models.Category{
			ID:          models.NewID(),
			Name:        name,
			Description: description,
			Module:      module.Normalize(),
			SortOrder:   plan.SubjectOrder,
			CreatedAt:   time.Now().UTC(),
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Move repositions an existing category to the given 1-based position.
func (s *CategoryStore) Move(ctx context.Context, module models.Module, id string, position int) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cats []models.Category
		if err := tx.Where("module = ?", module).Order("sort_order ASC").Find(&cats).Error; err != nil {
			return err
		}
		ch, err := catalog.ComputeReposition(orderItems(cats), id, position)
		if err != nil {
			return err
		}
		return applyOrderPlan(tx, models.Category{}, ch.Plan)
	})
}

// ApplyRename commits a rename change-set computed by the catalog package.
func (s *CategoryStore) ApplyRename(ctx context.Context, ch catalog.RenameChange) error {
	return s.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", ch.ID).
		Update("name", ch.NewName).Error
}

// Delete removes the category and renumbers the survivors contiguously.
// Tasks pointing at it are detached, not deleted.
func (s *CategoryStore) Delete(ctx context.Context, module models.Module, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND module = ?", id, module).Delete(&models.Category{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrNotFound
		}
		if err := tx.Model(&models.Task{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		var rest []models.Category
		if err := tx.Where("module = ?", module).Order("sort_order ASC").Find(&rest).Error; err != nil {
			return err
		}
		return applyOrderPlan(tx, models.Category{}, ordering.Renumber(orderItems(rest)))
	})
}

// Selections projects the ordered categories into structured selections for
// the interactive shells.
func (s *CategoryStore) Selections(ctx context.Context, module models.Module) ([]catalog.Selection, error) {
	cats, err := s.ListOrdered(ctx, module)
	if err != nil {
		return nil, err
	}
	sels := make([]catalog.Selection, len(cats))
	for i, c := range cats {
		sels[i] = catalog.Selection{ID: c.ID, Label: c.Name}
	}
	return sels, nil
}
