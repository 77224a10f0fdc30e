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

// TaskStore handles the task (permission) catalog of a module.
type TaskStore struct{ DB *gorm.DB }

func NewTaskStore(db *gorm.DB) *TaskStore { return &TaskStore{DB: db} }

// GetBySlug finds a task by (slug, module). Returns nil when absent.
func (s *TaskStore) GetBySlug(ctx context.Context, module models.Module, slug string) (*models.Task, error) {
	var task models.Task
	err := s.DB.WithContext(ctx).Where("module = ? AND slug = ?", module, strings.TrimSpace(slug)).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByModule returns all tasks of a module ordered by sort order then name.
func (s *TaskStore) ListByModule(ctx context.Context, module models.Module) ([]models.Task, error) {
	var tasks []models.Task
	err := s.DB.WithContext(ctx).Where("module = ?", module).Order("sort_order ASC, name ASC").Find(&tasks).Error
	return tasks, err
}

// ListByCategory returns a category's tasks; a nil categoryID lists the
// uncategorized ones.
func (s *TaskStore) ListByCategory(ctx context.Context, module models.Module, categoryID *string) ([]models.Task, error) {
	q := s.DB.WithContext(ctx).Where("module = ?", module)
	if categoryID == nil {
		q = q.Where("category_id IS NULL")
	} else {
		q = q.Where("category_id = ?", *categoryID)
	}
	var tasks []models.Task
	err := q.Order("sort_order ASC, name ASC").Find(&tasks).Error
	return tasks, err
}

// Create inserts a task. An empty slug is derived from the name; slug
// collisions within the module are rejected before the write.
func (s *TaskStore) Create(ctx context.Context, module models.Module, categoryID *string, name, slug, description string) (*models.Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.ErrNameRequired
	}
	if !module.IsValid() {
		return nil, models.ErrInvalidModule
	}
	if slug = strings.TrimSpace(slug); slug == "" {
		slug = models.Slugify(name)
	}
	var created models.Task
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Task{}).Where("module = ? AND slug = ?", module, slug).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.ErrDuplicateSlug
		}
		var next int64
		if err := tx.Model(&models.Task{}).Where("module = ?", module).Count(&next).Error; err != nil {
			return err
		}
		created = models.Task{
			ID:          models.NewID(),
			CategoryID:  categoryID,
			Name:        name,
			Slug:        slug,
			Description: description,
			Module:      module.Normalize(),
			SortOrder:   int(next) + 1,
			CreatedAt:   time.Now().UTC(),
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Move repositions a task within the module's ordered list.
func (s *TaskStore) Move(ctx context.Context, module models.Module, id string, position int) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tasks []models.Task
		if err := tx.Where("module = ?", module).Order("sort_order ASC, name ASC").Find(&tasks).Error; err != nil {
			return err
		}
		items := make([]ordering.Item, len(tasks))
		for i, tk := range tasks {
			items[i] = ordering.Item{ID: tk.ID, Order: tk.SortOrder}
		}
		ch, err := catalog.ComputeReposition(items, id, position)
		if err != nil {
			return err
		}
		return applyOrderPlan(tx, models.Task{}, ch.Plan)
	})
}

// ApplyRename commits a rename change-set (new name and recomputed slug).
func (s *TaskStore) ApplyRename(ctx context.Context, module models.Module, ch catalog.RenameChange) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Task{}).Where("module = ? AND slug = ? AND id <> ?", module, ch.NewSlug, ch.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return models.ErrDuplicateSlug
		}
		return tx.Model(&models.Task{}).Where("id = ?", ch.ID).
			Updates(map[string]interface{}{"name": ch.NewName, "slug": ch.NewSlug}).Error
	})
}

// ApplyRecategorize commits a recategorize change-set.
func (s *TaskStore) ApplyRecategorize(ctx context.Context, ch catalog.RecategorizeChange) error {
	res := s.DB.WithContext(ctx).Model(&models.Task{}).Where("id = ?", ch.TaskID).
		Update("category_id", ch.CategoryID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete hard-deletes a task. Role bindings pointing at it are removed in the
// same transaction; role-user assignments are untouched.
func (s *TaskStore) Delete(ctx context.Context, module models.Module, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.RoleTask{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND module = ?", id, module).Delete(&models.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

// Selections projects a module's tasks into structured selections.
func (s *TaskStore) Selections(ctx context.Context, module models.Module) ([]catalog.Selection, error) {
	tasks, err := s.ListByModule(ctx, module)
	if err != nil {
		return nil, err
	}
	sels := make([]catalog.Selection, len(tasks))
	for i, tk := range tasks {
		sels[i] = catalog.Selection{ID: tk.ID, Label: tk.Name}
	}
	return sels, nil
}

// Siblings projects a module's tasks into the duplicate-name check input.
func (s *TaskStore) Siblings(ctx context.Context, module models.Module) ([]catalog.Sibling, error) {
	tasks, err := s.ListByModule(ctx, module)
	if err != nil {
		return nil, err
	}
	sibs := make([]catalog.Sibling, len(tasks))
	for i, tk := range tasks {
		sibs[i] = catalog.Sibling{ID: tk.ID, Name: tk.Name}
	}
	return sibs, nil
}
