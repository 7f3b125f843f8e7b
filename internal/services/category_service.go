package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
	"hearth/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category. Expense categories get a zero
// allocation line in every existing budget of the family.
func (s *categoryService) CreateCategory(
	familyID string,
	name string,
	categoryType models.CategoryType,
	icon string,
	color string,
	parentID *string,
) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if categoryType != models.CategoryTypeIncome && categoryType != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}
	if _, err := findFamily(s.db, familyID); err != nil {
		return nil, err
	}
	if err := s.checkDuplicateName(familyID, name, ""); err != nil {
		return nil, err
	}
	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil {
		if _, err := s.findParent(familyID, *parentID, categoryType); err != nil {
			return nil, err
		}
	}

	category := &models.Category{
		FamilyID: familyID,
		Name:     name,
		Type:     categoryType,
		Icon:     icon,
		Color:    color,
		ParentID: parentID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(category).Error; err != nil {
			return err
		}
		if categoryType != models.CategoryTypeExpense {
			return nil
		}

		var budgets []models.Budget
		if err := tx.Where("family_id = ?", familyID).Find(&budgets).Error; err != nil {
			return err
		}
		for _, b := range budgets {
			line := &models.BudgetCategory{
				BudgetID:   b.ID,
				CategoryID: &category.ID,
				Currency:   b.Currency,
			}
			if err := tx.Create(line).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetFamilyCategories retrieves a paginated list of categories, optionally
// filtered by type.
func (s *categoryService) GetFamilyCategories(familyID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	q := s.db.Model(&models.Category{}).Where("family_id = ?", familyID)
	if categoryType != nil {
		q = q.Where("type = ?", *categoryType)
	}

	result, err := pagination.Find[models.Category](q, page, "name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetCategoryByID retrieves a category by ID for a specific family
func (s *categoryService) GetCategoryByID(familyID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND family_id = ?", categoryID, familyID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates an existing category. A nil parentID leaves the
// parent unchanged; an empty one turns the category into a group.
func (s *categoryService) UpdateCategory(
	familyID string,
	categoryID string,
	name string,
	icon string,
	color string,
	parentID *string,
) (*models.Category, error) {
	category, err := s.GetCategoryByID(familyID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name = strings.TrimSpace(name); name != "" && name != category.Name {
		if err := s.checkDuplicateName(familyID, name, categoryID); err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if icon != "" {
		updates["icon"] = icon
	}
	if color != "" {
		updates["color"] = color
	}

	if parentID != nil {
		if *parentID == "" {
			updates["parent_id"] = nil
		} else {
			if *parentID == categoryID {
				return nil, apperrors.ErrSelfParentCategory
			}
			if _, err := s.findParent(familyID, *parentID, category.Type); err != nil {
				return nil, err
			}
			var childCount int64
			if err := s.db.Model(&models.Category{}).Where("parent_id = ?", categoryID).Count(&childCount).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if childCount > 0 {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidCategory, "a category with subcategories cannot be nested")
			}
			updates["parent_id"] = *parentID
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetCategoryByID(familyID, categoryID)
}

// DeleteCategory soft-deletes a category and removes its allocation lines,
// bumping the version of every budget that had one.
// Categories referenced by transactions or owning subcategories are kept.
func (s *categoryService) DeleteCategory(familyID, categoryID string) error {
	category, err := s.GetCategoryByID(familyID, categoryID)
	if err != nil {
		return err
	}

	var childCount int64
	if err := s.db.Model(&models.Category{}).Where("parent_id = ?", categoryID).Count(&childCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if childCount > 0 {
		return apperrors.ErrCategoryHasChildren
	}

	var txCount int64
	if err := s.db.Model(&models.Transaction{}).Where("category_id = ?", categoryID).Count(&txCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if txCount > 0 {
		return apperrors.ErrCategoryInUse
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var budgetIDs []string
		if err := tx.Model(&models.BudgetCategory{}).Where("category_id = ?", categoryID).Pluck("budget_id", &budgetIDs).Error; err != nil {
			return err
		}
		// Dropping a line changes the budget's allocated total.
		if len(budgetIDs) > 0 {
			if err := tx.Model(&models.Budget{}).Where("id IN ?", budgetIDs).
				Update("version", gorm.Expr("version + ?", 1)).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("category_id = ?", categoryID).Delete(&models.BudgetCategory{}).Error; err != nil {
			return err
		}
		return tx.Delete(category).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *categoryService) checkDuplicateName(familyID, name, excludeID string) error {
	q := s.db.Model(&models.Category{}).Where("family_id = ? AND LOWER(name) = ?", familyID, strings.ToLower(name))
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}

// findParent loads a prospective parent. Parents must be groups of the same type.
func (s *categoryService) findParent(familyID, parentID string, categoryType models.CategoryType) (*models.Category, error) {
	var parent models.Category
	if err := s.db.Where("id = ? AND family_id = ?", parentID, familyID).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if parent.ParentID != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidCategory, "categories nest at most one level deep")
	}
	if parent.Type != categoryType {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidCategory, "parent category must have the same type")
	}
	return &parent, nil
}
