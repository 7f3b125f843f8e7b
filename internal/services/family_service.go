package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
)

// familyService handles family-related business logic.
type familyService struct {
	db              *gorm.DB
	defaultCurrency string
}

// NewFamilyService creates a new FamilyServicer. Families created without a
// currency use defaultCurrency.
func NewFamilyService(db *gorm.DB, defaultCurrency string) FamilyServicer {
	return &familyService{db: db, defaultCurrency: defaultCurrency}
}

// CreateFamily creates a new family.
func (s *familyService) CreateFamily(name, currency string) (*models.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "family name is required")
	}
	if currency == "" {
		currency = s.defaultCurrency
	}

	family := &models.Family{Name: name, Currency: strings.ToUpper(currency)}
	if err := s.db.Create(family).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return family, nil
}

// GetFamily retrieves a family by ID.
func (s *familyService) GetFamily(familyID string) (*models.Family, error) {
	return findFamily(s.db, familyID)
}

func findFamily(db *gorm.DB, familyID string) (*models.Family, error) {
	var family models.Family
	if err := db.Where("id = ?", familyID).First(&family).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrFamilyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &family, nil
}
