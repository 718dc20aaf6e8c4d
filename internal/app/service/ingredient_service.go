package service

import (
	"errors"

	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/internal/app/repository"
	"github.com/avoronova/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrIngredientNotFound = errors.New("ingredient not found")
)

type IngredientService interface {
	SearchIngredients(prefix string) ([]model.Ingredient, error)
	GetIngredientByID(id uint) (*model.Ingredient, error)
}

type ingredientService struct {
	ingredientRepo repository.IngredientRepository
}

func NewIngredientService(ingredientRepo repository.IngredientRepository) IngredientService {
	return &ingredientService{ingredientRepo: ingredientRepo}
}

// SearchIngredients returns ingredients whose name starts with prefix,
// case-insensitively. An empty prefix returns the whole catalog.
func (s *ingredientService) SearchIngredients(prefix string) ([]model.Ingredient, error) {
	logger.Debug("Searching ingredients", map[string]interface{}{
		"prefix": prefix,
	})

	if prefix == "" {
		return s.ingredientRepo.FindAll()
	}

	ingredients, err := s.ingredientRepo.SearchByPrefix(prefix)
	if err != nil {
		logger.Error("Failed to search ingredients", err, map[string]interface{}{
			"prefix": prefix,
		})
		return nil, err
	}

	return ingredients, nil
}

func (s *ingredientService) GetIngredientByID(id uint) (*model.Ingredient, error) {
	logger.Debug("Fetching ingredient", map[string]interface{}{
		"ingredient_id": id,
	})

	ingredient, err := s.ingredientRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Ingredient not found", map[string]interface{}{
				"ingredient_id": id,
			})
			return nil, ErrIngredientNotFound
		}
		logger.Error("Failed to fetch ingredient", err, map[string]interface{}{
			"ingredient_id": id,
		})
		return nil, err
	}

	return ingredient, nil
}
