package repository

import (
	"strings"

	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

type IngredientRepository interface {
	Create(ingredient *model.Ingredient) error
	BulkCreate(ingredients []model.Ingredient, batchSize int) error
	FindAll() ([]model.Ingredient, error)
	FindByID(id uint) (*model.Ingredient, error)
	FindByIDs(ids []uint) ([]model.Ingredient, error)
	SearchByPrefix(prefix string) ([]model.Ingredient, error)
}

type ingredientRepository struct {
	db *gorm.DB
}

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) Create(ingredient *model.Ingredient) error {
	logger.Debug("Creating ingredient in database", map[string]interface{}{
		"name": ingredient.Name,
		"unit": ingredient.MeasurementUnit,
	})

	if err := r.db.Create(ingredient).Error; err != nil {
		logger.Error("Failed to create ingredient in database", err, map[string]interface{}{
			"name": ingredient.Name,
		})
		return err
	}
	return nil
}

func (r *ingredientRepository) BulkCreate(ingredients []model.Ingredient, batchSize int) error {
	logger.Info("Bulk creating ingredients in database", map[string]interface{}{
		"count":      len(ingredients),
		"batch_size": batchSize,
	})

	if err := r.db.CreateInBatches(ingredients, batchSize).Error; err != nil {
		logger.Error("Failed to bulk create ingredients", err, map[string]interface{}{
			"count": len(ingredients),
		})
		return err
	}
	return nil
}

func (r *ingredientRepository) FindAll() ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if err := r.db.Order("name ASC").Find(&ingredients).Error; err != nil {
		logger.Error("Failed to find ingredients in database", err, nil)
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) FindByID(id uint) (*model.Ingredient, error) {
	var ingredient model.Ingredient
	if err := r.db.First(&ingredient, id).Error; err != nil {
		logger.Error("Failed to find ingredient by ID in database", err, map[string]interface{}{
			"ingredient_id": id,
		})
		return nil, err
	}
	return &ingredient, nil
}

func (r *ingredientRepository) FindByIDs(ids []uint) ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if len(ids) == 0 {
		return ingredients, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		logger.Error("Failed to find ingredients by IDs in database", err, map[string]interface{}{
			"ids": ids,
		})
		return nil, err
	}
	return ingredients, nil
}

// SearchByPrefix matches ingredient names by starting letters,
// case-insensitively, ordered by name.
func (r *ingredientRepository) SearchByPrefix(prefix string) ([]model.Ingredient, error) {
	logger.Debug("Searching ingredients by prefix", map[string]interface{}{
		"prefix": prefix,
	})

	var ingredients []model.Ingredient
	pattern := strings.ToLower(prefix) + "%"
	err := r.db.Where("LOWER(name) LIKE ?", pattern).
		Order("name ASC").
		Find(&ingredients).Error
	if err != nil {
		logger.Error("Failed to search ingredients by prefix", err, map[string]interface{}{
			"prefix": prefix,
		})
		return nil, err
	}

	logger.Debug("Ingredients found by prefix", map[string]interface{}{
		"prefix": prefix,
		"count":  len(ingredients),
	})
	return ingredients, nil
}
