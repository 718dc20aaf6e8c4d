package repository

import (
	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

type FavoriteRepository interface {
	// Create inserts the pair and surfaces the storage-level unique violation
	// untranslated; the service classifies it. No check-then-insert.
	Create(favorite *model.FavoriteRecipe) error
	Delete(userID, recipeID uint) (int64, error)
	FindRecipeIDsByUser(userID uint) ([]uint, error)
	CountByRecipe(recipeID uint) (int64, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Create(favorite *model.FavoriteRecipe) error {
	logger.Debug("Creating favorite in database", map[string]interface{}{
		"user_id":   favorite.UserID,
		"recipe_id": favorite.RecipeID,
	})

	if err := r.db.Create(favorite).Error; err != nil {
		logger.Error("Failed to create favorite in database", err, map[string]interface{}{
			"user_id":   favorite.UserID,
			"recipe_id": favorite.RecipeID,
		})
		return err
	}
	return nil
}

// Delete removes the pair and reports how many rows were removed; zero rows
// is not an error here, the service decides the policy.
func (r *favoriteRepository) Delete(userID, recipeID uint) (int64, error) {
	logger.Debug("Deleting favorite from database", map[string]interface{}{
		"user_id":   userID,
		"recipe_id": recipeID,
	})

	result := r.db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&model.FavoriteRecipe{})
	if result.Error != nil {
		logger.Error("Failed to delete favorite from database", result.Error, map[string]interface{}{
			"user_id":   userID,
			"recipe_id": recipeID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *favoriteRepository) FindRecipeIDsByUser(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.FavoriteRecipe{}).
		Where("user_id = ?", userID).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		logger.Error("Failed to find favorite recipe IDs in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return ids, nil
}

func (r *favoriteRepository) CountByRecipe(recipeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.FavoriteRecipe{}).
		Where("recipe_id = ?", recipeID).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to count favorites for recipe in database", err, map[string]interface{}{
			"recipe_id": recipeID,
		})
		return 0, err
	}
	return count, nil
}
