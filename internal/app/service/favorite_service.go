package service

import (
	"errors"

	apperrors "github.com/avoronova/foodgram-backend/internal/errors"

	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/internal/app/repository"
	"github.com/avoronova/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrAlreadyFavorited = errors.New("recipe is already in favorites")
)

type FavoriteService interface {
	AddFavorite(userID, recipeID uint) (*model.Recipe, error)
	RemoveFavorite(userID, recipeID uint) error
	GetFavoriteRecipeIDs(userID uint) ([]uint, error)
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
	recipeRepo   repository.RecipeRepository
}

func NewFavoriteService(
	favoriteRepo repository.FavoriteRepository,
	recipeRepo repository.RecipeRepository,
) FavoriteService {
	return &favoriteService{
		favoriteRepo: favoriteRepo,
		recipeRepo:   recipeRepo,
	}
}

// AddFavorite marks the recipe as a favorite of the user and returns the
// recipe for the confirmation payload. Duplicate additions are rejected by
// the unique index rather than a racy check-then-insert.
func (s *favoriteService) AddFavorite(userID, recipeID uint) (*model.Recipe, error) {
	logger.Info("Adding recipe to favorites", map[string]interface{}{
		"user_id":   userID,
		"recipe_id": recipeID,
	})

	recipe, err := s.recipeRepo.FindByID(recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot favorite: recipe not found", map[string]interface{}{
				"user_id":   userID,
				"recipe_id": recipeID,
			})
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	favorite := &model.FavoriteRecipe{UserID: userID, RecipeID: recipeID}
	if err := s.favoriteRepo.Create(favorite); err != nil {
		if apperrors.IsUniqueViolation(err) {
			logger.Warn("Recipe already in favorites", map[string]interface{}{
				"user_id":   userID,
				"recipe_id": recipeID,
			})
			return nil, ErrAlreadyFavorited
		}
		logger.Error("Failed to add favorite", err, map[string]interface{}{
			"user_id":   userID,
			"recipe_id": recipeID,
		})
		return nil, err
	}

	logger.Info("Recipe added to favorites", map[string]interface{}{
		"user_id":   userID,
		"recipe_id": recipeID,
	})
	return recipe, nil
}

// RemoveFavorite removes the pair. Removing a recipe that was never
// favorited succeeds as a no-op: the caller wanted it gone and it is gone.
func (s *favoriteService) RemoveFavorite(userID, recipeID uint) error {
	logger.Info("Removing recipe from favorites", map[string]interface{}{
		"user_id":   userID,
		"recipe_id": recipeID,
	})

	removed, err := s.favoriteRepo.Delete(userID, recipeID)
	if err != nil {
		logger.Error("Failed to remove favorite", err, map[string]interface{}{
			"user_id":   userID,
			"recipe_id": recipeID,
		})
		return err
	}

	if removed == 0 {
		logger.Debug("Recipe was not in favorites", map[string]interface{}{
			"user_id":   userID,
			"recipe_id": recipeID,
		})
	}
	return nil
}

func (s *favoriteService) GetFavoriteRecipeIDs(userID uint) ([]uint, error) {
	return s.favoriteRepo.FindRecipeIDsByUser(userID)
}
