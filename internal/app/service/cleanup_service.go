package service

import (
	"time"

	"github.com/avoronova/foodgram-backend/internal/app/repository"
	"github.com/avoronova/foodgram-backend/pkg/logger"
)

type CleanupService interface {
	PurgeDeletedRecipes(ttl time.Duration) (int64, error)
}

type cleanupService struct {
	recipeRepo repository.RecipeRepository
}

func NewCleanupService(recipeRepo repository.RecipeRepository) CleanupService {
	return &cleanupService{recipeRepo: recipeRepo}
}

// PurgeDeletedRecipes permanently removes recipes that have been
// soft-deleted for longer than ttl.
func (s *cleanupService) PurgeDeletedRecipes(ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)

	purged, err := s.recipeRepo.PurgeDeletedBefore(cutoff)
	if err != nil {
		logger.Error("Failed to purge deleted recipes", err, map[string]interface{}{
			"cutoff": cutoff,
		})
		return 0, err
	}

	if purged > 0 {
		logger.Info("Purged deleted recipes", map[string]interface{}{
			"count":  purged,
			"cutoff": cutoff,
		})
	}
	return purged, nil
}
