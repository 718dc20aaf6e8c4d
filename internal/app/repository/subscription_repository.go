package repository

import (
	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

// AuthorWithCount is an author row annotated with their recipe count for
// subscription listings.
type AuthorWithCount struct {
	model.User
	RecipesCount int64 `json:"recipes_count"`
}

type SubscriptionRepository interface {
	// Create inserts the pair; unique and self-subscription CHECK violations
	// surface untranslated for the service to classify.
	Create(subscription *model.Subscribe) error
	Delete(authorID, subscriberID uint) (int64, error)
	FindAuthorIDsBySubscriber(subscriberID uint) ([]uint, error)
	FindAuthorsWithRecipeCount(subscriberID uint, limit, offset int) ([]AuthorWithCount, int64, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(subscription *model.Subscribe) error {
	logger.Debug("Creating subscription in database", map[string]interface{}{
		"author_id":     subscription.AuthorID,
		"subscriber_id": subscription.SubscriberID,
	})

	if err := r.db.Create(subscription).Error; err != nil {
		logger.Error("Failed to create subscription in database", err, map[string]interface{}{
			"author_id":     subscription.AuthorID,
			"subscriber_id": subscription.SubscriberID,
		})
		return err
	}
	return nil
}

func (r *subscriptionRepository) Delete(authorID, subscriberID uint) (int64, error) {
	logger.Debug("Deleting subscription from database", map[string]interface{}{
		"author_id":     authorID,
		"subscriber_id": subscriberID,
	})

	result := r.db.Where("author_id = ? AND subscriber_id = ?", authorID, subscriberID).
		Delete(&model.Subscribe{})
	if result.Error != nil {
		logger.Error("Failed to delete subscription from database", result.Error, map[string]interface{}{
			"author_id":     authorID,
			"subscriber_id": subscriberID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *subscriptionRepository) FindAuthorIDsBySubscriber(subscriberID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.Subscribe{}).
		Where("subscriber_id = ?", subscriberID).
		Pluck("author_id", &ids).Error
	if err != nil {
		logger.Error("Failed to find subscribed author IDs in database", err, map[string]interface{}{
			"subscriber_id": subscriberID,
		})
		return nil, err
	}
	return ids, nil
}

// FindAuthorsWithRecipeCount lists the subscriber's authors ordered by
// username, each annotated with the number of recipes they have published.
func (r *subscriptionRepository) FindAuthorsWithRecipeCount(subscriberID uint, limit, offset int) ([]AuthorWithCount, int64, error) {
	logger.Debug("Finding subscribed authors with recipe count", map[string]interface{}{
		"subscriber_id": subscriberID,
		"limit":         limit,
		"offset":        offset,
	})

	var total int64
	err := r.db.Model(&model.Subscribe{}).
		Where("subscriber_id = ?", subscriberID).
		Count(&total).Error
	if err != nil {
		logger.Error("Failed to count subscriptions in database", err, map[string]interface{}{
			"subscriber_id": subscriberID,
		})
		return nil, 0, err
	}

	recipeCounts := r.db.Table("recipes").
		Select("recipes.author_id, COUNT(*) AS count").
		Where("recipes.deleted_at IS NULL").
		Group("recipes.author_id")

	query := r.db.Table("users").
		Select("users.*, COALESCE(recipe_counts.count, 0) AS recipes_count").
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Joins("LEFT JOIN (?) AS recipe_counts ON recipe_counts.author_id = users.id", recipeCounts).
		Where("subscriptions.subscriber_id = ?", subscriberID).
		Where("users.deleted_at IS NULL").
		Order("users.username ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var authors []AuthorWithCount
	if err := query.Scan(&authors).Error; err != nil {
		logger.Error("Failed to find subscribed authors in database", err, map[string]interface{}{
			"subscriber_id": subscriberID,
		})
		return nil, 0, err
	}

	logger.Debug("Subscribed authors found", map[string]interface{}{
		"subscriber_id": subscriberID,
		"count":         len(authors),
	})
	return authors, total, nil
}
