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
	ErrSelfSubscription  = errors.New("cannot subscribe to yourself")
	ErrAlreadySubscribed = errors.New("already subscribed to this author")
)

// AuthorSubscription is one subscription listing entry: the author, their
// total recipe count and a capped sample of their latest recipes.
type AuthorSubscription struct {
	Author       model.User
	Recipes      []model.Recipe
	RecipesCount int64
}

type SubscriptionService interface {
	Subscribe(subscriberID, authorID uint) (*model.User, error)
	Unsubscribe(subscriberID, authorID uint) error
	GetSubscribedAuthorIDs(subscriberID uint) ([]uint, error)
	ListSubscriptions(subscriberID uint, limit, offset, recipesLimit int) ([]AuthorSubscription, int64, error)
}

type subscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	userRepo         repository.UserRepository
	recipeRepo       repository.RecipeRepository
}

func NewSubscriptionService(
	subscriptionRepo repository.SubscriptionRepository,
	userRepo repository.UserRepository,
	recipeRepo repository.RecipeRepository,
) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		recipeRepo:       recipeRepo,
	}
}

// Subscribe adds the subscriber to the author's followers and returns the
// author for the confirmation payload.
func (s *subscriptionService) Subscribe(subscriberID, authorID uint) (*model.User, error) {
	logger.Info("Creating subscription", map[string]interface{}{
		"subscriber_id": subscriberID,
		"author_id":     authorID,
	})

	if subscriberID == authorID {
		logger.Warn("Subscription rejected: self-subscription", map[string]interface{}{
			"subscriber_id": subscriberID,
		})
		return nil, ErrSelfSubscription
	}

	author, err := s.userRepo.FindByID(authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot subscribe: author not found", map[string]interface{}{
				"author_id": authorID,
			})
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	subscription := &model.Subscribe{AuthorID: authorID, SubscriberID: subscriberID}
	if err := s.subscriptionRepo.Create(subscription); err != nil {
		if apperrors.IsUniqueViolation(err) {
			logger.Warn("Already subscribed", map[string]interface{}{
				"subscriber_id": subscriberID,
				"author_id":     authorID,
			})
			return nil, ErrAlreadySubscribed
		}
		if apperrors.IsCheckViolation(err) {
			return nil, ErrSelfSubscription
		}
		logger.Error("Failed to create subscription", err, map[string]interface{}{
			"subscriber_id": subscriberID,
			"author_id":     authorID,
		})
		return nil, err
	}

	logger.Info("Subscription created", map[string]interface{}{
		"subscriber_id": subscriberID,
		"author_id":     authorID,
	})
	return author, nil
}

// Unsubscribe removes the pair. Unsubscribing from an author the user never
// followed succeeds as a no-op.
func (s *subscriptionService) Unsubscribe(subscriberID, authorID uint) error {
	logger.Info("Removing subscription", map[string]interface{}{
		"subscriber_id": subscriberID,
		"author_id":     authorID,
	})

	removed, err := s.subscriptionRepo.Delete(authorID, subscriberID)
	if err != nil {
		logger.Error("Failed to remove subscription", err, map[string]interface{}{
			"subscriber_id": subscriberID,
			"author_id":     authorID,
		})
		return err
	}

	if removed == 0 {
		logger.Debug("Subscription did not exist", map[string]interface{}{
			"subscriber_id": subscriberID,
			"author_id":     authorID,
		})
	}
	return nil
}

func (s *subscriptionService) GetSubscribedAuthorIDs(subscriberID uint) ([]uint, error) {
	return s.subscriptionRepo.FindAuthorIDsBySubscriber(subscriberID)
}

// ListSubscriptions returns the subscriber's authors ordered by username,
// each with their recipe count and up to recipesLimit latest recipes
// embedded. recipesLimit <= 0 embeds all of the author's recipes.
func (s *subscriptionService) ListSubscriptions(subscriberID uint, limit, offset, recipesLimit int) ([]AuthorSubscription, int64, error) {
	logger.Debug("Listing subscriptions", map[string]interface{}{
		"subscriber_id": subscriberID,
		"limit":         limit,
		"offset":        offset,
		"recipes_limit": recipesLimit,
	})

	authors, total, err := s.subscriptionRepo.FindAuthorsWithRecipeCount(subscriberID, limit, offset)
	if err != nil {
		logger.Error("Failed to list subscriptions", err, map[string]interface{}{
			"subscriber_id": subscriberID,
		})
		return nil, 0, err
	}

	subscriptions := make([]AuthorSubscription, 0, len(authors))
	for _, author := range authors {
		recipes, err := s.recipeRepo.FindByAuthor(author.ID, recipesLimit)
		if err != nil {
			logger.Error("Failed to fetch author recipes", err, map[string]interface{}{
				"author_id": author.ID,
			})
			return nil, 0, err
		}
		subscriptions = append(subscriptions, AuthorSubscription{
			Author:       author.User,
			Recipes:      recipes,
			RecipesCount: author.RecipesCount,
		})
	}

	logger.Debug("Subscriptions listed", map[string]interface{}{
		"subscriber_id": subscriberID,
		"count":         len(subscriptions),
		"total":         total,
	})
	return subscriptions, total, nil
}
