package controller

import (
	"errors"
	"net/http"
	"strconv"

	apperrors "github.com/avoronova/foodgram-backend/internal/errors"

	"github.com/avoronova/foodgram-backend/config"
	"github.com/avoronova/foodgram-backend/internal/app/service"
	"github.com/avoronova/foodgram-backend/internal/app/view"
	"github.com/avoronova/foodgram-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type UserController struct {
	authService         service.AuthService
	subscriptionService service.SubscriptionService
	viewers             viewerSources
	pagination          *config.PaginationConfig
}

func NewUserController(
	authService service.AuthService,
	subscriptionService service.SubscriptionService,
	favoriteService service.FavoriteService,
	cartService service.CartService,
	pagination *config.PaginationConfig,
) *UserController {
	return &UserController{
		authService:         authService,
		subscriptionService: subscriptionService,
		viewers: viewerSources{
			favorites:     favoriteService,
			carts:         cartService,
			subscriptions: subscriptionService,
		},
		pagination: pagination,
	}
}

// ListUsers returns a page of users ordered by username
// GET /api/v1/users?page=&limit=
func (ctrl *UserController) ListUsers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, limit, offset := parsePagination(c, ctrl.pagination)

	users, total, err := ctrl.authService.ListUsers(limit, offset)
	if err != nil {
		log.Error("Failed to list users", err)
		apperrors.InternalError(c, "Failed to fetch users")
		return
	}

	viewer := ctrl.viewers.buildViewer(c)
	responses := make([]view.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, view.NewUserResponse(user, viewer))
	}

	c.JSON(http.StatusOK, gin.H{
		"results":     responses,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages(total, limit),
	})
}

// GetUser returns a single user's profile
// GET /api/v1/users/:id
func (ctrl *UserController) GetUser(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid user ID")
		return
	}

	user, err := ctrl.authService.GetUserByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.UserNotFound, "User not found")
			return
		}
		log.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		apperrors.InternalError(c, "Failed to fetch user")
		return
	}

	viewer := ctrl.viewers.buildViewer(c)
	c.JSON(http.StatusOK, view.NewUserResponse(*user, viewer))
}

// Subscribe follows an author
// POST /api/v1/users/:id/subscribe
func (ctrl *UserController) Subscribe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	authorID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid user ID")
		return
	}

	author, err := ctrl.subscriptionService.Subscribe(userID, uint(authorID))
	if err != nil {
		if errors.Is(err, service.ErrSelfSubscription) {
			apperrors.BadRequest(c, apperrors.SubscriptionToSelf, "Cannot subscribe to yourself")
			return
		}
		if errors.Is(err, service.ErrAlreadySubscribed) {
			apperrors.Conflict(c, apperrors.SubscriptionExists, "Already subscribed to this author")
			return
		}
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.UserNotFound, "Author not found")
			return
		}
		log.Error("Failed to subscribe", err, map[string]interface{}{
			"subscriber_id": userID,
			"author_id":     authorID,
		})
		apperrors.InternalError(c, "Failed to subscribe")
		return
	}

	// Re-read through the viewer so is_subscribed reflects the new state.
	viewer := ctrl.viewers.buildViewer(c)
	c.JSON(http.StatusCreated, view.NewUserResponse(*author, viewer))
}

// Unsubscribe unfollows an author; unfollowing an author the caller never
// followed succeeds
// DELETE /api/v1/users/:id/subscribe
func (ctrl *UserController) Unsubscribe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	authorID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid user ID")
		return
	}

	if err := ctrl.subscriptionService.Unsubscribe(userID, uint(authorID)); err != nil {
		log.Error("Failed to unsubscribe", err, map[string]interface{}{
			"subscriber_id": userID,
			"author_id":     authorID,
		})
		apperrors.InternalError(c, "Failed to unsubscribe")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListSubscriptions returns the caller's subscribed authors with recipe
// counts and embedded recipe samples
// GET /api/v1/users/subscriptions?page=&limit=&recipes_limit=
func (ctrl *UserController) ListSubscriptions(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	page, limit, offset := parsePagination(c, ctrl.pagination)

	recipesLimit := 0
	if raw := c.Query("recipes_limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "recipes_limit must be a non-negative integer")
			return
		}
		recipesLimit = parsed
	}

	subscriptions, total, err := ctrl.subscriptionService.ListSubscriptions(userID, limit, offset, recipesLimit)
	if err != nil {
		log.Error("Failed to list subscriptions", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to fetch subscriptions")
		return
	}

	viewer := ctrl.viewers.buildViewer(c)
	responses := make([]view.AuthorResponse, 0, len(subscriptions))
	for _, sub := range subscriptions {
		responses = append(responses, view.NewAuthorResponse(sub.Author, sub.Recipes, sub.RecipesCount, viewer))
	}

	c.JSON(http.StatusOK, gin.H{
		"results":     responses,
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages(total, limit),
	})
}
