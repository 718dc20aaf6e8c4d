package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	apperrors "github.com/avoronova/foodgram-backend/internal/errors"

	"github.com/avoronova/foodgram-backend/config"
	"github.com/avoronova/foodgram-backend/internal/app/repository"
	"github.com/avoronova/foodgram-backend/internal/app/service"
	"github.com/avoronova/foodgram-backend/internal/app/view"
	"github.com/avoronova/foodgram-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type RecipeController struct {
	recipeService   service.RecipeService
	favoriteService service.FavoriteService
	cartService     service.CartService
	viewers         viewerSources
	pagination      *config.PaginationConfig
}

func NewRecipeController(
	recipeService service.RecipeService,
	favoriteService service.FavoriteService,
	cartService service.CartService,
	subscriptionService service.SubscriptionService,
	pagination *config.PaginationConfig,
) *RecipeController {
	return &RecipeController{
		recipeService:   recipeService,
		favoriteService: favoriteService,
		cartService:     cartService,
		viewers: viewerSources{
			favorites:     favoriteService,
			carts:         cartService,
			subscriptions: subscriptionService,
		},
		pagination: pagination,
	}
}

type RecipeIngredientRequest struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeRequest is the write payload for create and partial update. Scalar
// fields are pointers so the handler can tell "absent" from "empty"; the
// service layer owns all content validation.
type RecipeRequest struct {
	Name        *string                   `json:"name"`
	Text        *string                   `json:"text"`
	Image       *string                   `json:"image"`
	CookingTime *int                      `json:"cooking_time"`
	Tags        []uint                    `json:"tags"`
	Ingredients []RecipeIngredientRequest `json:"ingredients"`
}

func (r RecipeRequest) toInput() service.RecipeInput {
	ingredients := make([]service.IngredientInput, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ingredients = append(ingredients, service.IngredientInput{
			ID:     ing.ID,
			Amount: ing.Amount,
		})
	}
	return service.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		Image:       r.Image,
		CookingTime: r.CookingTime,
		TagIDs:      r.Tags,
		Ingredients: ingredients,
	}
}

// parseBoolFlag reads a 0/1 query parameter. Anything other than "", "0" or
// "1" is rejected.
func parseBoolFlag(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	switch raw {
	case "":
		return nil, nil
	case "0":
		value := false
		return &value, nil
	case "1":
		value := true
		return &value, nil
	default:
		return nil, fmt.Errorf("%s must be 0 or 1", name)
	}
}

// ListRecipes returns a page of recipes, newest first
// GET /api/v1/recipes?page=&limit=&author=&tags=&is_favorited=&is_in_shopping_cart=
func (ctrl *RecipeController) ListRecipes(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, limit, offset := parsePagination(c, ctrl.pagination)

	filter := repository.RecipeFilter{
		TagSlugs: c.QueryArray("tags"),
		Limit:    limit,
		Offset:   offset,
	}

	if raw := c.Query("author"); raw != "" {
		authorID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid author ID")
			return
		}
		id := uint(authorID)
		filter.AuthorID = &id
	}

	favorited, err := parseBoolFlag(c, "is_favorited")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, err.Error())
		return
	}
	inCart, err := parseBoolFlag(c, "is_in_shopping_cart")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, err.Error())
		return
	}
	filter.Favorited = favorited
	filter.InCart = inCart
	if userID, ok := middleware.GetUserID(c); ok {
		filter.ViewerID = userID
	}

	recipes, total, err := ctrl.recipeService.ListRecipes(filter)
	if err != nil {
		log.Error("Failed to list recipes", err)
		apperrors.InternalError(c, "Failed to fetch recipes")
		return
	}

	viewer := ctrl.viewers.buildViewer(c)
	c.JSON(http.StatusOK, gin.H{
		"results":     view.NewRecipeList(recipes, viewer),
		"total":       total,
		"page":        page,
		"limit":       limit,
		"total_pages": totalPages(total, limit),
	})
}

// GetRecipe returns a single recipe with per-caller flags
// GET /api/v1/recipes/:id
func (ctrl *RecipeController) GetRecipe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid recipe ID")
		return
	}

	recipe, err := ctrl.recipeService.GetRecipeByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			apperrors.NotFound(c, apperrors.RecipeNotFound, "Recipe not found")
			return
		}
		log.Error("Failed to fetch recipe", err, map[string]interface{}{
			"recipe_id": id,
		})
		apperrors.InternalError(c, "Failed to fetch recipe")
		return
	}

	viewer := ctrl.viewers.buildViewer(c)
	c.JSON(http.StatusOK, view.NewRecipeResponse(*recipe, viewer))
}

// CreateRecipe creates a recipe authored by the caller
// POST /api/v1/recipes
func (ctrl *RecipeController) CreateRecipe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Malformed recipe payload", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Malformed recipe payload")
		return
	}

	recipe, err := ctrl.recipeService.CreateRecipe(userID, req.toInput())
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			apperrors.RespondWithValidationError(c, vErr.Fields)
			return
		}
		if errors.Is(err, service.ErrRecipeNameTaken) {
			apperrors.Conflict(c, apperrors.RecipeNameExists, "A recipe with this name already exists")
			return
		}
		log.Error("Failed to create recipe", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to create recipe")
		return
	}

	// Read-back goes through the same shaping as ordinary reads.
	viewer := ctrl.viewers.buildViewer(c)
	c.JSON(http.StatusCreated, view.NewRecipeResponse(*recipe, viewer))
}

// UpdateRecipe partially updates a recipe; the ingredient and tag lists are
// required and replace the stored sets
// PATCH /api/v1/recipes/:id
func (ctrl *RecipeController) UpdateRecipe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}
	role, _ := middleware.GetUserRole(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid recipe ID")
		return
	}

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Malformed recipe payload")
		return
	}

	recipe, err := ctrl.recipeService.UpdateRecipe(userID, role, uint(id), req.toInput())
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			apperrors.RespondWithValidationError(c, vErr.Fields)
			return
		}
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			apperrors.NotFound(c, apperrors.RecipeNotFound, "Recipe not found")
		case errors.Is(err, service.ErrNotRecipeOwner):
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzOwnerOnly, "Only the author can modify this recipe")
		case errors.Is(err, service.ErrRecipeNameTaken):
			apperrors.Conflict(c, apperrors.RecipeNameExists, "A recipe with this name already exists")
		default:
			log.Error("Failed to update recipe", err, map[string]interface{}{
				"recipe_id": id,
				"user_id":   userID,
			})
			apperrors.InternalError(c, "Failed to update recipe")
		}
		return
	}

	viewer := ctrl.viewers.buildViewer(c)
	c.JSON(http.StatusOK, view.NewRecipeResponse(*recipe, viewer))
}

// DeleteRecipe deletes a recipe
// DELETE /api/v1/recipes/:id
func (ctrl *RecipeController) DeleteRecipe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}
	role, _ := middleware.GetUserRole(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid recipe ID")
		return
	}

	if err := ctrl.recipeService.DeleteRecipe(userID, role, uint(id)); err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			apperrors.NotFound(c, apperrors.RecipeNotFound, "Recipe not found")
		case errors.Is(err, service.ErrNotRecipeOwner):
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzOwnerOnly, "Only the author can delete this recipe")
		default:
			log.Error("Failed to delete recipe", err, map[string]interface{}{
				"recipe_id": id,
				"user_id":   userID,
			})
			apperrors.InternalError(c, "Failed to delete recipe")
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// Favorite marks a recipe as one of the caller's favorites
// POST /api/v1/recipes/:id/favorite
func (ctrl *RecipeController) Favorite(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid recipe ID")
		return
	}

	recipe, err := ctrl.favoriteService.AddFavorite(userID, uint(id))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			apperrors.NotFound(c, apperrors.RecipeNotFound, "Recipe not found")
		case errors.Is(err, service.ErrAlreadyFavorited):
			apperrors.Conflict(c, apperrors.FavoriteAlreadyExists, "Recipe is already in favorites")
		default:
			log.Error("Failed to add favorite", err, map[string]interface{}{
				"recipe_id": id,
				"user_id":   userID,
			})
			apperrors.InternalError(c, "Failed to add favorite")
		}
		return
	}

	c.JSON(http.StatusCreated, view.NewRecipeShort(*recipe))
}

// Unfavorite removes a recipe from the caller's favorites; removing one that
// was never favorited succeeds
// DELETE /api/v1/recipes/:id/favorite
func (ctrl *RecipeController) Unfavorite(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid recipe ID")
		return
	}

	if err := ctrl.favoriteService.RemoveFavorite(userID, uint(id)); err != nil {
		log.Error("Failed to remove favorite", err, map[string]interface{}{
			"recipe_id": id,
			"user_id":   userID,
		})
		apperrors.InternalError(c, "Failed to remove favorite")
		return
	}

	c.Status(http.StatusNoContent)
}

// AddToShoppingCart puts a recipe into the caller's shopping cart
// POST /api/v1/recipes/:id/shopping_cart
func (ctrl *RecipeController) AddToShoppingCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid recipe ID")
		return
	}

	recipe, err := ctrl.cartService.AddToCart(userID, uint(id))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipeNotFound):
			apperrors.NotFound(c, apperrors.RecipeNotFound, "Recipe not found")
		case errors.Is(err, service.ErrAlreadyInCart):
			apperrors.Conflict(c, apperrors.CartRecipeExists, "Recipe is already in the shopping cart")
		default:
			log.Error("Failed to add recipe to shopping cart", err, map[string]interface{}{
				"recipe_id": id,
				"user_id":   userID,
			})
			apperrors.InternalError(c, "Failed to add recipe to shopping cart")
		}
		return
	}

	c.JSON(http.StatusCreated, view.NewRecipeShort(*recipe))
}

// RemoveFromShoppingCart removes a recipe from the caller's cart; removing
// one that was never added succeeds
// DELETE /api/v1/recipes/:id/shopping_cart
func (ctrl *RecipeController) RemoveFromShoppingCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid recipe ID")
		return
	}

	if err := ctrl.cartService.RemoveFromCart(userID, uint(id)); err != nil {
		log.Error("Failed to remove recipe from shopping cart", err, map[string]interface{}{
			"recipe_id": id,
			"user_id":   userID,
		})
		apperrors.InternalError(c, "Failed to remove recipe from shopping cart")
		return
	}

	c.Status(http.StatusNoContent)
}

// DownloadShoppingCart renders the aggregated ingredient list of the
// caller's cart as a downloadable file
// GET /api/v1/recipes/download_shopping_cart?format=txt|xlsx
func (ctrl *RecipeController) DownloadShoppingCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	list, err := ctrl.cartService.BuildShoppingList(userID)
	if err != nil {
		log.Error("Failed to build shopping list", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to build shopping list")
		return
	}

	switch c.DefaultQuery("format", "txt") {
	case "txt":
		c.Header("Content-Disposition", `attachment; filename="shoppinglist.txt"`)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", list.RenderText())
	case "xlsx":
		data, err := list.RenderXLSX()
		if err != nil {
			log.Error("Failed to render shopping list workbook", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.InternalError(c, "Failed to render shopping list")
			return
		}
		c.Header("Content-Disposition", `attachment; filename="shoppinglist.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	default:
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "format must be txt or xlsx")
	}
}
