// Package view builds the response shapes returned by the API. Shaping is an
// explicit function of (model, viewer) so reads and write read-backs always
// render through the same code path, and the per-caller flags (is_subscribed,
// is_favorited, is_in_shopping_cart) are consistent everywhere.
package view

import (
	"time"

	"github.com/avoronova/foodgram-backend/internal/app/model"
)

// Viewer is the calling identity's relation sets. The zero value is the
// anonymous viewer: every flag renders false.
type Viewer struct {
	UserID        uint
	Authenticated bool

	favoriteRecipes map[uint]struct{}
	cartRecipes     map[uint]struct{}
	subscribedTo    map[uint]struct{}
}

// Anonymous returns the viewer used for unauthenticated reads.
func Anonymous() Viewer {
	return Viewer{}
}

// NewViewer builds a viewer from the caller's favorite recipe IDs, shopping
// cart recipe IDs and subscribed author IDs.
func NewViewer(userID uint, favoriteIDs, cartIDs, authorIDs []uint) Viewer {
	v := Viewer{
		UserID:          userID,
		Authenticated:   true,
		favoriteRecipes: make(map[uint]struct{}, len(favoriteIDs)),
		cartRecipes:     make(map[uint]struct{}, len(cartIDs)),
		subscribedTo:    make(map[uint]struct{}, len(authorIDs)),
	}
	for _, id := range favoriteIDs {
		v.favoriteRecipes[id] = struct{}{}
	}
	for _, id := range cartIDs {
		v.cartRecipes[id] = struct{}{}
	}
	for _, id := range authorIDs {
		v.subscribedTo[id] = struct{}{}
	}
	return v
}

func (v Viewer) HasFavorited(recipeID uint) bool {
	_, ok := v.favoriteRecipes[recipeID]
	return ok
}

func (v Viewer) HasInCart(recipeID uint) bool {
	_, ok := v.cartRecipes[recipeID]
	return ok
}

func (v Viewer) IsSubscribedTo(authorID uint) bool {
	_, ok := v.subscribedTo[authorID]
	return ok
}

type UserResponse struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Avatar       string `json:"avatar,omitempty"`
	IsSubscribed bool   `json:"is_subscribed"`
}

func NewUserResponse(user model.User, viewer Viewer) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Avatar:       user.Avatar,
		IsSubscribed: viewer.IsSubscribedTo(user.ID),
	}
}

// IngredientEntry is one ingredient line of a recipe response: catalog
// fields flattened together with the recipe-specific amount.
type IngredientEntry struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeResponse struct {
	ID               uint              `json:"id"`
	Author           UserResponse      `json:"author"`
	Name             string            `json:"name"`
	Text             string            `json:"text"`
	Image            string            `json:"image"`
	CookingTime      int               `json:"cooking_time"`
	Tags             []model.Tag       `json:"tags"`
	Ingredients      []IngredientEntry `json:"ingredients"`
	IsFavorited      bool              `json:"is_favorited"`
	IsInShoppingCart bool              `json:"is_in_shopping_cart"`
	CreatedAt        time.Time         `json:"created_at"`
}

func NewRecipeResponse(recipe model.Recipe, viewer Viewer) RecipeResponse {
	entries := make([]IngredientEntry, 0, len(recipe.Ingredients))
	for _, quantity := range recipe.Ingredients {
		entries = append(entries, IngredientEntry{
			ID:              quantity.IngredientID,
			Name:            quantity.Ingredient.Name,
			MeasurementUnit: quantity.Ingredient.MeasurementUnit,
			Amount:          quantity.Amount,
		})
	}

	tags := recipe.Tags
	if tags == nil {
		tags = []model.Tag{}
	}

	return RecipeResponse{
		ID:               recipe.ID,
		Author:           NewUserResponse(recipe.Author, viewer),
		Name:             recipe.Name,
		Text:             recipe.Text,
		Image:            recipe.Image,
		CookingTime:      recipe.CookingTime,
		Tags:             tags,
		Ingredients:      entries,
		IsFavorited:      viewer.HasFavorited(recipe.ID),
		IsInShoppingCart: viewer.HasInCart(recipe.ID),
		CreatedAt:        recipe.CreatedAt,
	}
}

func NewRecipeList(recipes []model.Recipe, viewer Viewer) []RecipeResponse {
	responses := make([]RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		responses = append(responses, NewRecipeResponse(recipe, viewer))
	}
	return responses
}

// RecipeShort is the compact recipe shape embedded in subscription listings
// and favorite/cart confirmations.
type RecipeShort struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func NewRecipeShort(recipe model.Recipe) RecipeShort {
	return RecipeShort{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}
}

// AuthorResponse is a subscription listing entry: the author plus their
// recipe count and an optionally capped sample of their recipes.
type AuthorResponse struct {
	UserResponse
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

func NewAuthorResponse(user model.User, recipes []model.Recipe, recipesCount int64, viewer Viewer) AuthorResponse {
	shorts := make([]RecipeShort, 0, len(recipes))
	for _, recipe := range recipes {
		shorts = append(shorts, NewRecipeShort(recipe))
	}
	return AuthorResponse{
		UserResponse: NewUserResponse(user, viewer),
		Recipes:      shorts,
		RecipesCount: recipesCount,
	}
}
