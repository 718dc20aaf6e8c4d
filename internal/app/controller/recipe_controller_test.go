package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avoronova/foodgram-backend/config"
	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/internal/app/repository"
	"github.com/avoronova/foodgram-backend/internal/app/service"
	"github.com/avoronova/foodgram-backend/internal/db"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recipeControllerFixture struct {
	controller *RecipeController
	router     *gin.Engine
	db         *gorm.DB
	user       *model.User
	flour      *model.Ingredient
	sugar      *model.Ingredient
	breakfast  *model.Tag
}

func setupRecipeControllerTest(t *testing.T) *recipeControllerFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	recipeRepo := repository.NewRecipeRepository(testDB)
	ingredientRepo := repository.NewIngredientRepository(testDB)
	tagRepo := repository.NewTagRepository(testDB)
	favoriteRepo := repository.NewFavoriteRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	subscriptionRepo := repository.NewSubscriptionRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)

	recipeService := service.NewRecipeService(recipeRepo, ingredientRepo, tagRepo, nil)
	favoriteService := service.NewFavoriteService(favoriteRepo, recipeRepo)
	cartService := service.NewCartService(cartRepo, recipeRepo)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, userRepo, recipeRepo)

	pagination := &config.PaginationConfig{PageSize: 6, MaxPageSize: 100}
	recipeController := NewRecipeController(recipeService, favoriteService, cartService, subscriptionService, pagination)

	f := &recipeControllerFixture{
		controller: recipeController,
		db:         testDB,
	}

	f.user = &model.User{
		Email:        "test@example.com",
		Username:     "tester",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "hash",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(f.user).Error)

	f.flour = &model.Ingredient{Name: "flour", MeasurementUnit: "g"}
	f.sugar = &model.Ingredient{Name: "sugar", MeasurementUnit: "g"}
	require.NoError(t, testDB.Create(f.flour).Error)
	require.NoError(t, testDB.Create(f.sugar).Error)

	f.breakfast = &model.Tag{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}
	require.NoError(t, testDB.Create(f.breakfast).Error)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	// Routes registered with the caller identity injected directly, the way
	// the auth middleware would after validating a token.
	authed := func(handler gin.HandlerFunc) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set("user_id", f.user.ID)
			c.Set("user_role", f.user.Role)
			handler(c)
		}
	}

	router.GET("/recipes", recipeController.ListRecipes)
	router.GET("/recipes/download_shopping_cart", authed(recipeController.DownloadShoppingCart))
	router.GET("/recipes/:id", recipeController.GetRecipe)
	router.POST("/recipes", authed(recipeController.CreateRecipe))
	router.PATCH("/recipes/:id", authed(recipeController.UpdateRecipe))
	router.DELETE("/recipes/:id", authed(recipeController.DeleteRecipe))
	router.POST("/recipes/:id/favorite", authed(recipeController.Favorite))
	router.DELETE("/recipes/:id/favorite", authed(recipeController.Unfavorite))
	router.POST("/recipes/:id/shopping_cart", authed(recipeController.AddToShoppingCart))
	router.DELETE("/recipes/:id/shopping_cart", authed(recipeController.RemoveFromShoppingCart))

	f.router = router
	return f
}

func (f *recipeControllerFixture) recipePayload() map[string]interface{} {
	return map[string]interface{}{
		"name":         "Pancakes",
		"text":         "Mix and fry.",
		"image":        "https://img.example.com/pancakes.png",
		"cooking_time": 20,
		"tags":         []uint{f.breakfast.ID},
		"ingredients": []map[string]interface{}{
			{"id": f.flour.ID, "amount": 200},
			{"id": f.sugar.ID, "amount": 50},
		},
	}
}

func (f *recipeControllerFixture) doJSON(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestRecipeController_CreateRecipe_Success(t *testing.T) {
	f := setupRecipeControllerTest(t)

	w := f.doJSON(t, http.MethodPost, "/recipes", f.recipePayload())
	require.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "Pancakes", response["name"])
	assert.Equal(t, false, response["is_favorited"])
	assert.Equal(t, false, response["is_in_shopping_cart"])

	author := response["author"].(map[string]interface{})
	assert.Equal(t, "tester", author["username"])
	assert.Equal(t, false, author["is_subscribed"])

	ingredients := response["ingredients"].([]interface{})
	assert.Len(t, ingredients, 2)
	first := ingredients[0].(map[string]interface{})
	assert.Equal(t, "flour", first["name"])
	assert.Equal(t, float64(200), first["amount"])
	assert.Equal(t, "g", first["measurement_unit"])
}

func TestRecipeController_CreateRecipe_ValidationErrorsPerField(t *testing.T) {
	f := setupRecipeControllerTest(t)

	payload := f.recipePayload()
	payload["cooking_time"] = 0
	payload["ingredients"] = []map[string]interface{}{}

	w := f.doJSON(t, http.MethodPost, "/recipes", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	fields := response["fields"].(map[string]interface{})
	assert.Contains(t, fields, "cooking_time")
	assert.Contains(t, fields, "ingredients")
}

func TestRecipeController_GetRecipe_NotFound(t *testing.T) {
	f := setupRecipeControllerTest(t)

	w := f.doJSON(t, http.MethodGet, "/recipes/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipeController_CreateFavoriteDeleteFlow(t *testing.T) {
	f := setupRecipeControllerTest(t)

	w := f.doJSON(t, http.MethodPost, "/recipes", f.recipePayload())
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	recipeID := uint(created["id"].(float64))

	// Favorite it; the read path now reports is_favorited=true.
	w = f.doJSON(t, http.MethodPost, fmt.Sprintf("/recipes/%d/favorite", recipeID), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.doJSON(t, http.MethodPost, fmt.Sprintf("/recipes/%d/favorite", recipeID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Delete the recipe; favorites must not break deletion.
	w = f.doJSON(t, http.MethodDelete, fmt.Sprintf("/recipes/%d", recipeID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.doJSON(t, http.MethodGet, fmt.Sprintf("/recipes/%d", recipeID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipeController_DownloadShoppingCart(t *testing.T) {
	f := setupRecipeControllerTest(t)

	w := f.doJSON(t, http.MethodPost, "/recipes", f.recipePayload())
	require.Equal(t, http.StatusCreated, w.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	recipeID := uint(created["id"].(float64))

	w = f.doJSON(t, http.MethodPost, fmt.Sprintf("/recipes/%d/shopping_cart", recipeID), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.doJSON(t, http.MethodGet, "/recipes/download_shopping_cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "shoppinglist.txt")
	assert.Equal(t, "flour: 200\nsugar: 50\n", w.Body.String())

	w = f.doJSON(t, http.MethodGet, "/recipes/download_shopping_cart?format=xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "shoppinglist.xlsx")

	w = f.doJSON(t, http.MethodGet, "/recipes/download_shopping_cart?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecipeController_ListRecipes_InvalidFlag(t *testing.T) {
	f := setupRecipeControllerTest(t)

	w := f.doJSON(t, http.MethodGet, "/recipes?is_favorited=2", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecipeController_ListRecipes_Pagination(t *testing.T) {
	f := setupRecipeControllerTest(t)

	for i := 0; i < 3; i++ {
		payload := f.recipePayload()
		payload["name"] = fmt.Sprintf("Recipe %d", i)
		w := f.doJSON(t, http.MethodPost, "/recipes", payload)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.doJSON(t, http.MethodGet, "/recipes?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.EqualValues(t, 3, response["total"])
	assert.EqualValues(t, 2, response["total_pages"])
	assert.Len(t, response["results"].([]interface{}), 2)

	// Newest first.
	results := response["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.Equal(t, "Recipe 2", first["name"])
}
