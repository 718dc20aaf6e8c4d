package repository

import (
	"testing"
	"time"

	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRecipeRepositoryTest(t *testing.T) (RecipeRepository, *model.User, *model.Ingredient, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	recipeRepo := NewRecipeRepository(testDB)

	user := &model.User{
		Email:        "author@example.com",
		Username:     "author",
		FirstName:    "A",
		LastName:     "Author",
		PasswordHash: "hash",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)

	flour := &model.Ingredient{Name: "flour", MeasurementUnit: "g"}
	require.NoError(t, testDB.Create(flour).Error)

	return recipeRepo, user, flour, testDB
}

func seedRecipe(t *testing.T, testDB *gorm.DB, authorID uint, name string) *model.Recipe {
	t.Helper()
	recipe := &model.Recipe{
		AuthorID:    authorID,
		Name:        name,
		Text:        "text",
		Image:       "https://img.example.com/r.png",
		CookingTime: 10,
	}
	require.NoError(t, testDB.Create(recipe).Error)
	return recipe
}

func TestUpsertQuantities_AccumulatesOnConflict(t *testing.T) {
	_, user, flour, testDB := setupRecipeRepositoryTest(t)

	recipe := seedRecipe(t, testDB, user.ID, "Bread")

	err := UpsertQuantities(testDB, recipe.ID, []IngredientAmount{
		{IngredientID: flour.ID, Amount: 100},
	})
	require.NoError(t, err)

	// Submitting the same pair again adds to the stored amount instead of
	// failing on the unique index.
	err = UpsertQuantities(testDB, recipe.ID, []IngredientAmount{
		{IngredientID: flour.ID, Amount: 50},
	})
	require.NoError(t, err)

	var quantity model.Quantity
	require.NoError(t, testDB.
		Where("recipe_id = ? AND ingredient_id = ?", recipe.ID, flour.ID).
		First(&quantity).Error)
	assert.Equal(t, 150, quantity.Amount)
}

func TestRecipeRepository_FindWithFilter_Favorited(t *testing.T) {
	recipeRepo, user, _, testDB := setupRecipeRepositoryTest(t)

	liked := seedRecipe(t, testDB, user.ID, "Liked")
	ignored := seedRecipe(t, testDB, user.ID, "Ignored")

	require.NoError(t, testDB.Create(&model.FavoriteRecipe{
		UserID:   user.ID,
		RecipeID: liked.ID,
	}).Error)

	favorited := true
	recipes, total, err := recipeRepo.FindWithFilter(RecipeFilter{
		Favorited: &favorited,
		ViewerID:  user.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, recipes, 1)
	assert.Equal(t, liked.ID, recipes[0].ID)

	favorited = false
	recipes, total, err = recipeRepo.FindWithFilter(RecipeFilter{
		Favorited: &favorited,
		ViewerID:  user.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, recipes, 1)
	assert.Equal(t, ignored.ID, recipes[0].ID)
}

func TestRecipeRepository_FindWithFilter_InCart(t *testing.T) {
	recipeRepo, user, _, testDB := setupRecipeRepositoryTest(t)

	wanted := seedRecipe(t, testDB, user.ID, "Wanted")
	seedRecipe(t, testDB, user.ID, "Other")

	var cart model.ShoppingCart
	require.NoError(t, testDB.Where("user_id = ?", user.ID).First(&cart).Error)
	require.NoError(t, testDB.Create(&model.ShoppingCartRecipe{
		ShoppingCartID: cart.ID,
		RecipeID:       wanted.ID,
	}).Error)

	inCart := true
	recipes, total, err := recipeRepo.FindWithFilter(RecipeFilter{
		InCart:   &inCart,
		ViewerID: user.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, recipes, 1)
	assert.Equal(t, wanted.ID, recipes[0].ID)
}

func TestRecipeRepository_Delete_RemovesAssociationRows(t *testing.T) {
	recipeRepo, user, _, testDB := setupRecipeRepositoryTest(t)

	recipe := seedRecipe(t, testDB, user.ID, "Doomed")

	require.NoError(t, testDB.Create(&model.FavoriteRecipe{
		UserID:   user.ID,
		RecipeID: recipe.ID,
	}).Error)
	var cart model.ShoppingCart
	require.NoError(t, testDB.Where("user_id = ?", user.ID).First(&cart).Error)
	require.NoError(t, testDB.Create(&model.ShoppingCartRecipe{
		ShoppingCartID: cart.ID,
		RecipeID:       recipe.ID,
	}).Error)

	require.NoError(t, recipeRepo.Delete(recipe.ID))

	_, err := recipeRepo.FindByID(recipe.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var favorites int64
	testDB.Model(&model.FavoriteRecipe{}).Where("recipe_id = ?", recipe.ID).Count(&favorites)
	assert.Zero(t, favorites)

	var cartLinks int64
	testDB.Model(&model.ShoppingCartRecipe{}).Where("recipe_id = ?", recipe.ID).Count(&cartLinks)
	assert.Zero(t, cartLinks)
}

func TestRecipeRepository_PurgeDeletedBefore(t *testing.T) {
	recipeRepo, user, flour, testDB := setupRecipeRepositoryTest(t)

	recipe := seedRecipe(t, testDB, user.ID, "Old")
	require.NoError(t, UpsertQuantities(testDB, recipe.ID, []IngredientAmount{
		{IngredientID: flour.ID, Amount: 100},
	}))

	require.NoError(t, recipeRepo.Delete(recipe.ID))

	// Nothing is purged while the recipe is inside the retention window.
	purged, err := recipeRepo.PurgeDeletedBefore(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Zero(t, purged)

	purged, err = recipeRepo.PurgeDeletedBefore(time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	var remaining int64
	testDB.Unscoped().Model(&model.Recipe{}).Where("id = ?", recipe.ID).Count(&remaining)
	assert.Zero(t, remaining)

	var quantities int64
	testDB.Model(&model.Quantity{}).Where("recipe_id = ?", recipe.ID).Count(&quantities)
	assert.Zero(t, quantities)
}
