package service

import (
	"testing"

	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/internal/app/repository"
	"github.com/avoronova/foodgram-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recipeFixture struct {
	service     RecipeService
	author      *model.User
	other       *model.User
	admin       *model.User
	flour       *model.Ingredient
	sugar       *model.Ingredient
	egg         *model.Ingredient
	breakfast   *model.Tag
	dinner      *model.Tag
	db          *gorm.DB
}

func setupRecipeServiceTest(t *testing.T) *recipeFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	recipeRepo := repository.NewRecipeRepository(testDB)
	ingredientRepo := repository.NewIngredientRepository(testDB)
	tagRepo := repository.NewTagRepository(testDB)
	recipeService := NewRecipeService(recipeRepo, ingredientRepo, tagRepo, nil)

	f := &recipeFixture{service: recipeService, db: testDB}

	f.author = &model.User{
		Email:        "author@example.com",
		Username:     "author",
		FirstName:    "Alice",
		LastName:     "Author",
		PasswordHash: "hash",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(f.author).Error)

	f.other = &model.User{
		Email:        "other@example.com",
		Username:     "other",
		FirstName:    "Oscar",
		LastName:     "Other",
		PasswordHash: "hash",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(f.other).Error)

	f.admin = &model.User{
		Email:        "admin@example.com",
		Username:     "admin",
		FirstName:    "Ada",
		LastName:     "Admin",
		PasswordHash: "hash",
		Role:         model.RoleAdmin,
	}
	require.NoError(t, testDB.Create(f.admin).Error)

	f.flour = &model.Ingredient{Name: "flour", MeasurementUnit: "g"}
	f.sugar = &model.Ingredient{Name: "sugar", MeasurementUnit: "g"}
	f.egg = &model.Ingredient{Name: "egg", MeasurementUnit: "pcs"}
	require.NoError(t, testDB.Create(f.flour).Error)
	require.NoError(t, testDB.Create(f.sugar).Error)
	require.NoError(t, testDB.Create(f.egg).Error)

	f.breakfast = &model.Tag{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}
	f.dinner = &model.Tag{Name: "Dinner", Color: "#7FB069", Slug: "dinner"}
	require.NoError(t, testDB.Create(f.breakfast).Error)
	require.NoError(t, testDB.Create(f.dinner).Error)

	return f
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func (f *recipeFixture) validInput() RecipeInput {
	return RecipeInput{
		Name:        strPtr("Pancakes"),
		Text:        strPtr("Mix and fry."),
		Image:       strPtr("https://img.example.com/pancakes.png"),
		CookingTime: intPtr(20),
		TagIDs:      []uint{f.breakfast.ID},
		Ingredients: []IngredientInput{
			{ID: f.flour.ID, Amount: 200},
			{ID: f.egg.ID, Amount: 2},
		},
	}
}

func TestRecipeService_CreateRecipe_Success(t *testing.T) {
	f := setupRecipeServiceTest(t)

	recipe, err := f.service.CreateRecipe(f.author.ID, f.validInput())
	require.NoError(t, err)

	assert.NotZero(t, recipe.ID)
	assert.Equal(t, "Pancakes", recipe.Name)
	assert.Equal(t, f.author.ID, recipe.AuthorID)
	assert.Equal(t, "author", recipe.Author.Username)
	assert.Equal(t, 20, recipe.CookingTime)

	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "breakfast", recipe.Tags[0].Slug)

	require.Len(t, recipe.Ingredients, 2)
	amounts := map[uint]int{}
	for _, q := range recipe.Ingredients {
		amounts[q.IngredientID] = q.Amount
		assert.NotEmpty(t, q.Ingredient.Name)
	}
	assert.Equal(t, 200, amounts[f.flour.ID])
	assert.Equal(t, 2, amounts[f.egg.ID])
}

func TestRecipeService_CreateRecipe_CollectsAllValidationErrors(t *testing.T) {
	f := setupRecipeServiceTest(t)

	_, err := f.service.CreateRecipe(f.author.ID, RecipeInput{})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "name")
	assert.Contains(t, vErr.Fields, "text")
	assert.Contains(t, vErr.Fields, "image")
	assert.Contains(t, vErr.Fields, "cooking_time")
	assert.Contains(t, vErr.Fields, "tags")
	assert.Contains(t, vErr.Fields, "ingredients")
}

func TestRecipeService_CreateRecipe_RejectsDuplicateIngredient(t *testing.T) {
	f := setupRecipeServiceTest(t)

	input := f.validInput()
	input.Ingredients = []IngredientInput{
		{ID: f.flour.ID, Amount: 100},
		{ID: f.flour.ID, Amount: 50},
	}

	_, err := f.service.CreateRecipe(f.author.ID, input)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "ingredients")
	assert.Len(t, vErr.Fields, 1)
}

func TestRecipeService_CreateRecipe_RejectsUnknownIngredientAndTag(t *testing.T) {
	f := setupRecipeServiceTest(t)

	input := f.validInput()
	input.Ingredients = []IngredientInput{{ID: 9999, Amount: 10}}
	input.TagIDs = []uint{9999}

	_, err := f.service.CreateRecipe(f.author.ID, input)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "ingredients")
	assert.Contains(t, vErr.Fields, "tags")
}

func TestRecipeService_CreateRecipe_RejectsNonPositiveAmount(t *testing.T) {
	f := setupRecipeServiceTest(t)

	input := f.validInput()
	input.Ingredients = []IngredientInput{{ID: f.flour.ID, Amount: 0}}

	_, err := f.service.CreateRecipe(f.author.ID, input)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "ingredients")
}

func TestRecipeService_CreateRecipe_RejectsZeroCookingTime(t *testing.T) {
	f := setupRecipeServiceTest(t)

	input := f.validInput()
	input.CookingTime = intPtr(0)

	_, err := f.service.CreateRecipe(f.author.ID, input)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "cooking_time")
}

func TestRecipeService_CreateRecipe_NameTaken(t *testing.T) {
	f := setupRecipeServiceTest(t)

	_, err := f.service.CreateRecipe(f.author.ID, f.validInput())
	require.NoError(t, err)

	_, err = f.service.CreateRecipe(f.other.ID, f.validInput())
	assert.ErrorIs(t, err, ErrRecipeNameTaken)
}

func TestRecipeService_UpdateRecipe_ReconcilesQuantities(t *testing.T) {
	f := setupRecipeServiceTest(t)

	input := f.validInput()
	input.Ingredients = []IngredientInput{
		{ID: f.flour.ID, Amount: 200},
		{ID: f.sugar.ID, Amount: 50},
	}
	recipe, err := f.service.CreateRecipe(f.author.ID, input)
	require.NoError(t, err)

	// flour amended, sugar removed, egg added
	update := RecipeInput{
		TagIDs: []uint{f.breakfast.ID},
		Ingredients: []IngredientInput{
			{ID: f.flour.ID, Amount: 300},
			{ID: f.egg.ID, Amount: 2},
		},
	}
	updated, err := f.service.UpdateRecipe(f.author.ID, model.RoleUser, recipe.ID, update)
	require.NoError(t, err)

	require.Len(t, updated.Ingredients, 2)
	amounts := map[uint]int{}
	for _, q := range updated.Ingredients {
		amounts[q.IngredientID] = q.Amount
	}
	assert.Equal(t, 300, amounts[f.flour.ID])
	assert.Equal(t, 2, amounts[f.egg.ID])
	assert.NotContains(t, amounts, f.sugar.ID)

	// Scalars were not submitted and must be untouched.
	assert.Equal(t, "Pancakes", updated.Name)
	assert.Equal(t, 20, updated.CookingTime)
}

func TestRecipeService_UpdateRecipe_PartialScalars(t *testing.T) {
	f := setupRecipeServiceTest(t)

	recipe, err := f.service.CreateRecipe(f.author.ID, f.validInput())
	require.NoError(t, err)

	update := RecipeInput{
		Name:   strPtr("Thin Pancakes"),
		TagIDs: []uint{f.dinner.ID},
		Ingredients: []IngredientInput{
			{ID: f.flour.ID, Amount: 200},
			{ID: f.egg.ID, Amount: 2},
		},
	}
	updated, err := f.service.UpdateRecipe(f.author.ID, model.RoleUser, recipe.ID, update)
	require.NoError(t, err)

	assert.Equal(t, "Thin Pancakes", updated.Name)
	assert.Equal(t, "Mix and fry.", updated.Text)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "dinner", updated.Tags[0].Slug)
}

func TestRecipeService_UpdateRecipe_RequiresIngredientsAndTags(t *testing.T) {
	f := setupRecipeServiceTest(t)

	recipe, err := f.service.CreateRecipe(f.author.ID, f.validInput())
	require.NoError(t, err)

	_, err = f.service.UpdateRecipe(f.author.ID, model.RoleUser, recipe.ID, RecipeInput{
		Name: strPtr("Renamed"),
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "ingredients")
	assert.Contains(t, vErr.Fields, "tags")
}

func TestRecipeService_UpdateRecipe_OwnerOnly(t *testing.T) {
	f := setupRecipeServiceTest(t)

	recipe, err := f.service.CreateRecipe(f.author.ID, f.validInput())
	require.NoError(t, err)

	update := f.validInput()
	update.Name = strPtr("Hijacked")

	_, err = f.service.UpdateRecipe(f.other.ID, model.RoleUser, recipe.ID, update)
	assert.ErrorIs(t, err, ErrNotRecipeOwner)

	// Admins may edit any recipe.
	update.Name = strPtr("Moderated")
	updated, err := f.service.UpdateRecipe(f.admin.ID, model.RoleAdmin, recipe.ID, update)
	require.NoError(t, err)
	assert.Equal(t, "Moderated", updated.Name)
}

func TestRecipeService_DeleteRecipe(t *testing.T) {
	f := setupRecipeServiceTest(t)

	recipe, err := f.service.CreateRecipe(f.author.ID, f.validInput())
	require.NoError(t, err)

	err = f.service.DeleteRecipe(f.other.ID, model.RoleUser, recipe.ID)
	assert.ErrorIs(t, err, ErrNotRecipeOwner)

	err = f.service.DeleteRecipe(f.author.ID, model.RoleUser, recipe.ID)
	require.NoError(t, err)

	_, err = f.service.GetRecipeByID(recipe.ID)
	assert.ErrorIs(t, err, ErrRecipeNotFound)

	err = f.service.DeleteRecipe(f.author.ID, model.RoleUser, recipe.ID)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestRecipeService_ListRecipes_Filters(t *testing.T) {
	f := setupRecipeServiceTest(t)

	pancakes := f.validInput()
	_, err := f.service.CreateRecipe(f.author.ID, pancakes)
	require.NoError(t, err)

	stew := RecipeInput{
		Name:        strPtr("Stew"),
		Text:        strPtr("Simmer for hours."),
		Image:       strPtr("https://img.example.com/stew.png"),
		CookingTime: intPtr(120),
		TagIDs:      []uint{f.dinner.ID},
		Ingredients: []IngredientInput{{ID: f.sugar.ID, Amount: 10}},
	}
	_, err = f.service.CreateRecipe(f.other.ID, stew)
	require.NoError(t, err)

	// Tag filter, OR semantics.
	recipes, total, err := f.service.ListRecipes(repository.RecipeFilter{
		TagSlugs: []string{"dinner"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Stew", recipes[0].Name)

	recipes, total, err = f.service.ListRecipes(repository.RecipeFilter{
		TagSlugs: []string{"dinner", "breakfast"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, recipes, 2)

	// Author filter.
	recipes, total, err = f.service.ListRecipes(repository.RecipeFilter{
		AuthorID: &f.author.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Pancakes", recipes[0].Name)
}

func TestReconcileQuantities(t *testing.T) {
	existing := []model.Quantity{
		{IngredientID: 1, Amount: 200},
		{IngredientID: 2, Amount: 50},
		{IngredientID: 3, Amount: 10},
	}
	desired := []repository.IngredientAmount{
		{IngredientID: 1, Amount: 300}, // amended
		{IngredientID: 3, Amount: 10},  // unchanged
		{IngredientID: 4, Amount: 5},   // added
	}

	diff := reconcileQuantities(existing, desired)

	assert.Equal(t, []uint{2}, diff.Remove)
	assert.Equal(t, []repository.IngredientAmount{{IngredientID: 1, Amount: 300}}, diff.Amend)
	assert.Equal(t, []repository.IngredientAmount{{IngredientID: 4, Amount: 5}}, diff.Add)
}
