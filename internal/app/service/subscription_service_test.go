package service

import (
	"fmt"
	"testing"

	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/internal/app/repository"
	"github.com/avoronova/foodgram-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSubscriptionServiceTest(t *testing.T) (SubscriptionService, RecipeService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	subscriptionRepo := repository.NewSubscriptionRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	recipeRepo := repository.NewRecipeRepository(testDB)
	ingredientRepo := repository.NewIngredientRepository(testDB)
	tagRepo := repository.NewTagRepository(testDB)

	subscriptionService := NewSubscriptionService(subscriptionRepo, userRepo, recipeRepo)
	recipeService := NewRecipeService(recipeRepo, ingredientRepo, tagRepo, nil)

	return subscriptionService, recipeService, testDB
}

func seedUser(t *testing.T, testDB *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "hash",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func TestSubscriptionService_Subscribe(t *testing.T) {
	subscriptionService, _, testDB := setupSubscriptionServiceTest(t)

	reader := seedUser(t, testDB, "reader")
	author := seedUser(t, testDB, "writer")

	subscribed, err := subscriptionService.Subscribe(reader.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, subscribed.ID)

	ids, err := subscriptionService.GetSubscribedAuthorIDs(reader.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{author.ID}, ids)

	_, err = subscriptionService.Subscribe(reader.ID, author.ID)
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestSubscriptionService_Subscribe_ToSelf(t *testing.T) {
	subscriptionService, _, testDB := setupSubscriptionServiceTest(t)

	reader := seedUser(t, testDB, "reader")

	_, err := subscriptionService.Subscribe(reader.ID, reader.ID)
	assert.ErrorIs(t, err, ErrSelfSubscription)
}

func TestSubscriptionService_Subscribe_AuthorNotFound(t *testing.T) {
	subscriptionService, _, testDB := setupSubscriptionServiceTest(t)

	reader := seedUser(t, testDB, "reader")

	_, err := subscriptionService.Subscribe(reader.ID, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSubscriptionService_Unsubscribe_AbsentIsNoOp(t *testing.T) {
	subscriptionService, _, testDB := setupSubscriptionServiceTest(t)

	reader := seedUser(t, testDB, "reader")
	author := seedUser(t, testDB, "writer")

	assert.NoError(t, subscriptionService.Unsubscribe(reader.ID, author.ID))
}

func TestSubscriptionService_ListSubscriptions(t *testing.T) {
	subscriptionService, recipeService, testDB := setupSubscriptionServiceTest(t)

	reader := seedUser(t, testDB, "reader")
	author := seedUser(t, testDB, "writer")
	other := seedUser(t, testDB, "another")

	pepper := &model.Ingredient{Name: "pepper", MeasurementUnit: "g"}
	require.NoError(t, testDB.Create(pepper).Error)
	for i := 0; i < 3; i++ {
		seedCartRecipe(t, testDB, recipeService, author.ID, fmt.Sprintf("Dish %d", i), []IngredientInput{
			{ID: pepper.ID, Amount: 1},
		})
	}

	_, err := subscriptionService.Subscribe(reader.ID, author.ID)
	require.NoError(t, err)
	_, err = subscriptionService.Subscribe(reader.ID, other.ID)
	require.NoError(t, err)

	// recipes_limit caps the embedded sample, not the count.
	subscriptions, total, err := subscriptionService.ListSubscriptions(reader.ID, 10, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, subscriptions, 2)

	// Ordered by username: "another" before "writer".
	assert.Equal(t, "another", subscriptions[0].Author.Username)
	assert.EqualValues(t, 0, subscriptions[0].RecipesCount)
	assert.Empty(t, subscriptions[0].Recipes)

	assert.Equal(t, "writer", subscriptions[1].Author.Username)
	assert.EqualValues(t, 3, subscriptions[1].RecipesCount)
	assert.Len(t, subscriptions[1].Recipes, 2)
}
