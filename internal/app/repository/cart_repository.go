package repository

import (
	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

// IngredientTotal is one line of the aggregated shopping list: the summed
// amount of a single ingredient across every recipe in the cart.
type IngredientTotal struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Total           int    `json:"total"`
}

type CartRepository interface {
	FindByUserID(userID uint) (*model.ShoppingCart, error)
	AddRecipe(cartID, recipeID uint) error
	RemoveRecipe(cartID, recipeID uint) (int64, error)
	FindRecipeIDsByUser(userID uint) ([]uint, error)
	AggregateIngredients(userID uint) ([]IngredientTotal, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) FindByUserID(userID uint) (*model.ShoppingCart, error) {
	var cart model.ShoppingCart
	err := r.db.Where("user_id = ?", userID).
		Preload("Recipes").
		Preload("Recipes.Tags").
		First(&cart).Error
	if err != nil {
		logger.Error("Failed to find shopping cart by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return &cart, nil
}

// AddRecipe links a recipe into the cart. A duplicate pair violates the join
// table's composite primary key and the error is surfaced to the service.
func (r *cartRepository) AddRecipe(cartID, recipeID uint) error {
	logger.Debug("Adding recipe to shopping cart in database", map[string]interface{}{
		"cart_id":   cartID,
		"recipe_id": recipeID,
	})

	entry := model.ShoppingCartRecipe{
		ShoppingCartID: cartID,
		RecipeID:       recipeID,
	}
	if err := r.db.Create(&entry).Error; err != nil {
		logger.Error("Failed to add recipe to shopping cart in database", err, map[string]interface{}{
			"cart_id":   cartID,
			"recipe_id": recipeID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) RemoveRecipe(cartID, recipeID uint) (int64, error) {
	logger.Debug("Removing recipe from shopping cart in database", map[string]interface{}{
		"cart_id":   cartID,
		"recipe_id": recipeID,
	})

	result := r.db.Where("shopping_cart_id = ? AND recipe_id = ?", cartID, recipeID).
		Delete(&model.ShoppingCartRecipe{})
	if result.Error != nil {
		logger.Error("Failed to remove recipe from shopping cart in database", result.Error, map[string]interface{}{
			"cart_id":   cartID,
			"recipe_id": recipeID,
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *cartRepository) FindRecipeIDsByUser(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Table("shopping_cart_recipes").
		Joins("JOIN shopping_carts ON shopping_carts.id = shopping_cart_recipes.shopping_cart_id").
		Where("shopping_carts.user_id = ?", userID).
		Pluck("shopping_cart_recipes.recipe_id", &ids).Error
	if err != nil {
		logger.Error("Failed to find cart recipe IDs in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return ids, nil
}

// AggregateIngredients joins quantities through the cart membership, groups
// by ingredient and sums the amounts. Sorted by name for deterministic
// output; an empty cart yields zero rows.
func (r *cartRepository) AggregateIngredients(userID uint) ([]IngredientTotal, error) {
	logger.Debug("Aggregating shopping list ingredients", map[string]interface{}{
		"user_id": userID,
	})

	var totals []IngredientTotal
	err := r.db.Table("quantities").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(quantities.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = quantities.ingredient_id").
		Joins("JOIN shopping_cart_recipes ON shopping_cart_recipes.recipe_id = quantities.recipe_id").
		Joins("JOIN shopping_carts ON shopping_carts.id = shopping_cart_recipes.shopping_cart_id").
		Joins("JOIN recipes ON recipes.id = quantities.recipe_id AND recipes.deleted_at IS NULL").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name ASC").
		Scan(&totals).Error
	if err != nil {
		logger.Error("Failed to aggregate shopping list ingredients", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Shopping list ingredients aggregated", map[string]interface{}{
		"user_id": userID,
		"count":   len(totals),
	})
	return totals, nil
}
