package repository

import (
	"time"

	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeFilter drives the recipe list query. Favorited/InCart are tri-state:
// nil means "no filter", true/false mirror the is_favorited=1/0 query params
// and are evaluated against ViewerID.
type RecipeFilter struct {
	AuthorID  *uint
	TagSlugs  []string // OR semantics
	Favorited *bool
	InCart    *bool
	ViewerID  uint
	Limit     int
	Offset    int
}

// IngredientAmount is one validated (ingredient, amount) pair of a recipe
// write request.
type IngredientAmount struct {
	IngredientID uint
	Amount       int
}

// QuantityDiff is a reconciliation plan for a recipe's quantity rows:
// ingredient IDs to remove, pairs whose amount changes, and pairs to insert.
type QuantityDiff struct {
	Remove []uint
	Amend  []IngredientAmount
	Add    []IngredientAmount
}

type RecipeRepository interface {
	CreateWithRelations(recipe *model.Recipe, tags []model.Tag, pairs []IngredientAmount) error
	UpdateWithRelations(recipe *model.Recipe, updates map[string]interface{}, tags []model.Tag, diff QuantityDiff) error
	FindWithFilter(filter RecipeFilter) ([]model.Recipe, int64, error)
	FindByID(id uint) (*model.Recipe, error)
	FindByAuthor(authorID uint, limit int) ([]model.Recipe, error)
	CountByAuthor(authorID uint) (int64, error)
	FindQuantities(recipeID uint) ([]model.Quantity, error)
	Delete(id uint) error
	PurgeDeletedBefore(cutoff time.Time) (int64, error)
}

type recipeRepository struct {
	db *gorm.DB
}

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// UpsertQuantities inserts quantity rows for a recipe. When a row for the
// same (recipe, ingredient) pair already exists the amount is accumulated
// atomically instead of failing, which makes retried submissions safe.
// Runs against the caller's handle so it can participate in a transaction.
func UpsertQuantities(db *gorm.DB, recipeID uint, pairs []IngredientAmount) error {
	if len(pairs) == 0 {
		return nil
	}

	rows := make([]model.Quantity, 0, len(pairs))
	for _, pair := range pairs {
		rows = append(rows, model.Quantity{
			RecipeID:     recipeID,
			IngredientID: pair.IngredientID,
			Amount:       pair.Amount,
		})
	}

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "recipe_id"}, {Name: "ingredient_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount": gorm.Expr("amount + excluded.amount"),
		}),
	}).Create(&rows).Error
}

// CreateWithRelations persists the recipe row, its tag links and its
// quantity rows in one transaction, so a failed quantity insert never leaves
// a half-created recipe behind.
func (r *recipeRepository) CreateWithRelations(recipe *model.Recipe, tags []model.Tag, pairs []IngredientAmount) error {
	logger.Debug("Creating recipe in database", map[string]interface{}{
		"name":        recipe.Name,
		"author_id":   recipe.AuthorID,
		"tags":        len(tags),
		"ingredients": len(pairs),
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		return UpsertQuantities(tx, recipe.ID, pairs)
	})
	if err != nil {
		logger.Error("Failed to create recipe in database", err, map[string]interface{}{
			"name":      recipe.Name,
			"author_id": recipe.AuthorID,
		})
		return err
	}

	logger.Debug("Recipe created in database", map[string]interface{}{
		"recipe_id": recipe.ID,
	})
	return nil
}

// UpdateWithRelations applies scalar column updates, replaces the tag set and
// executes a quantity reconciliation plan in one transaction. Amended rows are
// set to the submitted amount; untouched rows are left alone.
func (r *recipeRepository) UpdateWithRelations(recipe *model.Recipe, updates map[string]interface{}, tags []model.Tag, diff QuantityDiff) error {
	logger.Debug("Updating recipe in database", map[string]interface{}{
		"recipe_id": recipe.ID,
		"removed":   len(diff.Remove),
		"amended":   len(diff.Amend),
		"added":     len(diff.Add),
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(recipe).Updates(updates).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		if len(diff.Remove) > 0 {
			if err := tx.Where("recipe_id = ? AND ingredient_id IN ?", recipe.ID, diff.Remove).
				Delete(&model.Quantity{}).Error; err != nil {
				return err
			}
		}
		for _, pair := range diff.Amend {
			if err := tx.Model(&model.Quantity{}).
				Where("recipe_id = ? AND ingredient_id = ?", recipe.ID, pair.IngredientID).
				Update("amount", pair.Amount).Error; err != nil {
				return err
			}
		}
		return UpsertQuantities(tx, recipe.ID, diff.Add)
	})
	if err != nil {
		logger.Error("Failed to update recipe in database", err, map[string]interface{}{
			"recipe_id": recipe.ID,
		})
		return err
	}

	logger.Debug("Recipe updated in database", map[string]interface{}{
		"recipe_id": recipe.ID,
	})
	return nil
}

func (r *recipeRepository) baseQuery() *gorm.DB {
	return r.db.Model(&model.Recipe{}).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient")
}

// filteredQuery applies the filter conditions without ordering, preloads or
// pagination so the same builder serves both Count and Find.
func (r *recipeRepository) filteredQuery(filter RecipeFilter) *gorm.DB {
	query := r.db.Model(&model.Recipe{})

	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}

	if len(filter.TagSlugs) > 0 {
		tagged := r.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}

	if filter.Favorited != nil {
		favorited := r.db.Table("favorite_recipes").
			Select("favorite_recipes.recipe_id").
			Where("favorite_recipes.user_id = ?", filter.ViewerID)
		if *filter.Favorited {
			query = query.Where("recipes.id IN (?)", favorited)
		} else {
			query = query.Where("recipes.id NOT IN (?)", favorited)
		}
	}

	if filter.InCart != nil {
		inCart := r.db.Table("shopping_cart_recipes").
			Select("shopping_cart_recipes.recipe_id").
			Joins("JOIN shopping_carts ON shopping_carts.id = shopping_cart_recipes.shopping_cart_id").
			Where("shopping_carts.user_id = ?", filter.ViewerID)
		if *filter.InCart {
			query = query.Where("recipes.id IN (?)", inCart)
		} else {
			query = query.Where("recipes.id NOT IN (?)", inCart)
		}
	}

	return query
}

func (r *recipeRepository) FindWithFilter(filter RecipeFilter) ([]model.Recipe, int64, error) {
	logger.Debug("Finding recipes with filter", map[string]interface{}{
		"author_id": filter.AuthorID,
		"tags":      filter.TagSlugs,
		"favorited": filter.Favorited,
		"in_cart":   filter.InCart,
		"viewer_id": filter.ViewerID,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	})

	var total int64
	if err := r.filteredQuery(filter).Count(&total).Error; err != nil {
		logger.Error("Failed to count recipes with filter", err, nil)
		return nil, 0, err
	}

	query := r.filteredQuery(filter).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Order("recipes.created_at DESC")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var recipes []model.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		logger.Error("Failed to find recipes with filter", err, nil)
		return nil, 0, err
	}

	logger.Debug("Recipes found with filter", map[string]interface{}{
		"count": len(recipes),
		"total": total,
	})
	return recipes, total, nil
}

func (r *recipeRepository) FindByID(id uint) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := r.baseQuery().First(&recipe, id).Error; err != nil {
		logger.Error("Failed to find recipe by ID in database", err, map[string]interface{}{
			"recipe_id": id,
		})
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) FindByAuthor(authorID uint, limit int) ([]model.Recipe, error) {
	var recipes []model.Recipe
	query := r.db.Where("author_id = ?", authorID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&recipes).Error; err != nil {
		logger.Error("Failed to find recipes by author in database", err, map[string]interface{}{
			"author_id": authorID,
		})
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepository) CountByAuthor(authorID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Recipe{}).Where("author_id = ?", authorID).Count(&count).Error
	if err != nil {
		logger.Error("Failed to count recipes by author in database", err, map[string]interface{}{
			"author_id": authorID,
		})
		return 0, err
	}
	return count, nil
}

func (r *recipeRepository) FindQuantities(recipeID uint) ([]model.Quantity, error) {
	var quantities []model.Quantity
	err := r.db.Where("recipe_id = ?", recipeID).Find(&quantities).Error
	if err != nil {
		logger.Error("Failed to find quantities for recipe in database", err, map[string]interface{}{
			"recipe_id": recipeID,
		})
		return nil, err
	}
	return quantities, nil
}

// Delete soft-deletes a recipe and removes the association rows that point
// at it, in one transaction, so favorites/carts never reference an invisible
// recipe. Quantity rows stay until the purge so the recipe could be restored
// manually if needed.
func (r *recipeRepository) Delete(id uint) error {
	logger.Debug("Deleting recipe from database", map[string]interface{}{
		"recipe_id": id,
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&model.FavoriteRecipe{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.ShoppingCartRecipe{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.RecipeTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Recipe{}, id).Error
	})
	if err != nil {
		logger.Error("Failed to delete recipe from database", err, map[string]interface{}{
			"recipe_id": id,
		})
		return err
	}

	logger.Debug("Recipe deleted from database", map[string]interface{}{
		"recipe_id": id,
	})
	return nil
}

// PurgeDeletedBefore hard-deletes recipes soft-deleted before the cutoff,
// together with their quantity rows. Called by the cleanup scheduler.
func (r *recipeRepository) PurgeDeletedBefore(cutoff time.Time) (int64, error) {
	logger.Info("Purging soft-deleted recipes", map[string]interface{}{
		"cutoff": cutoff,
	})

	var purged int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Unscoped().Model(&model.Recipe{}).
			Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("recipe_id IN ?", ids).Delete(&model.Quantity{}).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Delete(&model.Recipe{}, ids)
		if result.Error != nil {
			return result.Error
		}
		purged = result.RowsAffected
		return nil
	})
	if err != nil {
		logger.Error("Failed to purge soft-deleted recipes", err, nil)
		return 0, err
	}

	logger.Info("Soft-deleted recipes purged", map[string]interface{}{
		"count": purged,
	})
	return purged, nil
}
