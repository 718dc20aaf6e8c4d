package service

import (
	"bytes"
	"errors"
	"fmt"

	apperrors "github.com/avoronova/foodgram-backend/internal/errors"

	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/internal/app/repository"
	"github.com/avoronova/foodgram-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrCartNotFound     = errors.New("shopping cart not found")
	ErrAlreadyInCart    = errors.New("recipe is already in the shopping cart")
	ErrShoppingListFile = errors.New("failed to render shopping list file")
)

// ShoppingList is the aggregated ingredient summary of a user's cart,
// ordered by ingredient name.
type ShoppingList struct {
	Items []repository.IngredientTotal
}

// RenderText serializes the list one line per ingredient as "name: total".
func (l ShoppingList) RenderText() []byte {
	var buf bytes.Buffer
	for _, item := range l.Items {
		fmt.Fprintf(&buf, "%s: %d\n", item.Name, item.Total)
	}
	return buf.Bytes()
}

// RenderXLSX serializes the list as a single-sheet workbook with a header
// row and a measurement unit column.
func (l ShoppingList) RenderXLSX() ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	sheet := "Shopping list"
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := file.SetSheetRow(sheet, "A1", &[]interface{}{"Ingredient", "Amount", "Unit"}); err != nil {
		return nil, err
	}
	for i, item := range l.Items {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{item.Name, item.Total, item.MeasurementUnit}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type CartService interface {
	GetCart(userID uint) (*model.ShoppingCart, error)
	AddToCart(userID, recipeID uint) (*model.Recipe, error)
	RemoveFromCart(userID, recipeID uint) error
	GetCartRecipeIDs(userID uint) ([]uint, error)
	BuildShoppingList(userID uint) (ShoppingList, error)
}

type cartService struct {
	cartRepo   repository.CartRepository
	recipeRepo repository.RecipeRepository
}

func NewCartService(
	cartRepo repository.CartRepository,
	recipeRepo repository.RecipeRepository,
) CartService {
	return &cartService{
		cartRepo:   cartRepo,
		recipeRepo: recipeRepo,
	}
}

func (s *cartService) GetCart(userID uint) (*model.ShoppingCart, error) {
	logger.Debug("Fetching shopping cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		logger.Error("Failed to fetch shopping cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return cart, nil
}

// AddToCart puts the recipe into the user's cart and returns the recipe for
// the confirmation payload.
func (s *cartService) AddToCart(userID, recipeID uint) (*model.Recipe, error) {
	logger.Info("Adding recipe to shopping cart", map[string]interface{}{
		"user_id":   userID,
		"recipe_id": recipeID,
	})

	recipe, err := s.recipeRepo.FindByID(recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot add to cart: recipe not found", map[string]interface{}{
				"user_id":   userID,
				"recipe_id": recipeID,
			})
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	if err := s.cartRepo.AddRecipe(cart.ID, recipeID); err != nil {
		if apperrors.IsUniqueViolation(err) {
			logger.Warn("Recipe already in shopping cart", map[string]interface{}{
				"user_id":   userID,
				"recipe_id": recipeID,
			})
			return nil, ErrAlreadyInCart
		}
		logger.Error("Failed to add recipe to shopping cart", err, map[string]interface{}{
			"user_id":   userID,
			"recipe_id": recipeID,
		})
		return nil, err
	}

	logger.Info("Recipe added to shopping cart", map[string]interface{}{
		"user_id":   userID,
		"recipe_id": recipeID,
	})
	return recipe, nil
}

// RemoveFromCart removes the recipe from the cart. Removing a recipe that
// was never added succeeds as a no-op.
func (s *cartService) RemoveFromCart(userID, recipeID uint) error {
	logger.Info("Removing recipe from shopping cart", map[string]interface{}{
		"user_id":   userID,
		"recipe_id": recipeID,
	})

	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartNotFound
		}
		return err
	}

	removed, err := s.cartRepo.RemoveRecipe(cart.ID, recipeID)
	if err != nil {
		logger.Error("Failed to remove recipe from shopping cart", err, map[string]interface{}{
			"user_id":   userID,
			"recipe_id": recipeID,
		})
		return err
	}

	if removed == 0 {
		logger.Debug("Recipe was not in shopping cart", map[string]interface{}{
			"user_id":   userID,
			"recipe_id": recipeID,
		})
	}
	return nil
}

func (s *cartService) GetCartRecipeIDs(userID uint) ([]uint, error) {
	return s.cartRepo.FindRecipeIDsByUser(userID)
}

// BuildShoppingList aggregates ingredient amounts across every recipe in the
// user's cart. An empty cart yields an empty list, not an error.
func (s *cartService) BuildShoppingList(userID uint) (ShoppingList, error) {
	logger.Info("Building shopping list", map[string]interface{}{
		"user_id": userID,
	})

	items, err := s.cartRepo.AggregateIngredients(userID)
	if err != nil {
		logger.Error("Failed to build shopping list", err, map[string]interface{}{
			"user_id": userID,
		})
		return ShoppingList{}, err
	}

	logger.Info("Shopping list built", map[string]interface{}{
		"user_id": userID,
		"items":   len(items),
	})
	return ShoppingList{Items: items}, nil
}
