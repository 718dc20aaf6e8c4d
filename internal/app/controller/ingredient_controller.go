package controller

import (
	"errors"
	"net/http"
	"strconv"

	apperrors "github.com/avoronova/foodgram-backend/internal/errors"

	"github.com/avoronova/foodgram-backend/internal/app/service"
	"github.com/avoronova/foodgram-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type IngredientController struct {
	ingredientService service.IngredientService
}

func NewIngredientController(ingredientService service.IngredientService) *IngredientController {
	return &IngredientController{
		ingredientService: ingredientService,
	}
}

// ListIngredients returns ingredients matching the optional name prefix
// GET /api/v1/ingredients?search=<prefix>
func (ctrl *IngredientController) ListIngredients(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	prefix := c.Query("search")

	ingredients, err := ctrl.ingredientService.SearchIngredients(prefix)
	if err != nil {
		log.Error("Failed to search ingredients", err, map[string]interface{}{
			"prefix": prefix,
		})
		apperrors.InternalError(c, "Failed to fetch ingredients")
		return
	}

	c.JSON(http.StatusOK, ingredients)
}

// GetIngredient returns a single ingredient
// GET /api/v1/ingredients/:id
func (ctrl *IngredientController) GetIngredient(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid ingredient ID")
		return
	}

	ingredient, err := ctrl.ingredientService.GetIngredientByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrIngredientNotFound) {
			apperrors.NotFound(c, apperrors.IngredientNotFound, "Ingredient not found")
			return
		}
		log.Error("Failed to fetch ingredient", err, map[string]interface{}{
			"ingredient_id": id,
		})
		apperrors.InternalError(c, "Failed to fetch ingredient")
		return
	}

	c.JSON(http.StatusOK, ingredient)
}
