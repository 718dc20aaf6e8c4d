package service

import (
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/avoronova/foodgram-backend/internal/errors"

	"github.com/avoronova/foodgram-backend/internal/app/model"
	"github.com/avoronova/foodgram-backend/internal/app/repository"
	"github.com/avoronova/foodgram-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrRecipeNameTaken = errors.New("recipe name already taken")
	ErrNotRecipeOwner  = errors.New("only the author can modify this recipe")
)

// ValidationError carries every rejected field of a recipe write at once,
// keyed by field name, so the client can render all problems in one round
// trip instead of discovering them one by one.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IngredientInput is one (ingredient, amount) pair of a recipe write request.
type IngredientInput struct {
	ID     uint `json:"id"`
	Amount int  `json:"amount"`
}

// RecipeInput is a recipe write payload. Scalar fields are pointers so a
// partial update can distinguish "not submitted" from an empty value; the
// ingredient and tag lists are mandatory on every write and always replace
// the stored sets.
type RecipeInput struct {
	Name        *string
	Text        *string
	Image       *string
	CookingTime *int
	TagIDs      []uint
	Ingredients []IngredientInput
}

// ImageStore persists an uploaded image and returns its public URL.
type ImageStore interface {
	Store(dataURI string) (string, error)
}

type RecipeService interface {
	CreateRecipe(authorID uint, input RecipeInput) (*model.Recipe, error)
	UpdateRecipe(callerID uint, callerRole model.UserRole, recipeID uint, input RecipeInput) (*model.Recipe, error)
	DeleteRecipe(callerID uint, callerRole model.UserRole, recipeID uint) error
	GetRecipeByID(id uint) (*model.Recipe, error)
	ListRecipes(filter repository.RecipeFilter) ([]model.Recipe, int64, error)
}

type recipeService struct {
	recipeRepo     repository.RecipeRepository
	ingredientRepo repository.IngredientRepository
	tagRepo        repository.TagRepository
	images         ImageStore
}

func NewRecipeService(
	recipeRepo repository.RecipeRepository,
	ingredientRepo repository.IngredientRepository,
	tagRepo repository.TagRepository,
	images ImageStore,
) RecipeService {
	return &recipeService{
		recipeRepo:     recipeRepo,
		ingredientRepo: ingredientRepo,
		tagRepo:        tagRepo,
		images:         images,
	}
}

// validateInput checks a write payload and collects every violation into one
// ValidationError. On success it returns the resolved tag rows and the
// deduplicated (ingredient, amount) pairs ready for persistence.
func (s *recipeService) validateInput(input RecipeInput, forCreate bool) ([]model.Tag, []repository.IngredientAmount, error) {
	fields := make(map[string]string)

	checkScalar := func(name string, value *string) {
		if value == nil {
			if forCreate {
				fields[name] = "this field is required"
			}
			return
		}
		if strings.TrimSpace(*value) == "" {
			fields[name] = "this field must not be empty"
		}
	}
	checkScalar("name", input.Name)
	checkScalar("text", input.Text)
	checkScalar("image", input.Image)

	if input.CookingTime == nil {
		if forCreate {
			fields["cooking_time"] = "this field is required"
		}
	} else if *input.CookingTime < 1 {
		fields["cooking_time"] = "cooking time must be at least 1 minute"
	}

	var tags []model.Tag
	if len(input.TagIDs) == 0 {
		fields["tags"] = "at least one tag is required"
	} else if dup, ok := firstDuplicate(input.TagIDs); ok {
		fields["tags"] = fmt.Sprintf("tag with id %d is listed more than once", dup)
	} else {
		found, err := s.tagRepo.FindByIDs(input.TagIDs)
		if err != nil {
			return nil, nil, err
		}
		if missing, ok := firstMissing(input.TagIDs, tagIDSet(found)); ok {
			fields["tags"] = fmt.Sprintf("tag with id %d does not exist", missing)
		} else {
			tags = found
		}
	}

	var pairs []repository.IngredientAmount
	if len(input.Ingredients) == 0 {
		fields["ingredients"] = "at least one ingredient is required"
	} else {
		ids := make([]uint, 0, len(input.Ingredients))
		for _, ing := range input.Ingredients {
			ids = append(ids, ing.ID)
		}
		switch {
		case hasNonPositiveAmount(input.Ingredients):
			fields["ingredients"] = "ingredient amounts must be at least 1"
		default:
			if dup, ok := firstDuplicate(ids); ok {
				fields["ingredients"] = fmt.Sprintf("ingredient with id %d is listed more than once", dup)
				break
			}
			found, err := s.ingredientRepo.FindByIDs(ids)
			if err != nil {
				return nil, nil, err
			}
			if missing, ok := firstMissing(ids, ingredientIDSet(found)); ok {
				fields["ingredients"] = fmt.Sprintf("ingredient with id %d does not exist", missing)
				break
			}
			for _, ing := range input.Ingredients {
				pairs = append(pairs, repository.IngredientAmount{
					IngredientID: ing.ID,
					Amount:       ing.Amount,
				})
			}
		}
	}

	if len(fields) > 0 {
		return nil, nil, &ValidationError{Fields: fields}
	}
	return tags, pairs, nil
}

func hasNonPositiveAmount(ingredients []IngredientInput) bool {
	for _, ing := range ingredients {
		if ing.Amount < 1 {
			return true
		}
	}
	return false
}

func firstDuplicate(ids []uint) (uint, bool) {
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return 0, false
}

func firstMissing(requested []uint, existing map[uint]struct{}) (uint, bool) {
	for _, id := range requested {
		if _, ok := existing[id]; !ok {
			return id, true
		}
	}
	return 0, false
}

func tagIDSet(tags []model.Tag) map[uint]struct{} {
	set := make(map[uint]struct{}, len(tags))
	for _, tag := range tags {
		set[tag.ID] = struct{}{}
	}
	return set
}

func ingredientIDSet(ingredients []model.Ingredient) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ingredients))
	for _, ingredient := range ingredients {
		set[ingredient.ID] = struct{}{}
	}
	return set
}

// resolveImage uploads inline base64 payloads through the image store and
// returns the resulting URL. Plain URLs pass through untouched, as does
// everything when no store is configured.
func (s *recipeService) resolveImage(image string) (string, error) {
	if s.images == nil || !strings.HasPrefix(image, "data:") {
		return image, nil
	}
	return s.images.Store(image)
}

func (s *recipeService) CreateRecipe(authorID uint, input RecipeInput) (*model.Recipe, error) {
	logger.Info("Creating recipe", map[string]interface{}{
		"author_id": authorID,
	})

	tags, pairs, err := s.validateInput(input, true)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			logger.Warn("Recipe creation rejected by validation", map[string]interface{}{
				"author_id": authorID,
				"fields":    vErr.Fields,
			})
		}
		return nil, err
	}

	imageURL, err := s.resolveImage(*input.Image)
	if err != nil {
		logger.Error("Failed to store recipe image", err, map[string]interface{}{
			"author_id": authorID,
		})
		return nil, err
	}

	recipe := &model.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(*input.Name),
		Text:        *input.Text,
		Image:       imageURL,
		CookingTime: *input.CookingTime,
	}

	if err := s.recipeRepo.CreateWithRelations(recipe, tags, pairs); err != nil {
		if apperrors.IsUniqueViolation(err) {
			logger.Warn("Recipe creation failed: name already taken", map[string]interface{}{
				"author_id": authorID,
				"name":      recipe.Name,
			})
			return nil, ErrRecipeNameTaken
		}
		logger.Error("Failed to create recipe", err, map[string]interface{}{
			"author_id": authorID,
		})
		return nil, err
	}

	logger.Info("Recipe created successfully", map[string]interface{}{
		"recipe_id": recipe.ID,
		"author_id": authorID,
	})

	return s.recipeRepo.FindByID(recipe.ID)
}

func (s *recipeService) UpdateRecipe(callerID uint, callerRole model.UserRole, recipeID uint, input RecipeInput) (*model.Recipe, error) {
	logger.Info("Updating recipe", map[string]interface{}{
		"recipe_id": recipeID,
		"caller_id": callerID,
	})

	recipe, err := s.recipeRepo.FindByID(recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	if recipe.AuthorID != callerID && callerRole != model.RoleAdmin {
		logger.Warn("Recipe update denied: caller is not the author", map[string]interface{}{
			"recipe_id": recipeID,
			"caller_id": callerID,
			"author_id": recipe.AuthorID,
		})
		return nil, ErrNotRecipeOwner
	}

	tags, pairs, err := s.validateInput(input, false)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			logger.Warn("Recipe update rejected by validation", map[string]interface{}{
				"recipe_id": recipeID,
				"fields":    vErr.Fields,
			})
		}
		return nil, err
	}

	updates := make(map[string]interface{})
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Text != nil {
		updates["text"] = *input.Text
	}
	if input.CookingTime != nil {
		updates["cooking_time"] = *input.CookingTime
	}
	if input.Image != nil {
		imageURL, err := s.resolveImage(*input.Image)
		if err != nil {
			logger.Error("Failed to store recipe image", err, map[string]interface{}{
				"recipe_id": recipeID,
			})
			return nil, err
		}
		updates["image"] = imageURL
	}

	existing, err := s.recipeRepo.FindQuantities(recipeID)
	if err != nil {
		return nil, err
	}
	diff := reconcileQuantities(existing, pairs)

	if err := s.recipeRepo.UpdateWithRelations(recipe, updates, tags, diff); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, ErrRecipeNameTaken
		}
		logger.Error("Failed to update recipe", err, map[string]interface{}{
			"recipe_id": recipeID,
		})
		return nil, err
	}

	logger.Info("Recipe updated successfully", map[string]interface{}{
		"recipe_id": recipeID,
		"removed":   len(diff.Remove),
		"amended":   len(diff.Amend),
		"added":     len(diff.Add),
	})

	return s.recipeRepo.FindByID(recipeID)
}

// reconcileQuantities compares the stored quantity rows with the submitted
// pairs and produces the minimal change set: rows absent from the submission
// are removed, rows whose amount changed are amended, new pairs are added.
// Rows with an unchanged amount are not touched at all.
func reconcileQuantities(existing []model.Quantity, desired []repository.IngredientAmount) repository.QuantityDiff {
	current := make(map[uint]int, len(existing))
	for _, quantity := range existing {
		current[quantity.IngredientID] = quantity.Amount
	}

	var diff repository.QuantityDiff
	wanted := make(map[uint]struct{}, len(desired))
	for _, pair := range desired {
		wanted[pair.IngredientID] = struct{}{}
		amount, ok := current[pair.IngredientID]
		switch {
		case !ok:
			diff.Add = append(diff.Add, pair)
		case amount != pair.Amount:
			diff.Amend = append(diff.Amend, pair)
		}
	}
	for _, quantity := range existing {
		if _, ok := wanted[quantity.IngredientID]; !ok {
			diff.Remove = append(diff.Remove, quantity.IngredientID)
		}
	}
	return diff
}

func (s *recipeService) DeleteRecipe(callerID uint, callerRole model.UserRole, recipeID uint) error {
	logger.Info("Deleting recipe", map[string]interface{}{
		"recipe_id": recipeID,
		"caller_id": callerID,
	})

	recipe, err := s.recipeRepo.FindByID(recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}

	if recipe.AuthorID != callerID && callerRole != model.RoleAdmin {
		logger.Warn("Recipe deletion denied: caller is not the author", map[string]interface{}{
			"recipe_id": recipeID,
			"caller_id": callerID,
			"author_id": recipe.AuthorID,
		})
		return ErrNotRecipeOwner
	}

	if err := s.recipeRepo.Delete(recipeID); err != nil {
		logger.Error("Failed to delete recipe", err, map[string]interface{}{
			"recipe_id": recipeID,
		})
		return err
	}

	logger.Info("Recipe deleted successfully", map[string]interface{}{
		"recipe_id": recipeID,
	})
	return nil
}

func (s *recipeService) GetRecipeByID(id uint) (*model.Recipe, error) {
	logger.Debug("Fetching recipe", map[string]interface{}{
		"recipe_id": id,
	})

	recipe, err := s.recipeRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		logger.Error("Failed to fetch recipe", err, map[string]interface{}{
			"recipe_id": id,
		})
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) ListRecipes(filter repository.RecipeFilter) ([]model.Recipe, int64, error) {
	recipes, total, err := s.recipeRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to list recipes", err)
		return nil, 0, err
	}
	return recipes, total, nil
}
