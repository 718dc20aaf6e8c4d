package model

import (
	"time"

	"gorm.io/gorm"
)

type Recipe struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	AuthorID    uint           `gorm:"not null;index" json:"author_id"`
	Name        string         `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	Text        string         `gorm:"type:text;not null" json:"text"`
	Image       string         `json:"image"` // URL returned by the image storage
	CookingTime int            `gorm:"not null;check:chk_cooking_time,cooking_time > 0" json:"cooking_time"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Author      User       `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Tags        []Tag      `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	Ingredients []Quantity `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients,omitempty"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// Quantity records how much of one ingredient a recipe requires. A recipe
// lists each ingredient at most once (composite unique index); duplicate
// inserts for the same pair accumulate the amount instead (see the recipe
// repository's UpsertQuantities).
type Quantity struct {
	ID           uint `gorm:"primarykey" json:"id"`
	RecipeID     uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"ingredient_id"`
	Amount       int  `gorm:"not null;check:chk_amount,amount > 0" json:"amount"`

	Ingredient Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE" json:"ingredient,omitempty"`
}

func (Quantity) TableName() string {
	return "quantities"
}
