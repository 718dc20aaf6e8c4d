package model

import "time"

// ShoppingCart is one-to-one with a user. It is created by the user's
// AfterCreate hook, never on demand.
type ShoppingCart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	User    User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Recipes []Recipe `gorm:"many2many:shopping_cart_recipes" json:"recipes,omitempty"`
}

func (ShoppingCart) TableName() string {
	return "shopping_carts"
}

// ShoppingCartRecipe is the join between carts and the recipes the user
// intends to buy ingredients for. The composite primary key keeps a recipe
// from entering the same cart twice.
type ShoppingCartRecipe struct {
	ShoppingCartID uint `gorm:"primaryKey;index" json:"shopping_cart_id"`
	RecipeID       uint `gorm:"primaryKey;index" json:"recipe_id"`

	ShoppingCart ShoppingCart `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Recipe       Recipe       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (ShoppingCartRecipe) TableName() string {
	return "shopping_cart_recipes"
}
