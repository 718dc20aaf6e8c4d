package model

// Tag is a predefined label recipes can be filtered by (e.g. "breakfast").
type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	Color string `gorm:"type:varchar(7);uniqueIndex;not null" json:"color"` // hex token, e.g. "#E26C2D"
	Slug  string `gorm:"type:varchar(200);uniqueIndex;not null" json:"slug"`
}

func (Tag) TableName() string {
	return "tags"
}

// RecipeTag is the many-to-many join between recipes and tags.
type RecipeTag struct {
	RecipeID uint `gorm:"primaryKey;index" json:"recipe_id"`
	TagID    uint `gorm:"primaryKey;index" json:"tag_id"`

	Recipe Recipe `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Tag    Tag    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"tag,omitempty"`
}

func (RecipeTag) TableName() string {
	return "recipe_tags"
}
