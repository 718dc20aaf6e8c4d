package model

// Ingredient is reference catalog data loaded at deployment time
// (see cmd/seed). Deleting an ingredient cascades to quantity rows.
type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"type:varchar(200);uniqueIndex;not null" json:"name"`
	MeasurementUnit string `gorm:"type:varchar(50);not null" json:"measurement_unit"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}
