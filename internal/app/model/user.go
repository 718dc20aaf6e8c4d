package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Username     string         `gorm:"uniqueIndex;not null" json:"username"`
	FirstName    string         `gorm:"not null" json:"first_name"`
	LastName     string         `gorm:"not null" json:"last_name"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Avatar       string         `json:"avatar,omitempty"`
	Role         UserRole       `gorm:"type:varchar(20);default:'user'" json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Recipes []Recipe `gorm:"foreignKey:AuthorID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// AfterCreate provisions the user's shopping cart. The cart exists for the
// whole lifetime of the account, not lazily on first use.
func (u *User) AfterCreate(tx *gorm.DB) error {
	return tx.Create(&ShoppingCart{UserID: u.ID}).Error
}

// Subscribe links a subscriber to an author. The pair is unique and a user
// can never subscribe to themselves (CHECK constraint).
type Subscribe struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	AuthorID     uint      `gorm:"not null;uniqueIndex:idx_author_subscriber;check:chk_no_self_subscribe,subscriber_id <> author_id" json:"author_id"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_author_subscriber" json:"subscriber_id"`
	CreatedAt    time.Time `json:"created_at"`

	Author     User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Subscriber User `gorm:"foreignKey:SubscriberID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Subscribe) TableName() string {
	return "subscriptions"
}
