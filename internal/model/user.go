package model

import (
	"golang.org/x/crypto/bcrypt"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

// User represents an authenticated user in the system
type User struct {
	BaseModel
	Email     string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string  `gorm:"type:varchar(255);not null" json:"-"` // Hidden from JSON
	FirstName string  `gorm:"type:varchar(255);not null" json:"firstName"`
	LastName  string  `gorm:"type:varchar(255);not null" json:"lastName"`
	Role      Role    `gorm:"type:varchar(16);not null;default:STAFF;index" json:"role"`
	ImageURL  *string `gorm:"type:text" json:"imageURL,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// SetPassword hashes and sets the user's password
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword verifies if the provided password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
