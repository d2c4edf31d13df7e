package data

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User contains the profile information for each player known to the server.
// Users are created the first time an identity is seen during an auth callback.
type User struct {
	ID        string `gorm:"primaryKey"`
	Email     string `gorm:"unique; not null"`
	Name      string
	CreatedAt time.Time
}

// FindUserByID searches for a user with the specified id, returning the *User
// instance if found or nil if there is no match.
func FindUserByID(db *gorm.DB, id string) (*User, error) {
	var user User
	err := db.Where("id = ?", id).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// FindUserByEmail searches for a user with the specified email address.
func FindUserByEmail(db *gorm.DB, email string) (*User, error) {
	var user User
	err := db.Where("email = ?", email).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// UpsertUser finds the user matching the email or creates a new record,
// refreshing the display name either way.
func UpsertUser(db *gorm.DB, email, name string) (*User, error) {
	user, err := FindUserByEmail(db, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &User{ID: uuid.NewString(), Email: email, Name: name}
		return user, db.Create(user).Error
	}

	if user.Name != name {
		user.Name = name
		if err := db.Save(user).Error; err != nil {
			return nil, err
		}
	}

	return user, nil
}
