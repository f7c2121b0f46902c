package Models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name       string `json:"name" gorm:"size:255;not null"`
	Email      string `json:"email" gorm:"size:255;not null;uniqueIndex"`
	Password   []byte `json:"-" gorm:"not null"`
	Permission int    `json:"permission" gorm:"not null;default:1"`
}
