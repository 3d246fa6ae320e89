package model

import "time"

type UserRole string

const (
	Student   UserRole = "student"
	Teacher   UserRole = "teacher"
	Superuser UserRole = "superuser"
)

// swagger:model
type User struct {
	UUIDBase
	Name     string   `gorm:"size:255;not null" json:"name"`
	Email    string   `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password string   `gorm:"size:255;not null" json:"-"`
	Role     UserRole `gorm:"type:enum('student','teacher','superuser');default:'student'" json:"role"`
	Avatar   string   `gorm:"size:512" json:"avatar,omitempty"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

func (User) TableName() string {
	return "users"
}
