package model

import "time"

// Role is a named bundle of permissions assignable to users
type Role struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(20);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:varchar(60)" json:"description"`
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission is one capability of the fixed vocabulary, keyed "<resource>_<action>",
// e.g. "sales_write". The set is seeded at first start; the API never creates new keys.
type Permission struct {
	ID  uint   `gorm:"primaryKey" json:"id"`
	Key string `gorm:"type:varchar(50);uniqueIndex;not null" json:"key"`
}
