package model

// Module is a navigable feature area of the application. A nil
// RequiredPermissionID means the module is visible to every signed-in user;
// an inactive module is visible to nobody.
type Module struct {
	ID                   uint        `gorm:"primaryKey" json:"id"`
	Name                 string      `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	IsActive             bool        `gorm:"default:true;not null" json:"is_active"`
	RequiredPermissionID *uint       `json:"required_permission_id"`
	RequiredPermission   *Permission `gorm:"foreignKey:RequiredPermissionID" json:"required_permission,omitempty"`
}
