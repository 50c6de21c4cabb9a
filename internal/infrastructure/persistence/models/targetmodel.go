package models

// TargetTypeModel is a row of the target kind enumeration (user, team).
type TargetTypeModel struct {
	ID   uint   `gorm:"primarykey"`
	Name string `gorm:"uniqueIndex;not null;size:64"`
}

func (TargetTypeModel) TableName() string {
	return "target_type"
}

// TargetModel represents the database persistence model for notification
// targets. This is the anti-corruption layer between domain and database.
type TargetModel struct {
	ID     uint   `gorm:"primarykey"`
	Name   string `gorm:"not null;size:255;uniqueIndex:idx_target_name_type"`
	TypeID uint   `gorm:"column:type_id;not null;uniqueIndex:idx_target_name_type"`
	Active bool   `gorm:"not null;default:true;index"`

	Type *TargetTypeModel `gorm:"foreignKey:TypeID"`
}

func (TargetModel) TableName() string {
	return "target"
}

// ModeModel is a row of the contact mode enumeration (email, sms, call,
// slack).
type ModeModel struct {
	ID   uint   `gorm:"primarykey"`
	Name string `gorm:"uniqueIndex;not null;size:64"`
}

func (ModeModel) TableName() string {
	return "mode"
}

// TargetContactModel stores one destination per target and mode.
type TargetContactModel struct {
	TargetID    uint   `gorm:"column:target_id;primaryKey"`
	ModeID      uint   `gorm:"column:mode_id;primaryKey"`
	Destination string `gorm:"not null;size:255"`
}

func (TargetContactModel) TableName() string {
	return "target_contact"
}

// TargetRoleModel is a role a target may fill within a plan step, bound
// to the target kind it applies to.
type TargetRoleModel struct {
	ID     uint   `gorm:"primarykey"`
	Name   string `gorm:"uniqueIndex;not null;size:64"`
	TypeID uint   `gorm:"column:type_id;not null"`
}

func (TargetRoleModel) TableName() string {
	return "target_role"
}

// PriorityModel is a row of the notification priority enumeration. Each
// priority carries the contact mode the notification system defaults to
// when a user has not configured one.
type PriorityModel struct {
	ID     uint   `gorm:"primarykey"`
	Name   string `gorm:"uniqueIndex;not null;size:64"`
	ModeID uint   `gorm:"column:mode_id;not null"`

	Mode *ModeModel `gorm:"foreignKey:ModeID"`
}

func (PriorityModel) TableName() string {
	return "priority"
}
