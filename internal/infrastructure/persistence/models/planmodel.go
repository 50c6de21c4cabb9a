package models

import "time"

// PlanModel represents the database persistence model for escalation
// plans. Regeneration inserts a new row per name; the PlanActiveModel
// pointer selects the live one, older rows remain as history.
type PlanModel struct {
	ID                uint      `gorm:"primarykey"`
	Name              string    `gorm:"not null;size:255;index"`
	Description       string    `gorm:"not null;size:1024"`
	StepCount         int       `gorm:"column:step_count;not null"`
	ThresholdWindow   int       `gorm:"column:threshold_window;not null"`
	ThresholdCount    int       `gorm:"column:threshold_count;not null"`
	AggregationWindow int       `gorm:"column:aggregation_window;not null"`
	AggregationReset  int       `gorm:"column:aggregation_reset;not null"`
	Created           time.Time `gorm:"not null;autoCreateTime"`
}

func (PlanModel) TableName() string {
	return "plan"
}

// PlanNotificationModel is one notification action of a plan step.
type PlanNotificationModel struct {
	ID         uint   `gorm:"primarykey"`
	PlanID     uint   `gorm:"column:plan_id;not null;index"`
	Step       int    `gorm:"not null"`
	RoleID     uint   `gorm:"column:role_id;not null"`
	PriorityID uint   `gorm:"column:priority_id;not null"`
	TargetID   uint   `gorm:"column:target_id;not null"`
	Template   string `gorm:"not null;size:255"`
	Wait       int    `gorm:"not null"`
	Repeat     int    `gorm:"column:repeat_count;not null"`

	Plan     *PlanModel       `gorm:"foreignKey:PlanID"`
	Role     *TargetRoleModel `gorm:"foreignKey:RoleID"`
	Priority *PriorityModel   `gorm:"foreignKey:PriorityID"`
	Target   *TargetModel     `gorm:"foreignKey:TargetID"`
}

func (PlanNotificationModel) TableName() string {
	return "plan_notification"
}

// PlanActiveModel maps a plan name to the plan row currently in effect.
type PlanActiveModel struct {
	Name   string `gorm:"primaryKey;size:255"`
	PlanID uint   `gorm:"column:plan_id;not null;index"`

	Plan *PlanModel `gorm:"foreignKey:PlanID"`
}

func (PlanActiveModel) TableName() string {
	return "plan_active"
}
