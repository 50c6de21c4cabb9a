// Package db provides database utilities including transaction management and query scopes.
package db

import (
	"gorm.io/gorm"
)

// ActiveOnlyWithAlias is a GORM scope that filters for rows whose active
// flag is set, naming the table explicitly for joined queries. Targets
// are deactivated instead of deleted once referenced, so most read paths
// want this scope.
//
// Example usage:
//
//	db.Model(&TargetModel{}).
//		Joins("JOIN target_type ON target_type.id = target.type_id").
//		Scopes(db.ActiveOnlyWithAlias("target")).
//		Find(&results)
func ActiveOnlyWithAlias(alias string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(alias+".active = ?", true)
	}
}
