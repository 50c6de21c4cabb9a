package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"targetsync/internal/domain/target"
	"targetsync/internal/infrastructure/persistence/models"
	"targetsync/internal/shared/db"
	apperrors "targetsync/internal/shared/errors"
)

// TargetRepository is the gorm-backed implementation of
// target.Repository.
type TargetRepository struct {
	db *gorm.DB
}

func NewTargetRepository(db *gorm.DB) *TargetRepository {
	return &TargetRepository{db: db}
}

func (r *TargetRepository) typeID(tx *gorm.DB, kind target.Kind) (uint, error) {
	var model models.TargetTypeModel
	if err := tx.Where("name = ?", string(kind)).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, apperrors.NewInternalError("unknown target type", string(kind))
		}
		return 0, fmt.Errorf("failed to resolve target type: %w", err)
	}
	return model.ID, nil
}

func (r *TargetRepository) Modes(ctx context.Context) (map[string]uint, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var rows []models.ModeModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list modes: %w", err)
	}

	modes := make(map[string]uint, len(rows))
	for _, m := range rows {
		modes[m.Name] = m.ID
	}
	return modes, nil
}

func (r *TargetRepository) ListActiveUsers(ctx context.Context) (map[string]target.Contacts, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var targets []models.TargetModel
	err := tx.
		Joins("JOIN target_type ON target_type.id = target.type_id").
		Scopes(db.ActiveOnlyWithAlias("target")).
		Where("target_type.name = ?", string(target.KindUser)).
		Find(&targets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}

	users := make(map[string]target.Contacts, len(targets))
	idToName := make(map[uint]string, len(targets))
	ids := make([]uint, 0, len(targets))
	for _, t := range targets {
		users[t.Name] = target.Contacts{}
		idToName[t.ID] = t.Name
		ids = append(ids, t.ID)
	}
	if len(ids) == 0 {
		return users, nil
	}

	type contactRow struct {
		TargetID    uint
		Mode        string
		Destination string
	}
	var contacts []contactRow
	err = tx.
		Table("target_contact").
		Select("target_contact.target_id, mode.name AS mode, target_contact.destination").
		Joins("JOIN mode ON mode.id = target_contact.mode_id").
		Where("target_contact.target_id IN ?", ids).
		Scan(&contacts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user contacts: %w", err)
	}

	for _, c := range contacts {
		if name, ok := idToName[c.TargetID]; ok {
			users[name][c.Mode] = c.Destination
		}
	}
	return users, nil
}

func (r *TargetRepository) ListActiveTeamNames(ctx context.Context) (map[string]struct{}, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var names []string
	err := tx.
		Model(&models.TargetModel{}).
		Joins("JOIN target_type ON target_type.id = target.type_id").
		Scopes(db.ActiveOnlyWithAlias("target")).
		Where("target_type.name = ?", string(target.KindTeam)).
		Pluck("target.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active teams: %w", err)
	}

	teams := make(map[string]struct{}, len(names))
	for _, n := range names {
		teams[n] = struct{}{}
	}
	return teams, nil
}

func (r *TargetRepository) NamesByID(ctx context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	tx := db.GetTxFromContext(ctx, r.db)

	var rows []models.TargetModel
	if err := tx.Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve target names: %w", err)
	}
	for _, t := range rows {
		names[t.ID] = t.Name
	}
	return names, nil
}

// UpsertTarget inserts a target or, when a row with the same name and
// kind already exists, reactivates it. Either way the row id is
// returned.
func (r *TargetRepository) UpsertTarget(ctx context.Context, name string, kind target.Kind) (uint, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	typeID, err := r.typeID(tx, kind)
	if err != nil {
		return 0, err
	}

	model := models.TargetModel{Name: name, TypeID: typeID, Active: true}
	if err := tx.Create(&model).Error; err == nil {
		return model.ID, nil
	} else if !apperrors.IsDuplicateError(err) {
		return 0, fmt.Errorf("failed to insert target %q: %w", name, err)
	}

	var existing models.TargetModel
	if err := tx.Where("name = ? AND type_id = ?", name, typeID).First(&existing).Error; err != nil {
		return 0, fmt.Errorf("failed to load existing target %q: %w", name, err)
	}
	if !existing.Active {
		err := tx.Model(&models.TargetModel{}).
			Where("id = ?", existing.ID).
			Update("active", true).Error
		if err != nil {
			return 0, fmt.Errorf("failed to reactivate target %q: %w", name, err)
		}
	}
	return existing.ID, nil
}

func (r *TargetRepository) SetActive(ctx context.Context, name string, kind target.Kind, active bool) error {
	tx := db.GetTxFromContext(ctx, r.db)

	typeID, err := r.typeID(tx, kind)
	if err != nil {
		return err
	}

	result := tx.Model(&models.TargetModel{}).
		Where("name = ? AND type_id = ?", name, typeID).
		Update("active", active)
	if result.Error != nil {
		return fmt.Errorf("failed to update target %q: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("target not found", name)
	}
	return nil
}

// DeleteTarget hard-deletes a target and its contacts. A referential
// integrity failure, meaning a plan still points at the target, comes
// back as a conflict error so the caller can fall back to deactivation.
func (r *TargetRepository) DeleteTarget(ctx context.Context, name string, kind target.Kind) error {
	tx := db.GetTxFromContext(ctx, r.db)

	typeID, err := r.typeID(tx, kind)
	if err != nil {
		return err
	}

	var model models.TargetModel
	if err := tx.Where("name = ? AND type_id = ?", name, typeID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperrors.NewNotFoundError("target not found", name)
		}
		return fmt.Errorf("failed to load target %q: %w", name, err)
	}

	return tx.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("target_id = ?", model.ID).Delete(&models.TargetContactModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete contacts of %q: %w", name, err)
		}
		if err := tx.Delete(&models.TargetModel{}, model.ID).Error; err != nil {
			if apperrors.IsForeignKeyViolation(err) {
				return apperrors.NewConflictError("target still referenced", name)
			}
			return fmt.Errorf("failed to delete target %q: %w", name, err)
		}
		return nil
	})
}

func (r *TargetRepository) InsertContact(ctx context.Context, targetID uint, modeID uint, destination string) error {
	tx := db.GetTxFromContext(ctx, r.db)

	model := models.TargetContactModel{
		TargetID:    targetID,
		ModeID:      modeID,
		Destination: destination,
	}
	if err := tx.Create(&model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return tx.Model(&models.TargetContactModel{}).
				Where("target_id = ? AND mode_id = ?", targetID, modeID).
				Update("destination", destination).Error
		}
		return fmt.Errorf("failed to insert contact: %w", err)
	}
	return nil
}

func (r *TargetRepository) UpdateContact(ctx context.Context, name string, modeID uint, destination string) error {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Exec(
		"UPDATE target_contact SET destination = ? WHERE mode_id = ? AND target_id = (SELECT id FROM target WHERE name = ? AND type_id = (SELECT id FROM target_type WHERE name = ?))",
		destination, modeID, name, string(target.KindUser),
	)
	if result.Error != nil {
		return fmt.Errorf("failed to update contact of %q: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		// The mode had no stored destination yet; insert it instead.
		var model models.TargetModel
		if err := tx.
			Joins("JOIN target_type ON target_type.id = target.type_id").
			Where("target.name = ? AND target_type.name = ?", name, string(target.KindUser)).
			First(&model).Error; err != nil {
			return apperrors.NewNotFoundError("target not found", name)
		}
		return r.InsertContact(ctx, model.ID, modeID, destination)
	}
	return nil
}

func (r *TargetRepository) DeleteContact(ctx context.Context, name string, modeID uint) error {
	tx := db.GetTxFromContext(ctx, r.db)

	result := tx.Exec(
		"DELETE FROM target_contact WHERE mode_id = ? AND target_id = (SELECT id FROM target WHERE name = ? AND type_id = (SELECT id FROM target_type WHERE name = ?))",
		modeID, name, string(target.KindUser),
	)
	if result.Error != nil {
		return fmt.Errorf("failed to delete contact of %q: %w", name, result.Error)
	}
	return nil
}
