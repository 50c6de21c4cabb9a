package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"targetsync/internal/domain/plan"
	"targetsync/internal/infrastructure/persistence/models"
	"targetsync/internal/shared/db"
	apperrors "targetsync/internal/shared/errors"
)

// PlanRepository is the gorm-backed implementation of plan.Repository.
type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) GetActivePlan(ctx context.Context, name string) (*plan.StoredPlan, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var pointer models.PlanActiveModel
	if err := tx.Where("name = ?", name).First(&pointer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("no active plan", name)
		}
		return nil, fmt.Errorf("failed to load active pointer for %q: %w", name, err)
	}

	var model models.PlanModel
	if err := tx.First(&model, pointer.PlanID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("active plan row missing", name)
		}
		return nil, fmt.Errorf("failed to load plan %d: %w", pointer.PlanID, err)
	}

	return &plan.StoredPlan{
		ID:                model.ID,
		Name:              model.Name,
		Description:       model.Description,
		StepCount:         model.StepCount,
		ThresholdWindow:   model.ThresholdWindow,
		ThresholdCount:    model.ThresholdCount,
		AggregationWindow: model.AggregationWindow,
		AggregationReset:  model.AggregationReset,
		Created:           model.Created,
		ActiveName:        pointer.Name,
	}, nil
}

func (r *PlanRepository) GetPlanSteps(ctx context.Context, planID uint) ([]plan.StoredStep, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var rows []models.PlanNotificationModel
	if err := tx.Where("plan_id = ?", planID).Order("step, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load steps of plan %d: %w", planID, err)
	}

	steps := make([]plan.StoredStep, 0, len(rows))
	for _, m := range rows {
		steps = append(steps, plan.StoredStep{
			ID:         m.ID,
			PlanID:     m.PlanID,
			Step:       m.Step,
			RoleID:     m.RoleID,
			PriorityID: m.PriorityID,
			TargetID:   m.TargetID,
			Template:   m.Template,
			Wait:       m.Wait,
			Repeat:     m.Repeat,
		})
	}
	return steps, nil
}

func (r *PlanRepository) PlanIDByName(ctx context.Context, name string) (uint, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var model models.PlanModel
	err := tx.Where("name = ?", name).Order("id DESC").First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, apperrors.NewNotFoundError("plan not found", name)
		}
		return 0, fmt.Errorf("failed to load plan %q: %w", name, err)
	}
	return model.ID, nil
}

func (r *PlanRepository) Priorities(ctx context.Context) (map[string]uint, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var rows []models.PriorityModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list priorities: %w", err)
	}

	priorities := make(map[string]uint, len(rows))
	for _, p := range rows {
		priorities[p.Name] = p.ID
	}
	return priorities, nil
}

func (r *PlanRepository) Roles(ctx context.Context) (map[string]uint, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var rows []models.TargetRoleModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	roles := make(map[string]uint, len(rows))
	for _, ro := range rows {
		roles[ro.Name] = ro.ID
	}
	return roles, nil
}

// AllowedRolesForTarget resolves a step target by name, binding each
// role to the target row of the kind it applies to. The type join is
// what disambiguates a user and a team sharing a name: the step's role
// picks the row. A step naming a role outside this map would be
// undeliverable, so plan writes check against it first.
func (r *PlanRepository) AllowedRolesForTarget(ctx context.Context, targetName string) (map[uint]uint, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	type roleTarget struct {
		RoleID   uint
		TargetID uint
	}
	var rows []roleTarget
	err := tx.
		Table("target_role").
		Select("target_role.id AS role_id, target.id AS target_id").
		Joins("JOIN target ON target.type_id = target_role.type_id").
		Where("target.name = ?", targetName).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list roles for target %q: %w", targetName, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewNotFoundError("step target not found", targetName)
	}

	allowed := make(map[uint]uint, len(rows))
	for _, row := range rows {
		allowed[row.RoleID] = row.TargetID
	}
	return allowed, nil
}

// ReplacePlan writes a new plan row with its steps and moves the active
// pointer to it in one transaction. Older rows under the same name stay
// behind as history; only the pointer decides which one is live.
func (r *PlanRepository) ReplacePlan(ctx context.Context, rec plan.Record, steps []plan.ResolvedStep) (uint, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var planID uint
	err := tx.Transaction(func(tx *gorm.DB) error {
		model := models.PlanModel{
			Name:              rec.Name,
			Description:       rec.Description,
			StepCount:         rec.StepCount,
			ThresholdWindow:   rec.ThresholdWindow,
			ThresholdCount:    rec.ThresholdCount,
			AggregationWindow: rec.AggregationWindow,
			AggregationReset:  rec.AggregationReset,
		}
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("failed to insert plan %q: %w", rec.Name, err)
		}
		planID = model.ID

		for _, s := range steps {
			row := models.PlanNotificationModel{
				PlanID:     model.ID,
				Step:       s.Step,
				RoleID:     s.RoleID,
				PriorityID: s.PriorityID,
				TargetID:   s.TargetID,
				Template:   s.Template,
				Wait:       s.Wait,
				Repeat:     s.Repeat,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to insert step of plan %q: %w", rec.Name, err)
			}
		}

		pointer := models.PlanActiveModel{Name: rec.Name, PlanID: model.ID}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"plan_id"}),
		}).Create(&pointer).Error
		if err != nil {
			return fmt.Errorf("failed to activate plan %q: %w", rec.Name, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return planID, nil
}

// RemoveActivePointer deactivates a plan by deleting its pointer row.
// The plan and its steps are retained for history.
func (r *PlanRepository) RemoveActivePointer(ctx context.Context, planID uint) error {
	tx := db.GetTxFromContext(ctx, r.db)

	if err := tx.Where("plan_id = ?", planID).Delete(&models.PlanActiveModel{}).Error; err != nil {
		return fmt.Errorf("failed to deactivate plan %d: %w", planID, err)
	}
	return nil
}
