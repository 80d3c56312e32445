package postgres

import (
	"context"
	domainDevice "educafric-tracking/internal/domain/device"
	"educafric-tracking/internal/infrastructure/database/postgres/models"
	"fmt"
)

// GuardianRepository resolves parent to student links from parent_student_relations.
type GuardianRepository struct {
	db *DB
}

func NewGuardianRepository(db *DB) *GuardianRepository {
	return &GuardianRepository{db: db}
}

var _ domainDevice.StudentResolver = (*GuardianRepository)(nil)

func (r *GuardianRepository) StudentsForParent(ctx context.Context, parentID int64) ([]int64, error) {
	var studentIDs []int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.ParentStudentRelationModel{}).
		Where("parent_id = ?", parentID).
		Distinct().
		Pluck("student_id", &studentIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve students for parent: %w", err)
	}

	return studentIDs, nil
}

// Link records that parentID may monitor studentID. Used by seeding and tests.
func (r *GuardianRepository) Link(ctx context.Context, parentID, studentID int64) error {
	rel := &models.ParentStudentRelationModel{ParentID: parentID, StudentID: studentID}
	if err := r.db.DB.WithContext(ctx).Create(rel).Error; err != nil {
		return fmt.Errorf("failed to link parent and student: %w", err)
	}
	return nil
}
