package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// IdentityRepository resolves which school a staff user belongs to.
type IdentityRepository struct {
	db *sqlx.DB
}

// NewIdentityRepository constructs the repository.
func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// AdminSchoolID returns the school of an admin user.
func (r *IdentityRepository) AdminSchoolID(ctx context.Context, userID string) (string, error) {
	var schoolID string
	if err := r.db.GetContext(ctx, &schoolID, `SELECT school_id FROM admins WHERE user_id = $1 LIMIT 1`, userID); err != nil {
		return "", fmt.Errorf("find admin school: %w", err)
	}
	return schoolID, nil
}

// TeacherSchoolID returns the school of a teacher user.
func (r *IdentityRepository) TeacherSchoolID(ctx context.Context, userID string) (string, error) {
	var schoolID string
	if err := r.db.GetContext(ctx, &schoolID, `SELECT school_id FROM teachers WHERE user_id = $1 LIMIT 1`, userID); err != nil {
		return "", fmt.Errorf("find teacher school: %w", err)
	}
	return schoolID, nil
}
