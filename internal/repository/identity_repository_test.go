package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityRepositoryLookups(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewIdentityRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT school_id FROM admins WHERE user_id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"school_id"}).AddRow("school-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT school_id FROM teachers WHERE user_id = $1")).
		WithArgs("user-2").
		WillReturnError(sql.ErrNoRows)

	schoolID, err := repo.AdminSchoolID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "school-1", schoolID)

	_, err = repo.TeacherSchoolID(context.Background(), "user-2")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReferenceRepositoryDisplayNames(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewReferenceRepository(db)

	yearID := "year-1"
	mock.ExpectQuery(regexp.QuoteMeta("(SELECT name FROM schools WHERE id = $1) AS school_name")).
		WithArgs("school-1", "year-1", nil).
		WillReturnRows(sqlmock.NewRows([]string{"school_name", "academic_year_name", "term_name"}).AddRow("Hilltop Academy", "2025/2026", nil))

	names, err := repo.DisplayNames(context.Background(), "school-1", &yearID, nil)
	require.NoError(t, err)
	require.NotNil(t, names.SchoolName)
	assert.Equal(t, "Hilltop Academy", *names.SchoolName)
	assert.Nil(t, names.TermName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
