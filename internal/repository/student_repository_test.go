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

	"github.com/noah-isme/sma-report-cards/internal/models"
)

func TestStudentRepositoryFindByCode(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_code", "school_id", "class_id", "full_name", "department", "status"}).
		AddRow("stu-1", "STU-001", "school-1", "class-1", "Kofi Boateng", "Science", "active")
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE student_code = $1 AND school_id = $2 LIMIT 1")).
		WithArgs("STU-001", "school-1").
		WillReturnRows(rows)

	student, err := repo.FindByCode(context.Background(), "school-1", "STU-001")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", student.ID)
	require.NotNil(t, student.Department)
	assert.Equal(t, "Science", *student.Department)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByCodeNotFound(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE student_code = $1 AND school_id = $2")).
		WithArgs("missing", "school-1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByCode(context.Background(), "school-1", "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListActiveByClassExcludesGraduated(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_code", "school_id", "class_id", "full_name", "department", "status"}).
		AddRow("stu-1", "STU-001", "school-1", "class-1", "Ama", nil, "active").
		AddRow("stu-2", "STU-002", "school-1", "class-1", "Yaw", nil, "active")
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE class_id = $1 AND status <> $2 ORDER BY full_name ASC, id ASC")).
		WithArgs("class-1", models.StudentStatusGraduated).
		WillReturnRows(rows)

	students, err := repo.ListActiveByClass(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Nil(t, students[0].Department)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByCode(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE class_code = $1 AND school_id = $2 LIMIT 1")).
		WithArgs("JHS1A", "school-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_code", "school_id", "name", "department"}).AddRow("class-1", "JHS1A", "school-1", "JHS 1A", nil))

	class, err := repo.FindByCode(context.Background(), "school-1", "JHS1A")
	require.NoError(t, err)
	assert.Equal(t, "JHS 1A", class.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByCodeOtherSchool(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE class_code = $1 AND school_id = $2")).
		WithArgs("X-IPA-1", "school-B").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_code", "school_id", "name", "department"}))

	_, err := repo.FindByCode(context.Background(), "school-B", "X-IPA-1")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, school_id, name, academic_year_id, term_id FROM exams WHERE id = $1")).
		WithArgs("exam-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "name", "academic_year_id", "term_id"}).AddRow("exam-1", "school-1", "End of Term", "year-1", nil))

	exam, err := repo.FindByID(context.Background(), "exam-1")
	require.NoError(t, err)
	require.NotNil(t, exam.AcademicYearID)
	assert.Nil(t, exam.TermID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
