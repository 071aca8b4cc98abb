package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bktrung/academic-records-api/internal/models"
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "full_name", "email", "status_id", "department_id",
		"enrolled_year", "created_at", "updated_at", "status_name", "department_name"}).
		AddRow("stu-1", "SV001", "Tran Van A", "a@univ.edu", "st-1", "dep-1", 2023, time.Now(), time.Now(), "Studying", "Computer Science")
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("FROM students s").
		WithArgs("st-1").
		WillReturnRows(studentDetailRows())
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("st-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{StatusID: "st-1"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Studying", students[0].StatusName)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListSearch(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("(s.code ILIKE $1 OR s.full_name ILIKE $1 OR s.email ILIKE $1)")).
		WithArgs("%tran%").
		WillReturnRows(studentDetailRows())
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("%tran%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, _, err := repo.List(context.Background(), models.StudentFilter{Search: "tran"})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByCode(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.code = $1")).
		WithArgs("SV001").
		WillReturnRows(studentDetailRows())

	student, err := repo.FindByCode(context.Background(), "SV001")
	require.NoError(t, err)
	assert.Equal(t, "stu-1", student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.code = $1")).
		WithArgs("SV999").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByCode(context.Background(), "SV999")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "SV002", "Le Thi B", "b@univ.edu", "st-1", "dep-1", 2024, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{
		Code: "SV002", FullName: "Le Thi B", Email: "b@univ.edu",
		StatusID: "st-1", DepartmentID: "dep-1", EnrolledYear: 2024,
	}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET status_id = $1, updated_at = $2 WHERE id = $3")).
		WithArgs("st-2", sqlmock.AnyArg(), "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "stu-1", "st-2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE status_id = $1")).
		WithArgs("st-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountByStatus(context.Background(), "st-1")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
