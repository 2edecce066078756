package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/studentauth/internal/app/models"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
	"github.com/yigit/studentauth/internal/pkg/logger"
)

// SQLiteStudentRepository handles student database operations on SQLite
type SQLiteStudentRepository struct {
	db      *sql.DB
	queries studentQueries
	now     func() time.Time
}

// NewSQLiteStudentRepository creates a new SQLiteStudentRepository
func NewSQLiteStudentRepository(db *sql.DB) *SQLiteStudentRepository {
	return &SQLiteStudentRepository{
		db:      db,
		queries: newStudentQueries(squirrel.Question),
		now:     time.Now,
	}
}

// Create inserts a new student
func (r *SQLiteStudentRepository) Create(ctx context.Context, student *models.Student) error {
	prepareForInsert(student, r.now())

	query, args, err := r.queries.insert(student)
	if err != nil {
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		mapped := mapInsertError(err)
		logger.Warn().Err(err).Str("email", student.Email).Msg("Create student failed")
		return mapped
	}

	logger.Info().Str("studentID", student.ID).Msg("Student created successfully")
	return nil
}

// FindOne retrieves a single student matching lookup
func (r *SQLiteStudentRepository) FindOne(ctx context.Context, lookup models.StudentLookup, projection models.Projection) (*models.Student, error) {
	query, args, err := r.queries.selectOne(lookup, projection)
	if err != nil {
		return nil, err
	}

	student, err := scanStudent(r.db.QueryRowContext(ctx, query, args...), projection)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}

	return student, nil
}

// EmailExists checks if an email already exists
func (r *SQLiteStudentRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query, args, err := r.queries.emailExists(email)
	if err != nil {
		return false, fmt.Errorf("failed to build email exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking email existence: %w", err)
	}

	return exists, nil
}
