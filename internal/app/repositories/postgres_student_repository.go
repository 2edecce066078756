package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/studentauth/internal/app/models"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
	"github.com/yigit/studentauth/internal/pkg/logger"
)

// PostgresStudentRepository handles student database operations on PostgreSQL
type PostgresStudentRepository struct {
	db      *pgxpool.Pool
	queries studentQueries
	now     func() time.Time
}

// NewPostgresStudentRepository creates a new PostgresStudentRepository
func NewPostgresStudentRepository(db *pgxpool.Pool) *PostgresStudentRepository {
	return &PostgresStudentRepository{
		db:      db,
		queries: newStudentQueries(squirrel.Dollar),
		now:     time.Now,
	}
}

// Create inserts a new student
func (r *PostgresStudentRepository) Create(ctx context.Context, student *models.Student) error {
	prepareForInsert(student, r.now())

	sql, args, err := r.queries.insert(student)
	if err != nil {
		logger.Error().Err(err).Msg("Error building create student SQL")
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		mapped := mapInsertError(err)
		if errors.Is(mapped, apperrors.ErrEmailAlreadyExists) || errors.Is(mapped, apperrors.ErrUsnAlreadyExists) {
			logger.Warn().Str("email", student.Email).Msg("Attempted to create student with duplicate identifier")
		} else {
			logger.Error().Err(err).Str("email", student.Email).Msg("Error executing create student query")
		}
		return mapped
	}

	logger.Info().Str("studentID", student.ID).Msg("Student created successfully")
	return nil
}

// FindOne retrieves a single student matching lookup
func (r *PostgresStudentRepository) FindOne(ctx context.Context, lookup models.StudentLookup, projection models.Projection) (*models.Student, error) {
	sql, args, err := r.queries.selectOne(lookup, projection)
	if err != nil {
		return nil, err
	}

	student, err := scanStudent(r.db.QueryRow(ctx, sql, args...), projection)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Msg("Error scanning student row")
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}

	return student, nil
}

// EmailExists checks if an email already exists
func (r *PostgresStudentRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	sql, args, err := r.queries.emailExists(email)
	if err != nil {
		return false, fmt.Errorf("failed to build email exists query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Msg("Error checking email existence")
		return false, fmt.Errorf("error checking email existence: %w", err)
	}

	return exists, nil
}
