package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yigit/studentauth/internal/app/models"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
	"github.com/yigit/studentauth/internal/pkg/dberrors"
)

// StudentRepository persists student records. Passwords reaching a repository are already hashed.
type StudentRepository interface {
	// Create assigns the ID and timestamps, then inserts the student.
	// Unique violations map to apperrors.ErrEmailAlreadyExists or apperrors.ErrUsnAlreadyExists.
	Create(ctx context.Context, student *models.Student) error
	// FindOne returns the student matching every non-empty lookup field,
	// or apperrors.ErrStudentNotFound.
	FindOne(ctx context.Context, lookup models.StudentLookup, projection models.Projection) (*models.Student, error)
	// EmailExists reports whether a student already uses email
	EmailExists(ctx context.Context, email string) (bool, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	StudentRepository StudentRepository
}

// NewPostgresRepositories initializes repositories backed by PostgreSQL
func NewPostgresRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		StudentRepository: NewPostgresStudentRepository(pool),
	}
}

// NewSQLiteRepositories initializes repositories backed by SQLite
func NewSQLiteRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		StudentRepository: NewSQLiteStudentRepository(db),
	}
}

const studentsTable = "students"

var (
	studentColumns  = []string{"id", "full_name", "department", "sem", "email", "usn", "phone"}
	passwordColumn  = "password"
	metadataColumns = []string{"created_at", "updated_at"}
)

// studentQueries builds the SQL shared by every StudentRepository implementation.
// Only the placeholder format differs between engines.
type studentQueries struct {
	sb squirrel.StatementBuilderType
}

func newStudentQueries(format squirrel.PlaceholderFormat) studentQueries {
	return studentQueries{sb: squirrel.StatementBuilder.PlaceholderFormat(format)}
}

func (q studentQueries) insert(s *models.Student) (string, []interface{}, error) {
	columns := append(append(append([]string{}, studentColumns...), passwordColumn), metadataColumns...)
	return q.sb.Insert(studentsTable).
		Columns(columns...).
		Values(s.ID, s.FullName, s.Department, s.Sem, s.Email, s.Usn, s.Phone, s.Password, s.CreatedAt, s.UpdatedAt).
		ToSql()
}

func (q studentQueries) selectOne(lookup models.StudentLookup, projection models.Projection) (string, []interface{}, error) {
	if lookup.IsEmpty() {
		return "", nil, fmt.Errorf("%w: student lookup needs at least one identifier", apperrors.ErrBadRequest)
	}

	where := squirrel.Eq{}
	if lookup.ID != "" {
		where["id"] = lookup.ID
	}
	if lookup.Email != "" {
		where["email"] = lookup.Email
	}
	if lookup.Usn != "" {
		where["usn"] = lookup.Usn
	}

	return q.sb.Select(selectColumns(projection)...).
		From(studentsTable).
		Where(where).
		Limit(1).
		ToSql()
}

func (q studentQueries) emailExists(email string) (string, []interface{}, error) {
	return q.sb.Select("1").
		From(studentsTable).
		Where(squirrel.Eq{"email": email}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
}

func selectColumns(projection models.Projection) []string {
	columns := append([]string{}, studentColumns...)
	if projection == models.IncludePassword {
		columns = append(columns, passwordColumn)
	}
	return append(columns, metadataColumns...)
}

// rowScanner is satisfied by both pgx.Row and *sql.Row
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStudent(row rowScanner, projection models.Projection) (*models.Student, error) {
	var s models.Student
	dest := []interface{}{&s.ID, &s.FullName, &s.Department, &s.Sem, &s.Email, &s.Usn, &s.Phone}
	if projection == models.IncludePassword {
		dest = append(dest, &s.Password)
	}
	dest = append(dest, &s.CreatedAt, &s.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &s, nil
}

// prepareForInsert assigns the identifier and timestamps of a new record.
// Timestamps are truncated to the microsecond precision both engines store.
func prepareForInsert(s *models.Student, now time.Time) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now = now.UTC().Truncate(time.Microsecond)
	s.CreatedAt = now
	s.UpdatedAt = now
	if s.Usn != nil && *s.Usn == "" {
		s.Usn = nil
	}
}

// mapInsertError converts a unique violation into the matching domain error
func mapInsertError(err error) error {
	if !dberrors.IsUniqueViolation(err) {
		return fmt.Errorf("error creating student: %w", err)
	}
	switch dberrors.DuplicateColumn(err) {
	case "email":
		return apperrors.ErrEmailAlreadyExists
	case "usn":
		return apperrors.ErrUsnAlreadyExists
	default:
		return fmt.Errorf("%w: %w", apperrors.ErrConflict, err)
	}
}
