package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/studentauth/internal/app/models"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
)

// Student holds the credentials of the development account
type Student struct {
	Email    string
	Password string
	Usn      string
}

// StudentCreator is the part of the credential store used for seeding
type StudentCreator interface {
	Create(ctx context.Context, fields models.NewStudent) (*models.Student, error)
}

// CreateDefaultStudent creates the development student unless it already exists.
func CreateDefaultStudent(ctx context.Context, store StudentCreator, s Student, lgr zerolog.Logger) error {
	lgr.Info().Str("email", s.Email).Msg("Checking/Creating default student...")

	created, err := store.Create(ctx, models.NewStudent{
		FullName:   "Demo Student",
		Department: "Computer Science",
		Email:      s.Email,
		Usn:        s.Usn,
		Phone:      "0000000000",
		Password:   s.Password,
	})
	if err != nil {
		if apperrors.Is(err, apperrors.ErrEmailAlreadyExists, apperrors.ErrUsnAlreadyExists) {
			lgr.Info().Str("email", s.Email).Msg("Default student already exists")
			return nil
		}
		return errors.Join(errors.New("failed to create default student"), err)
	}

	lgr.Info().Str("studentID", created.ID).Msg("Default student created")
	return nil
}
