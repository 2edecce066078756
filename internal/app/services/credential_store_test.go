package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yigit/studentauth/internal/app/models"
	"github.com/yigit/studentauth/internal/pkg/apperrors"
)

func newFields(email, usn, password string) models.NewStudent {
	return models.NewStudent{
		FullName:   "Asha Rao",
		Department: "Computer Science",
		Email:      email,
		Usn:        usn,
		Phone:      "9845000000",
		Password:   password,
	}
}

func TestCredentialStore_CreateHashesPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.store.Create(ctx, newFields("asha@college.edu", "1RV21CS001", "s3cret-pass"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create did not assign an ID")
	}
	if created.Password != "" {
		t.Error("Create returned the password hash")
	}

	stored, err := env.store.FindByID(ctx, created.ID, models.IncludePassword)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if stored.Password == "s3cret-pass" || !strings.HasPrefix(stored.Password, "$2") {
		t.Errorf("stored password is not a bcrypt hash: %q", stored.Password)
	}
	if !env.store.VerifyPassword(stored, "s3cret-pass") {
		t.Error("VerifyPassword rejected the correct password")
	}
	if env.store.VerifyPassword(stored, "s3cret-pass ") {
		t.Error("VerifyPassword accepted a different password")
	}
}

func TestCredentialStore_Lookups(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.store.Create(ctx, newFields("asha@college.edu", "1RV21CS001", "pw"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	byEmail, err := env.store.FindByEmail(ctx, "asha@college.edu", models.ExcludePassword)
	if err != nil || byEmail.ID != created.ID {
		t.Errorf("FindByEmail = %+v, %v", byEmail, err)
	}
	if byEmail != nil && byEmail.Password != "" {
		t.Error("ExcludePassword lookup returned the hash")
	}

	byUsn, err := env.store.FindByUsn(ctx, "1RV21CS001", models.ExcludePassword)
	if err != nil || byUsn.ID != created.ID {
		t.Errorf("FindByUsn = %+v, %v", byUsn, err)
	}

	if env.store.VerifyPassword(byUsn, "pw") {
		t.Error("record loaded without password must not verify")
	}

	if _, err := env.store.FindByEmail(ctx, "missing@college.edu", models.ExcludePassword); !errors.Is(err, apperrors.ErrStudentNotFound) {
		t.Errorf("err = %v, want ErrStudentNotFound", err)
	}
}

func TestCredentialStore_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.store.Create(ctx, newFields("dup@college.edu", "", "pw")); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	_, err := env.store.Create(ctx, newFields("dup@college.edu", "", "pw"))
	if !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
		t.Errorf("err = %v, want ErrEmailAlreadyExists", err)
	}
}

func TestCredentialStore_PasswordTooLong(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.store.Create(context.Background(), newFields("long@college.edu", "", strings.Repeat("x", 73)))
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("err = %v, want ErrValidationFailed", err)
	}
}

func TestCredentialStore_IssueAccessTokenIsDeterministic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.store.Create(ctx, newFields("asha@college.edu", "1RV21CS001", "pw"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	first, expiresAt, err := env.store.IssueAccessToken(created)
	if err != nil {
		t.Fatalf("IssueAccessToken returned error: %v", err)
	}
	second, _, err := env.store.IssueAccessToken(created)
	if err != nil {
		t.Fatalf("IssueAccessToken returned error: %v", err)
	}
	if first != second {
		t.Error("tokens differ for the same student, secret and clock")
	}
	if !expiresAt.Equal(fixedNow.Add(env.store.AccessTokenTTL())) {
		t.Errorf("expiresAt = %v", expiresAt)
	}

	claims, err := env.store.ValidateAccessToken(first)
	if err != nil {
		t.Fatalf("ValidateAccessToken returned error: %v", err)
	}
	if claims.StudentID != created.ID || claims.Email != "asha@college.edu" || claims.Usn != "1RV21CS001" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}
