package dto

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yigit/studentauth/internal/app/models"
)

// RegisterStudentRequest represents student registration data.
// It binds from JSON or URL-encoded bodies.
type RegisterStudentRequest struct {
	FullName   string   `json:"fullName" form:"fullName" validate:"notblank" example:"Asha Rao"`
	Department string   `json:"department" form:"department" validate:"notblank" example:"Computer Science"`
	Sem        Semester `json:"sem,omitempty" form:"sem" swaggertype:"integer" example:"5"`
	Email      string   `json:"email" form:"email" validate:"notblank" example:"asha@college.edu"`
	Password   string   `json:"password" form:"password" validate:"notblank" example:"correct horse battery"`
	Phone      string   `json:"phone" form:"phone" validate:"notblank" example:"+91 98450 00000"`
	Usn        string   `json:"usn,omitempty" form:"usn" example:"1RV21CS001"`
}

// Normalize trims surrounding whitespace from every field except the password
func (r *RegisterStudentRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Department = strings.TrimSpace(r.Department)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Usn = strings.TrimSpace(r.Usn)
}

// ToNewStudent converts the request into the creation fields of the credential store
func (r *RegisterStudentRequest) ToNewStudent() models.NewStudent {
	return models.NewStudent{
		FullName:   r.FullName,
		Department: r.Department,
		Sem:        r.Sem.Int(),
		Email:      r.Email,
		Usn:        r.Usn,
		Phone:      r.Phone,
		Password:   r.Password,
	}
}

// Semester is an optional semester number. It binds from a JSON number, a numeric
// string or a form value; null and empty values leave it unset.
type Semester struct {
	value *int
}

// NewSemester returns a semester set to n
func NewSemester(n int) Semester {
	return Semester{value: &n}
}

// Int returns the semester, or nil when it was not supplied
func (s Semester) Int() *int {
	return s.value
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Semester) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		s.value = nil
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	return s.UnmarshalParam(raw)
}

// UnmarshalParam implements binding.BindUnmarshaler for form values
func (s *Semester) UnmarshalParam(param string) error {
	param = strings.TrimSpace(param)
	if param == "" {
		s.value = nil
		return nil
	}
	n, err := strconv.Atoi(param)
	if err != nil {
		return fmt.Errorf("invalid sem %q: %w", param, err)
	}
	s.value = &n
	return nil
}

// LoginStudentRequest represents login credentials. At least one of usn or email is required.
type LoginStudentRequest struct {
	Usn      string `json:"usn,omitempty" form:"usn" validate:"required_without=Email" example:"1RV21CS001"`
	Email    string `json:"email,omitempty" form:"email" validate:"required_without=Usn" example:"asha@college.edu"`
	Password string `json:"password" form:"password" validate:"notblank" example:"correct horse battery"`
}

// Normalize trims the identifiers so whitespace-only values count as absent
func (r *LoginStudentRequest) Normalize() {
	r.Usn = strings.TrimSpace(r.Usn)
	r.Email = strings.TrimSpace(r.Email)
}

// Lookup returns the query matching every supplied identifier
func (r *LoginStudentRequest) Lookup() models.StudentLookup {
	return models.StudentLookup{Usn: r.Usn, Email: r.Email}
}

// StudentResponse is the sanitized student representation. It has no password field.
type StudentResponse struct {
	ID         string    `json:"id" example:"0b7c3a0e-4f7e-4d7e-9c55-3f0f7f2d8a11"`
	FullName   string    `json:"fullName" example:"Asha Rao"`
	Department string    `json:"department" example:"Computer Science"`
	Sem        *int      `json:"sem,omitempty" example:"5"`
	Email      string    `json:"email" example:"asha@college.edu"`
	Usn        *string   `json:"usn,omitempty" example:"1RV21CS001"`
	Phone      string    `json:"phone" example:"+91 98450 00000"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewStudentResponse maps a stored student to its response shape
func NewStudentResponse(s *models.Student) *StudentResponse {
	if s == nil {
		return nil
	}
	return &StudentResponse{
		ID:         s.ID,
		FullName:   s.FullName,
		Department: s.Department,
		Sem:        s.Sem,
		Email:      s.Email,
		Usn:        s.Usn,
		Phone:      s.Phone,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Student     *StudentResponse `json:"student"`
	AccessToken string           `json:"accessToken"`
}
