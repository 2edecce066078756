package models

import "time"

// Student defines the student model based on the 'students' table
type Student struct {
	ID         string    `json:"id" db:"id" example:"0b7c3a0e-4f7e-4d7e-9c55-3f0f7f2d8a11"` // UUID assigned on creation
	FullName   string    `json:"fullName" db:"full_name" example:"Asha Rao"`
	Department string    `json:"department" db:"department" example:"Computer Science"`
	Sem        *int      `json:"sem,omitempty" db:"sem" example:"5"`               // Current semester (nullable)
	Email      string    `json:"email" db:"email" example:"asha@college.edu"`      // Unique
	Usn        *string   `json:"usn,omitempty" db:"usn" example:"1RV21CS001"`      // University serial number, unique when set
	Phone      string    `json:"phone" db:"phone" example:"+91 98450 00000"`
	Password   string    `json:"-" db:"password"`                                  // bcrypt hash, empty when the projection excludes it
	CreatedAt  time.Time `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at" example:"2024-01-01T10:00:00Z"`
}

// NewStudent holds the fields accepted when a student is created. Password is plaintext
// here and is hashed before it reaches a repository.
type NewStudent struct {
	FullName   string
	Department string
	Sem        *int
	Email      string
	Usn        string
	Phone      string
	Password   string
}

// Projection selects which columns a student lookup returns
type Projection int

const (
	// ExcludePassword omits the password hash from the returned record
	ExcludePassword Projection = iota
	// IncludePassword also loads the password hash, for credential checks only
	IncludePassword
)

// StudentLookup filters a single-student query. Every non-empty field must match.
type StudentLookup struct {
	ID    string
	Email string
	Usn   string
}

// IsEmpty reports whether no filter field is set
func (l StudentLookup) IsEmpty() bool {
	return l.ID == "" && l.Email == "" && l.Usn == ""
}
