// ABOUTME: Instructor and Patient profile models mirrored from the identity provider.
// ABOUTME: Includes the sparse PatientUpdate used for partial profile edits.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds the attributes shared by instructors and patients.
// ID is the identity provider's stable user id.
type Profile struct {
	ID        string    `json:"id" yaml:"id"`
	Username  string    `json:"username" yaml:"username"`
	Email     string    `json:"email" yaml:"email"`
	FirstName string    `json:"first_name" yaml:"first_name"`
	LastName  string    `json:"last_name" yaml:"last_name"`
	BirthDate *string   `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	Gender    *string   `json:"gender,omitempty" yaml:"gender,omitempty"`
	Phone     *string   `json:"phone,omitempty" yaml:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// FullName joins first and last name.
func (p Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Instructor supervises patients and prescribes series.
type Instructor struct {
	Profile `yaml:",inline"`
}

// Patient practices the series prescribed by an instructor.
type Patient struct {
	Profile `yaml:",inline"`
}

func newProfile(id, username, email, firstName, lastName string) Profile {
	if id == "" {
		id = uuid.NewString()
	}
	return Profile{
		ID:        id,
		Username:  username,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: time.Now().UTC(),
	}
}

// NewInstructor creates an Instructor. An empty id gets a generated UUID,
// used when no identity provider id is available (local enrollment).
func NewInstructor(id, username, email, firstName, lastName string) *Instructor {
	return &Instructor{Profile: newProfile(id, username, email, firstName, lastName)}
}

// NewPatient creates a Patient. An empty id gets a generated UUID.
func NewPatient(id, username, email, firstName, lastName string) *Patient {
	return &Patient{Profile: newProfile(id, username, email, firstName, lastName)}
}

// WithBirthDate sets the birth date (YYYY-MM-DD).
func (p *Profile) WithBirthDate(date string) *Profile {
	p.BirthDate = &date
	return p
}

// WithGender sets the gender.
func (p *Profile) WithGender(gender string) *Profile {
	p.Gender = &gender
	return p
}

// WithPhone sets the phone number.
func (p *Profile) WithPhone(phone string) *Profile {
	p.Phone = &phone
	return p
}

// PatientUpdate is a sparse patient edit. Nil fields are left untouched.
type PatientUpdate struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	BirthDate *string
	Gender    *string
	Phone     *string
}

// IsEmpty reports whether no field was supplied.
func (u PatientUpdate) IsEmpty() bool {
	return u.Username == nil && u.Email == nil && u.FirstName == nil &&
		u.LastName == nil && u.BirthDate == nil && u.Gender == nil && u.Phone == nil
}

// Assignment links an instructor to a patient they supervise.
type Assignment struct {
	ID           int64     `json:"id" yaml:"id"`
	InstructorID string    `json:"instructor_id" yaml:"instructor_id"`
	PatientID    string    `json:"patient_id" yaml:"patient_id"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}
