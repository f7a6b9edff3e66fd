package models

import (
	"strings"
	"time"
)

// StudyMode distinguishes the two cohort calendars.
type StudyMode string

const (
	StudyModeRegular StudyMode = "Regular"
	StudyModeWeekend StudyMode = "Weekend"
)

// DefaultLevel is assumed when a source record carries no level.
const DefaultLevel = "100"

// Levels lists the academic levels in progression order.
var Levels = []string{"100", "200", "300", "400"}

// StudentIdentity is the canonical student record merged from whichever raw
// source shape matched during resolution.
type StudentIdentity struct {
	ID                  string    `db:"id" json:"id"`
	RegistrationNumber  string    `db:"registration_number" json:"registration_number,omitempty"`
	DisplayName         string    `db:"display_name" json:"display_name"`
	Email               string    `db:"email" json:"email,omitempty"`
	Program             string    `db:"program" json:"program"`
	CurrentLevel        string    `db:"current_level" json:"current_level"`
	EntryLevel          string    `db:"entry_level" json:"entry_level"`
	AdmissionYear       string    `db:"admission_year" json:"admission_year,omitempty"`
	StudyMode           StudyMode `db:"study_mode" json:"study_mode"`
	CurrentAcademicYear string    `db:"current_academic_year" json:"current_academic_year,omitempty"`
	CurrentPeriod       int       `db:"current_period" json:"current_period"`
	Active              bool      `db:"active" json:"active"`
}

// Reference returns the identifier other records are keyed by: the
// registration number once assigned, otherwise the opaque id.
func (s StudentIdentity) Reference() string {
	if s.RegistrationNumber != "" {
		return s.RegistrationNumber
	}
	return s.ID
}

// NextLevel returns the level one increment above the current one and whether
// a further level exists.
func (s StudentIdentity) NextLevel() (string, bool) {
	for i, level := range Levels {
		if level == s.CurrentLevel && i+1 < len(Levels) {
			return Levels[i+1], true
		}
	}
	return "", false
}

// PrimaryStudentRow is the row shape of the primary identity store. Names are
// split into surname and other names; the registration number may be absent on
// partially onboarded records.
type PrimaryStudentRow struct {
	ID                  string     `db:"id"`
	RegistrationNumber  *string    `db:"registration_number"`
	Surname             string     `db:"surname"`
	OtherNames          string     `db:"other_names"`
	Email               *string    `db:"email"`
	Program             string     `db:"program"`
	CurrentLevel        *string    `db:"current_level"`
	EntryLevel          *string    `db:"entry_level"`
	AdmissionYear       *string    `db:"admission_year"`
	StudyMode           string     `db:"study_mode"`
	CurrentAcademicYear *string    `db:"current_academic_year"`
	CurrentPeriod       int        `db:"current_period"`
	Active              bool       `db:"active"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           *time.Time `db:"updated_at"`
}

// Normalize converts the primary row into the canonical identity.
func (r PrimaryStudentRow) Normalize() StudentIdentity {
	identity := StudentIdentity{
		ID:            r.ID,
		DisplayName:   strings.TrimSpace(r.Surname + " " + r.OtherNames),
		Program:       r.Program,
		CurrentLevel:  DefaultLevel,
		EntryLevel:    DefaultLevel,
		StudyMode:     normalizeStudyMode(r.StudyMode),
		CurrentPeriod: r.CurrentPeriod,
		Active:        r.Active,
	}
	if r.RegistrationNumber != nil {
		identity.RegistrationNumber = *r.RegistrationNumber
	}
	if r.Email != nil {
		identity.Email = strings.ToLower(strings.TrimSpace(*r.Email))
	}
	if r.CurrentLevel != nil && *r.CurrentLevel != "" {
		identity.CurrentLevel = *r.CurrentLevel
	}
	if r.EntryLevel != nil && *r.EntryLevel != "" {
		identity.EntryLevel = *r.EntryLevel
	}
	if r.AdmissionYear != nil {
		identity.AdmissionYear = *r.AdmissionYear
	}
	if r.CurrentAcademicYear != nil {
		identity.CurrentAcademicYear = *r.CurrentAcademicYear
	}
	if identity.CurrentPeriod < 1 {
		identity.CurrentPeriod = 1
	}
	return identity
}

// LegacyStudentRow is the row shape of the legacy identity mirror. The name is
// a single field and the registration number is stored as an index number.
type LegacyStudentRow struct {
	ID          string  `db:"id"`
	IndexNumber *string `db:"index_number"`
	FullName    string  `db:"full_name"`
	Email       *string `db:"email"`
	Programme   string  `db:"programme"`
	Level       *string `db:"level"`
	EntryYear   *string `db:"entry_year"`
	Schedule    *string `db:"schedule"`
}

// Normalize converts the legacy row into the canonical identity. Fields the
// mirror never tracked fall back to defaults.
func (r LegacyStudentRow) Normalize() StudentIdentity {
	identity := StudentIdentity{
		ID:            r.ID,
		DisplayName:   strings.TrimSpace(r.FullName),
		Program:       r.Programme,
		CurrentLevel:  DefaultLevel,
		EntryLevel:    DefaultLevel,
		StudyMode:     StudyModeRegular,
		CurrentPeriod: 1,
		Active:        true,
	}
	if r.IndexNumber != nil {
		identity.RegistrationNumber = *r.IndexNumber
	}
	if r.Email != nil {
		identity.Email = strings.ToLower(strings.TrimSpace(*r.Email))
	}
	if r.Level != nil && *r.Level != "" {
		identity.CurrentLevel = *r.Level
		identity.EntryLevel = *r.Level
	}
	if r.EntryYear != nil {
		identity.AdmissionYear = *r.EntryYear
	}
	if r.Schedule != nil {
		identity.StudyMode = normalizeStudyMode(*r.Schedule)
	}
	return identity
}

func normalizeStudyMode(raw string) StudyMode {
	if strings.EqualFold(strings.TrimSpace(raw), string(StudyModeWeekend)) {
		return StudyModeWeekend
	}
	return StudyModeRegular
}
