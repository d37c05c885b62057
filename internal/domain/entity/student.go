package entity

import "time"

// UserAccount is the login identity created for an approved applicant
type UserAccount struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"` // university email, also the login
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Student is the academic record provisioned when an application is approved
type Student struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	ProgramID       int64     `json:"program_id"`
	StudentNumber   string    `json:"student_number"`
	NameEn          string    `json:"name_en"`
	NameAr          string    `json:"name_ar,omitempty"`
	Status          string    `json:"status"`
	NationalID      string    `json:"national_id"`
	DateOfBirth     time.Time `json:"date_of_birth"`
	Gender          string    `json:"gender"`
	Nationality     string    `json:"nationality"`
	Phone           string    `json:"phone,omitempty"`
	PersonalEmail   string    `json:"personal_email"`
	UniversityEmail string    `json:"university_email"`
	SISUsername     string    `json:"sis_username"`
	AdmissionDate   time.Time `json:"admission_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// StudentStatusActive is the status a freshly provisioned student starts in
const StudentStatusActive = "ACTIVE"

// Provisioned is the result of creating a student identity for an approved
// application. Credential holds the generated initial password in clear text
// exactly once, for the approval notification; only its hash is persisted.
type Provisioned struct {
	Student    *Student
	User       *UserAccount
	Credential string
}

// Program is the admission target a student applies to. Owned by the academic
// catalog; read here for validation and student number allocation.
type Program struct {
	ID            int64  `json:"id"`
	Code          string `json:"code"`
	NameEn        string `json:"name_en"`
	NameAr        string `json:"name_ar,omitempty"`
	DegreeType    string `json:"degree_type"`
	DurationYears int    `json:"duration_years"`
	IsActive      bool   `json:"is_active"`
}
