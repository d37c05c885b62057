package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/vertexuniv/admission-workflow/internal/application/port"
	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
	"github.com/vertexuniv/admission-workflow/internal/infrastructure/persistence/sqlite"
)

// StudentRepository implements port.StudentRepository on SQLite.
// Inserts run inside the approval transaction, so a failed approval
// leaves no orphaned identities behind.
type StudentRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *sqlite.DB, logger *zap.Logger) port.StudentRepository {
	return &StudentRepository{db: db, logger: logger}
}

// CreateUser inserts a login account and sets its generated id
func (r *StudentRepository) CreateUser(ctx context.Context, user *entity.UserAccount) error {
	query := `
		INSERT INTO users (name, email, password_hash, role, phone)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query,
		user.Name, user.Email, user.PasswordHash, user.Role, user.Phone)
	if err != nil {
		r.logger.Error("Failed to create user account", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = id
	return nil
}

// CreateStudent inserts an academic record and sets its generated id
func (r *StudentRepository) CreateStudent(ctx context.Context, student *entity.Student) error {
	query := `
		INSERT INTO students (
			user_id, program_id, student_number, name_en, name_ar, status,
			national_id, date_of_birth, gender, nationality, phone,
			personal_email, university_email, sis_username, admission_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecutorFrom(ctx).ExecContext(ctx, query,
		student.UserID,
		student.ProgramID,
		student.StudentNumber,
		student.NameEn,
		student.NameAr,
		student.Status,
		student.NationalID,
		student.DateOfBirth,
		student.Gender,
		student.Nationality,
		student.Phone,
		student.PersonalEmail,
		student.UniversityEmail,
		student.SISUsername,
		student.AdmissionDate,
	)
	if err != nil {
		r.logger.Error("Failed to create student", zap.String("student_number", student.StudentNumber), zap.Error(err))
		return fmt.Errorf("failed to create student: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	student.ID = id
	return nil
}

// StudentNumberExists reports whether a student number is already taken
func (r *StudentRepository) StudentNumberExists(ctx context.Context, number string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM students WHERE student_number = ?)`

	var exists bool
	if err := r.db.ExecutorFrom(ctx).QueryRowContext(ctx, query, number).Scan(&exists); err != nil {
		r.logger.Error("Failed to check student number", zap.String("student_number", number), zap.Error(err))
		return false, fmt.Errorf("failed to check student number: %w", err)
	}
	return exists, nil
}

// LastStudentNumber returns the highest allocated number with the given
// prefix, or empty when none exists yet
func (r *StudentRepository) LastStudentNumber(ctx context.Context, prefix string) (string, error) {
	query := `
		SELECT COALESCE(MAX(student_number), '')
		FROM students
		WHERE student_number LIKE ? || '%'
	`

	var last string
	if err := r.db.ExecutorFrom(ctx).QueryRowContext(ctx, query, prefix).Scan(&last); err != nil {
		r.logger.Error("Failed to get last student number", zap.String("prefix", prefix), zap.Error(err))
		return "", fmt.Errorf("failed to get last student number: %w", err)
	}
	return last, nil
}

// GetByStudentNumber retrieves a student; returns (nil, nil) when missing
func (r *StudentRepository) GetByStudentNumber(ctx context.Context, number string) (*entity.Student, error) {
	query := `
		SELECT id, user_id, program_id, student_number, name_en, name_ar,
			status, national_id, date_of_birth, gender, nationality, phone,
			personal_email, university_email, sis_username, admission_date, created_at
		FROM students
		WHERE student_number = ?
	`

	var (
		s      entity.Student
		nameAr sql.NullString
		phone  sql.NullString
	)
	err := r.db.ExecutorFrom(ctx).QueryRowContext(ctx, query, number).Scan(
		&s.ID, &s.UserID, &s.ProgramID, &s.StudentNumber, &s.NameEn, &nameAr,
		&s.Status, &s.NationalID, &s.DateOfBirth, &s.Gender, &s.Nationality,
		&phone, &s.PersonalEmail, &s.UniversityEmail, &s.SISUsername,
		&s.AdmissionDate, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get student", zap.String("student_number", number), zap.Error(err))
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	s.NameAr = nameAr.String
	s.Phone = phone.String
	return &s, nil
}
