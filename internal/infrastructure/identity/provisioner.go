// Package identity provisions student accounts for approved applications.
package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vertexuniv/admission-workflow/internal/application/port"
	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
	"github.com/vertexuniv/admission-workflow/internal/domain/workflow"
)

const (
	sequenceDigits  = 4
	passwordLength  = 12
	passwordCharset = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Config carries the naming rules for provisioned identities
type Config struct {
	EmailDomain string // e.g. "student.vertexuniv.edu"
	UserRole    string // role assigned to the login account
}

// Provisioner implements port.IdentityProvisioner backed by the students
// tables. It allocates student numbers of the form YYYY + program code +
// 4-digit sequence, e.g. 2026CS0042.
type Provisioner struct {
	students port.StudentRepository
	programs port.ProgramRepository
	cfg      Config
	logger   *zap.Logger

	now func() time.Time
}

// NewProvisioner creates an identity provisioner
func NewProvisioner(students port.StudentRepository, programs port.ProgramRepository, cfg Config, logger *zap.Logger) *Provisioner {
	if cfg.UserRole == "" {
		cfg.UserRole = "student"
	}
	return &Provisioner{
		students: students,
		programs: programs,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateStudentAccount provisions a user account and student record for an
// approved application. When the application already carries a student number
// the existing record is returned without creating anything, which makes a
// retried approval safe.
func (p *Provisioner) CreateStudentAccount(ctx context.Context, app *entity.Application) (*entity.Provisioned, error) {
	if app.IsProvisioned() {
		existing, err := p.students.GetByStudentNumber(ctx, *app.StudentID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &entity.Provisioned{Student: existing}, nil
		}
	}

	program, err := p.programs.GetByID(ctx, app.ProgramID)
	if err != nil {
		return nil, err
	}
	if program == nil {
		return nil, &workflow.ProvisioningError{Stage: "program lookup", Err: fmt.Errorf("program %d not found", app.ProgramID)}
	}

	number, err := p.allocateStudentNumber(ctx, program)
	if err != nil {
		return nil, err
	}

	email, err := p.allocateEmail(app.FullName, number)
	if err != nil {
		return nil, err
	}

	credential, err := generatePassword()
	if err != nil {
		return nil, &workflow.ProvisioningError{Stage: "credential generation", Err: err}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, &workflow.ProvisioningError{Stage: "credential hashing", Err: err}
	}

	user := &entity.UserAccount{
		Name:         app.FullName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         p.cfg.UserRole,
		Phone:        app.Phone,
	}
	if err := p.students.CreateUser(ctx, user); err != nil {
		return nil, &workflow.ProvisioningError{Stage: "user account", Err: err}
	}

	student := &entity.Student{
		UserID:          user.ID,
		ProgramID:       app.ProgramID,
		StudentNumber:   number,
		NameEn:          app.FullName,
		NameAr:          app.FullNameAr,
		Status:          entity.StudentStatusActive,
		NationalID:      app.NationalID,
		DateOfBirth:     app.DateOfBirth,
		Gender:          app.Gender,
		Nationality:     app.Nationality,
		Phone:           app.Phone,
		PersonalEmail:   app.Email,
		UniversityEmail: email,
		SISUsername:     number,
		AdmissionDate:   p.now(),
	}
	if err := p.students.CreateStudent(ctx, student); err != nil {
		return nil, &workflow.ProvisioningError{Stage: "student record", Err: err}
	}

	p.logger.Info("Provisioned student account",
		zap.Int64("application_id", app.ID),
		zap.String("student_number", number))

	return &entity.Provisioned{Student: student, User: user, Credential: credential}, nil
}

// allocateStudentNumber issues the next number under YYYY + program code.
// It runs inside the approval transaction, so concurrent approvals are
// serialized by the database and cannot allocate the same sequence.
func (p *Provisioner) allocateStudentNumber(ctx context.Context, program *entity.Program) (string, error) {
	prefix := fmt.Sprintf("%d%s", p.now().Year(), program.Code)

	last, err := p.students.LastStudentNumber(ctx, prefix)
	if err != nil {
		return "", &workflow.ProvisioningError{Stage: "student number", Err: err}
	}

	next := 1
	if last != "" && len(last) > len(prefix) {
		if seq, err := strconv.Atoi(last[len(prefix):]); err == nil {
			next = seq + 1
		}
	}

	number := fmt.Sprintf("%s%0*d", prefix, sequenceDigits, next)
	taken, err := p.students.StudentNumberExists(ctx, number)
	if err != nil {
		return "", &workflow.ProvisioningError{Stage: "student number", Err: err}
	}
	if taken {
		return "", &workflow.ProvisioningError{Stage: "student number", Err: fmt.Errorf("number %s already allocated", number)}
	}
	return number, nil
}

// allocateEmail derives the university email: the first three letters of the
// applicant's name, lowercased, followed by the numeric part of the student
// number
func (p *Provisioner) allocateEmail(fullName, studentNumber string) (string, error) {
	var letters []rune
	for _, r := range fullName {
		if unicode.IsLetter(r) && r < unicode.MaxASCII {
			letters = append(letters, unicode.ToLower(r))
			if len(letters) == 3 {
				break
			}
		}
	}
	if len(letters) == 0 {
		letters = []rune("std")
	}

	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, studentNumber)

	return fmt.Sprintf("%s%s@%s", string(letters), digits, p.cfg.EmailDomain), nil
}

func generatePassword() (string, error) {
	out := make([]byte, passwordLength)
	max := big.NewInt(int64(len(passwordCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordCharset[n.Int64()]
	}
	return string(out), nil
}
