package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
	"github.com/vertexuniv/admission-workflow/internal/domain/workflow"
)

type stubStudents struct {
	lastNumber string
	existing   map[string]*entity.Student

	users    []*entity.UserAccount
	students []*entity.Student
}

func (s *stubStudents) CreateUser(_ context.Context, user *entity.UserAccount) error {
	user.ID = int64(len(s.users) + 1)
	s.users = append(s.users, user)
	return nil
}

func (s *stubStudents) CreateStudent(_ context.Context, student *entity.Student) error {
	student.ID = int64(len(s.students) + 1)
	s.students = append(s.students, student)
	return nil
}

func (s *stubStudents) StudentNumberExists(_ context.Context, number string) (bool, error) {
	_, ok := s.existing[number]
	return ok, nil
}

func (s *stubStudents) LastStudentNumber(_ context.Context, prefix string) (string, error) {
	return s.lastNumber, nil
}

func (s *stubStudents) GetByStudentNumber(_ context.Context, number string) (*entity.Student, error) {
	return s.existing[number], nil
}

type stubPrograms struct {
	program *entity.Program
}

func (s *stubPrograms) GetByID(_ context.Context, id int64) (*entity.Program, error) {
	if s.program != nil && s.program.ID == id {
		return s.program, nil
	}
	return nil, nil
}

func (s *stubPrograms) GetByCode(_ context.Context, code string) (*entity.Program, error) {
	if s.program != nil && s.program.Code == code {
		return s.program, nil
	}
	return nil, nil
}

func (s *stubPrograms) ListActive(_ context.Context) ([]*entity.Program, error) {
	if s.program == nil {
		return nil, nil
	}
	return []*entity.Program{s.program}, nil
}

func newTestProvisioner(students *stubStudents, programs *stubPrograms) *Provisioner {
	p := NewProvisioner(students, programs, Config{EmailDomain: "student.vertexuniv.edu"}, zap.NewNop())
	p.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	return p
}

func testApplication() *entity.Application {
	return &entity.Application{
		ID:          7,
		ProgramID:   1,
		FullName:    "Amina Hassan",
		Email:       "amina@example.com",
		Phone:       "+20100000001",
		NationalID:  "29901011234567",
		DateOfBirth: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender:      "FEMALE",
		Nationality: "Egyptian",
	}
}

func TestCreateStudentAccount(t *testing.T) {
	students := &stubStudents{existing: map[string]*entity.Student{}}
	programs := &stubPrograms{program: &entity.Program{ID: 1, Code: "01", IsActive: true}}
	p := newTestProvisioner(students, programs)

	prov, err := p.CreateStudentAccount(context.Background(), testApplication())
	require.NoError(t, err)

	// Fresh prefix starts the sequence at 0001.
	assert.Equal(t, "2026010001", prov.Student.StudentNumber)
	assert.Equal(t, "ami2026010001@student.vertexuniv.edu", prov.Student.UniversityEmail)
	assert.Equal(t, prov.Student.StudentNumber, prov.Student.SISUsername)
	assert.Equal(t, entity.StudentStatusActive, prov.Student.Status)

	require.NotNil(t, prov.User)
	assert.Equal(t, "student", prov.User.Role)
	assert.Equal(t, prov.Student.UniversityEmail, prov.User.Email)
	assert.Equal(t, prov.User.ID, prov.Student.UserID)

	// The clear-text credential is returned once; only its hash is stored.
	require.Len(t, prov.Credential, 12)
	assert.NotEqual(t, prov.Credential, prov.User.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(prov.User.PasswordHash), []byte(prov.Credential)))
}

func TestCreateStudentAccount_SequenceContinues(t *testing.T) {
	students := &stubStudents{
		lastNumber: "2026010041",
		existing:   map[string]*entity.Student{},
	}
	programs := &stubPrograms{program: &entity.Program{ID: 1, Code: "01", IsActive: true}}
	p := newTestProvisioner(students, programs)

	prov, err := p.CreateStudentAccount(context.Background(), testApplication())
	require.NoError(t, err)
	assert.Equal(t, "2026010042", prov.Student.StudentNumber)
}

func TestCreateStudentAccount_NumberCollision(t *testing.T) {
	students := &stubStudents{
		lastNumber: "2026010041",
		existing: map[string]*entity.Student{
			"2026010042": {StudentNumber: "2026010042"},
		},
	}
	programs := &stubPrograms{program: &entity.Program{ID: 1, Code: "01", IsActive: true}}
	p := newTestProvisioner(students, programs)

	_, err := p.CreateStudentAccount(context.Background(), testApplication())
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrProvisioning)
	assert.Empty(t, students.students, "nothing may persist after a failed allocation")
}

func TestCreateStudentAccount_Idempotent(t *testing.T) {
	number := "2026010001"
	students := &stubStudents{
		existing: map[string]*entity.Student{
			number: {ID: 1, StudentNumber: number, UniversityEmail: "ami2026010001@student.vertexuniv.edu"},
		},
	}
	programs := &stubPrograms{program: &entity.Program{ID: 1, Code: "01", IsActive: true}}
	p := newTestProvisioner(students, programs)

	app := testApplication()
	app.StudentID = &number

	prov, err := p.CreateStudentAccount(context.Background(), app)
	require.NoError(t, err)
	assert.Equal(t, number, prov.Student.StudentNumber)
	assert.Empty(t, prov.Credential, "no new credential on a retried approval")
	assert.Empty(t, students.users, "no second login account")
}

func TestCreateStudentAccount_UnknownProgram(t *testing.T) {
	students := &stubStudents{existing: map[string]*entity.Student{}}
	p := newTestProvisioner(students, &stubPrograms{})

	_, err := p.CreateStudentAccount(context.Background(), testApplication())
	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrProvisioning)
}

func TestAllocateEmail(t *testing.T) {
	p := newTestProvisioner(&stubStudents{}, &stubPrograms{})

	tests := []struct {
		name     string
		fullName string
		number   string
		want     string
	}{
		{"plain ascii name", "Amina Hassan", "2026010001", "ami2026010001@student.vertexuniv.edu"},
		{"short name", "Al B", "2026010002", "alb2026010002@student.vertexuniv.edu"},
		{"non-ascii name falls back", "محمد علي", "2026010003", "std2026010003@student.vertexuniv.edu"},
		{"mixed script", "José María", "2026010004", "jos2026010004@student.vertexuniv.edu"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.allocateEmail(tt.fullName, tt.number)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeneratePassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		pw, err := generatePassword()
		require.NoError(t, err)
		assert.Len(t, pw, passwordLength)
		assert.NotContains(t, pw, "0")
		assert.NotContains(t, pw, "O")
		assert.NotContains(t, pw, "l")
		seen[pw] = true
	}
	assert.Greater(t, len(seen), 1, "passwords must not repeat")
}
