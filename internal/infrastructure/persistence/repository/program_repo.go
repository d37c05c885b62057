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

// ProgramRepository implements port.ProgramRepository on SQLite
type ProgramRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewProgramRepository creates a new program repository
func NewProgramRepository(db *sqlite.DB, logger *zap.Logger) port.ProgramRepository {
	return &ProgramRepository{db: db, logger: logger}
}

const programColumns = `id, code, name_en, name_ar, degree_type, duration_years, is_active`

// GetByID retrieves a program by id; returns (nil, nil) when missing
func (r *ProgramRepository) GetByID(ctx context.Context, id int64) (*entity.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE id = ?`
	return r.queryOne(ctx, query, id)
}

// GetByCode retrieves a program by its catalog code
func (r *ProgramRepository) GetByCode(ctx context.Context, code string) (*entity.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE code = ?`
	return r.queryOne(ctx, query, code)
}

// ListActive returns programs currently open for admission
func (r *ProgramRepository) ListActive(ctx context.Context) ([]*entity.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE is_active = 1 ORDER BY code ASC`

	rows, err := r.db.ExecutorFrom(ctx).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list programs", zap.Error(err))
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	var programs []*entity.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	return programs, rows.Err()
}

func (r *ProgramRepository) queryOne(ctx context.Context, query string, args ...any) (*entity.Program, error) {
	p, err := scanProgram(r.db.ExecutorFrom(ctx).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get program", zap.Error(err))
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return p, nil
}

func scanProgram(row rowScanner) (*entity.Program, error) {
	var (
		p      entity.Program
		nameAr sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Code, &p.NameEn, &nameAr, &p.DegreeType, &p.DurationYears, &p.IsActive); err != nil {
		return nil, err
	}
	p.NameAr = nameAr.String
	return &p, nil
}
