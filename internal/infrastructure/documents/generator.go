// Package documents renders acceptance paperwork for approved applications.
package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/vertexuniv/admission-workflow/internal/domain/entity"
)

// Config holds rendering settings
type Config struct {
	OutputDir      string
	UniversityName string
}

// Generator implements port.DocumentGenerator. It writes spreadsheet-based
// documents under OutputDir; the registrar's office mail-merges them into the
// final letterhead.
type Generator struct {
	cfg    Config
	logger *zap.Logger

	now func() time.Time
}

// NewGenerator creates a document generator
func NewGenerator(cfg Config, logger *zap.Logger) *Generator {
	return &Generator{cfg: cfg, logger: logger, now: time.Now}
}

// GenerateAcceptanceLetter writes the acceptance letter sheet and returns its path
func (g *Generator) GenerateAcceptanceLetter(ctx context.Context, app *entity.Application) (string, error) {
	path := filepath.Join(g.cfg.OutputDir, fmt.Sprintf("acceptance_letter_%s.xlsx", app.Reference()))
	if err := g.ensureOutputDir(); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	g.setCell(f, sheet, "B2", g.cfg.UniversityName)
	g.setCell(f, sheet, "B3", "OFFER OF ADMISSION")
	g.setCell(f, sheet, "B5", fmt.Sprintf("Reference: %s", app.Reference()))
	g.setCell(f, sheet, "B6", fmt.Sprintf("Date: %s", g.now().Format("2006-01-02")))
	g.setCell(f, sheet, "B8", fmt.Sprintf("Dear %s,", app.FullName))
	g.setCell(f, sheet, "B10", "We are pleased to inform you that your application for admission has been approved.")
	if app.StudentID != nil {
		g.setCell(f, sheet, "B12", fmt.Sprintf("Student number: %s", *app.StudentID))
	}
	if app.ApprovedAt != nil {
		g.setCell(f, sheet, "B13", fmt.Sprintf("Admission date: %s", app.ApprovedAt.Format("2006-01-02")))
	}
	g.setCell(f, sheet, "B15", "Please present this letter at the registrar's office to complete your enrollment.")
	g.setCell(f, sheet, "B17", "Office of the Registrar")

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save acceptance letter: %w", err)
	}

	g.logger.Info("Acceptance letter generated",
		zap.Int64("application_id", app.ID),
		zap.String("path", path))
	return path, nil
}

// GenerateUniversityCard writes the card print sheet and returns its path
func (g *Generator) GenerateUniversityCard(ctx context.Context, app *entity.Application) (string, error) {
	path := filepath.Join(g.cfg.OutputDir, fmt.Sprintf("university_card_%s.xlsx", app.Reference()))
	if err := g.ensureOutputDir(); err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	g.setCell(f, sheet, "B2", g.cfg.UniversityName)
	g.setCell(f, sheet, "B3", "STUDENT IDENTIFICATION CARD")
	g.setCell(f, sheet, "B5", fmt.Sprintf("Name: %s", app.FullName))
	if app.FullNameAr != "" {
		g.setCell(f, sheet, "B6", app.FullNameAr)
	}
	if app.StudentID != nil {
		g.setCell(f, sheet, "B7", fmt.Sprintf("Student number: %s", *app.StudentID))
	}
	g.setCell(f, sheet, "B8", fmt.Sprintf("National ID: %s", app.NationalID))
	g.setCell(f, sheet, "B9", fmt.Sprintf("Valid from: %s", g.now().Format("2006-01-02")))

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save university card: %w", err)
	}

	g.logger.Info("University card generated",
		zap.Int64("application_id", app.ID),
		zap.String("path", path))
	return path, nil
}

func (g *Generator) ensureOutputDir() error {
	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

func (g *Generator) setCell(f *excelize.File, sheet, cell, value string) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		g.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}
