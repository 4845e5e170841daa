package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/edustep/progress-service/internal/models"
	"github.com/edustep/progress-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

type reportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		logger: logger,
	}
}

var progressReportHeader = []string{
	"Unit ID", "Unit Name", "Completed", "Stars", "Mastery Level",
	"Answers", "Correct", "Incorrect", "Study Sessions", "Practice Sessions",
	"Total Time (ms)", "Avg Response (ms)",
}

// ExportProgressExcel renders a student's progress snapshots as an XLSX
// workbook, one row per unit.
func (s *reportService) ExportProgressExcel(ctx context.Context, studentID string) ([]byte, error) {
	rows, units, err := s.loadReportRows(ctx, studentID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Progress"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, title := range progressReportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, title)
	}

	for i, p := range rows {
		values := reportRowValues(p, units[p.UnitID])
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Exported progress report",
		"student_id", studentID,
		"format", "xlsx",
		"rows", len(rows))
	return buf.Bytes(), nil
}

// ExportProgressCSV renders the same report as CSV.
func (s *reportService) ExportProgressCSV(ctx context.Context, studentID string) ([]byte, error) {
	rows, units, err := s.loadReportRows(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(progressReportHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, p := range rows {
		record := make([]string, 0, len(progressReportHeader))
		for _, value := range reportRowValues(p, units[p.UnitID]) {
			record = append(record, fmt.Sprintf("%v", value))
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	s.logger.Info("Exported progress report",
		"student_id", studentID,
		"format", "csv",
		"rows", len(rows))
	return buf.Bytes(), nil
}

func (s *reportService) loadReportRows(ctx context.Context, studentID string) ([]*models.UnitProgress, map[uint]*models.Unit, error) {
	rows, err := s.repo.Progress().ListByStudent(ctx, studentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load progress rows: %w", err)
	}

	units := make(map[uint]*models.Unit, len(rows))
	for _, p := range rows {
		unit, err := s.repo.Catalog().GetUnit(ctx, p.UnitID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				continue
			}
			return nil, nil, fmt.Errorf("failed to load unit %d: %w", p.UnitID, err)
		}
		units[p.UnitID] = unit
	}
	return rows, units, nil
}

func reportRowValues(p *models.UnitProgress, unit *models.Unit) []interface{} {
	unitName := ""
	if unit != nil {
		unitName = unit.Name
	}
	return []interface{}{
		p.UnitID,
		unitName,
		strconv.FormatBool(p.Completed),
		p.Stars,
		p.MasteryLevel,
		p.AnswerCount,
		p.CorrectCount,
		p.IncorrectCount,
		p.StudyCount,
		p.PracticeCount,
		p.TotalTimeMs,
		p.AvgResponseTimeMs,
	}
}
