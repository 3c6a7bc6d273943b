package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
	"github.com/joseph-ayodele/jobs-tracker/internal/repository"
	"github.com/joseph-ayodele/jobs-tracker/internal/schema"
)

// Sheet names of the exported workbook.
const (
	ArchivalSheet    = "Existing Jobs"
	OperationalSheet = "Active Jobs"
)

// Service is a tiny façade over the job repository that produces XLSX bytes for exports.
type Service struct {
	repo   repository.JobRepository
	schema schema.Schema
	logger *slog.Logger
}

func NewService(repo repository.JobRepository, s schema.Schema, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, schema: s, logger: logger}
}

// ExportJobsXLSX returns a workbook with one sheet per job table. Each sheet
// has a header row of column names in declared order, then one row per job
// ordered by job number. NULL cells are left empty.
func (s *Service) ExportJobsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	archival, err := s.repo.ListArchival(ctx)
	if err != nil {
		return nil, fmt.Errorf("query existing jobs: %w", err)
	}
	operational, err := s.repo.ListOperational(ctx)
	if err != nil {
		return nil, fmt.Errorf("query active jobs: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// The default sheet becomes the archival one.
	if err := f.SetSheetName(f.GetSheetName(0), ArchivalSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(OperationalSheet); err != nil {
		return nil, err
	}
	if err := writeSheet(f, ArchivalSheet, s.schema.Archival, archival); err != nil {
		return nil, err
	}
	if err := writeSheet(f, OperationalSheet, s.schema.Operational, operational); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(ArchivalSheet)
	f.SetActiveSheet(activeIndex)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"existing_rows", len(archival),
		"active_rows", len(operational),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, columns []string, recs []entity.JobRecord) error {
	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for r, rec := range recs {
		for i, c := range columns {
			v := rec[c]
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellStr(sheet, cell, truncate(*v, maxCellLen)); err != nil {
				return err
			}
		}
	}

	last, _ := excelize.ColumnNumberToName(len(columns))
	_ = f.SetColWidth(sheet, "A", last, 18)
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// maxCellLen is the Excel per-cell character limit.
const maxCellLen = 32767

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
