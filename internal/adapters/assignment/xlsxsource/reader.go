package xlsxsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/xuri/excelize/v2"

	"github.com/hylla/granska/internal/domain"
)

// Reader pulls assignment rows from the first sheet of an xlsx workbook.
// Row 1 is the header row; the required columns are matched case-insensitively
// and the filepath column accepts "directory" as an alias. Problems degrade to
// an empty result with a warning, matching how the rest of the system treats
// its external inputs.
type Reader struct {
	path   string
	logger *log.Logger
}

// NewReader constructs a reader for the workbook at path.
func NewReader(path string, logger *log.Logger) *Reader {
	if logger == nil {
		logger = log.Default()
	}
	return &Reader{path: path, logger: logger}
}

// Path returns the workbook location.
func (r *Reader) Path() string { return r.path }

// Rows reads the data rows. Rows with any required cell blank are skipped.
func (r *Reader) Rows(_ context.Context) ([]domain.AssignmentRow, error) {
	raw, err := r.readSheet()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	cols, err := requiredColumns(raw[0])
	if err != nil {
		r.logger.Warn("assignment sheet unusable", "path", r.path, "err", err)
		return nil, nil
	}

	rows := make([]domain.AssignmentRow, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		row := domain.AssignmentRow{
			Directory: cellAt(cells, cols.directory),
			Filename:  cellAt(cells, cols.filename),
			Worker:    cellAt(cells, cols.worker),
		}
		if row.Directory == "" || row.Filename == "" || row.Worker == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Workers enumerates the distinct worker names in the sheet, sorted.
func (r *Reader) Workers(ctx context.Context) ([]string, error) {
	raw, err := r.readSheet()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	cols, err := requiredColumns(raw[0])
	if err != nil {
		r.logger.Warn("assignment sheet unusable", "path", r.path, "err", err)
		return nil, nil
	}

	rows := make([]domain.AssignmentRow, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		rows = append(rows, domain.AssignmentRow{Worker: cellAt(cells, cols.worker)})
	}
	return domain.Workers(rows), nil
}

func (r *Reader) readSheet() ([][]string, error) {
	if _, err := os.Stat(r.path); errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("assignment workbook missing", "path", r.path)
		return nil, nil
	}

	wb, err := excelize.OpenFile(r.path)
	if err != nil {
		r.logger.Warn("assignment workbook unreadable, treating as empty", "path", r.path, "err", err)
		return nil, nil
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

type columnIndexes struct {
	directory int
	filename  int
	worker    int
}

// requiredColumns locates the three required headers, trimmed and
// case-insensitive.
func requiredColumns(header []string) (columnIndexes, error) {
	cols := columnIndexes{directory: -1, filename: -1, worker: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "filepath", "directory":
			if cols.directory < 0 {
				cols.directory = i
			}
		case "filename":
			if cols.filename < 0 {
				cols.filename = i
			}
		case "worker":
			if cols.worker < 0 {
				cols.worker = i
			}
		}
	}
	if cols.directory < 0 || cols.filename < 0 || cols.worker < 0 {
		return columnIndexes{}, fmt.Errorf("%w: need filepath (or directory), filename, worker", domain.ErrMissingHeaders)
	}
	return cols, nil
}

func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}
