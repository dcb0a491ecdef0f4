package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/app/models/dto"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

const studentSheet = "Students"

// StudentColumns is the column order of exported and imported spreadsheets.
var StudentColumns = []string{"Student ID", "First Name", "Last Name", "Program Code", "Year Level", "Gender"}

// SpreadsheetService converts students to and from xlsx workbooks
type SpreadsheetService struct {
	students StudentService
	logger   zerolog.Logger
}

// NewSpreadsheetService creates a new SpreadsheetService
func NewSpreadsheetService(students StudentService, logger zerolog.Logger) *SpreadsheetService {
	return &SpreadsheetService{students: students, logger: logger}
}

// ExportStudents writes every student matching p's search, filters and sort
// to w as a single-sheet workbook.
func (s *SpreadsheetService) ExportStudents(ctx context.Context, p query.Params, w io.Writer) (int, error) {
	students, err := s.students.SearchStudents(ctx, p)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing export workbook")
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), studentSheet); err != nil {
		return 0, fmt.Errorf("failed to name export sheet: %w", err)
	}
	if err := f.SetSheetRow(studentSheet, "A1", &StudentColumns); err != nil {
		return 0, fmt.Errorf("failed to write export header: %w", err)
	}

	for i, st := range students {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		row := []interface{}{st.StudentID, st.FirstName, st.LastName, st.ProgramCode, st.YearLevel, st.Gender}
		if err := f.SetSheetRow(studentSheet, cell, &row); err != nil {
			return 0, fmt.Errorf("failed to write export row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return 0, fmt.Errorf("failed to write export workbook: %w", err)
	}
	return len(students), nil
}

// ImportStudents creates one student per row of the first sheet of r. The
// first row is a header. Rows that fail validation are skipped and reported.
func (s *SpreadsheetService) ImportStudents(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewBadRequestError("File is not a valid xlsx workbook.")
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing import workbook")
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, apperrors.NewBadRequestError("Workbook does not contain any sheets.")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	result := &dto.ImportResult{}
	for i, row := range rows {
		if i == 0 || blankRow(row) {
			continue
		}

		st, err := studentFromRow(row)
		if err == nil {
			_, err = s.students.CreateStudent(ctx, st)
		}
		if err != nil {
			if !apperrors.Is(err, apperrors.ErrValidationFailed, apperrors.ErrConflict) {
				return nil, err
			}
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", i+1, apperrors.Message(err, err.Error())))
			continue
		}
		result.Imported++
	}

	s.logger.Info().Int("imported", result.Imported).Int("skipped", result.Skipped).Msg("Student import finished")
	return result, nil
}

func studentFromRow(row []string) (models.Student, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	st := models.Student{
		StudentID:   cell(0),
		FirstName:   cell(1),
		LastName:    cell(2),
		ProgramCode: cell(3),
		Gender:      cell(5),
	}
	if raw := cell(4); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return st, apperrors.NewValidationError("Year level must be a number.")
		}
		st.YearLevel = year
	}
	return st, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
