package client

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/app/models/dto"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

// CountByProgram returns the number of students per program.
func (s *Session) CountByProgram(ctx context.Context) ([]models.ProgramCount, error) {
	var out []models.ProgramCount
	err := s.do(ctx, http.MethodGet, "/api/students/count-by-program", nil, nil, &out)
	return out, err
}

// CountByGender returns the number of students per gender.
func (s *Session) CountByGender(ctx context.Context) ([]models.GenderCount, error) {
	var out []models.GenderCount
	err := s.do(ctx, http.MethodGet, "/api/students/count-by-gender", nil, nil, &out)
	return out, err
}

// StudentsByProgram returns the students enrolled in programCode.
func (s *Session) StudentsByProgram(ctx context.Context, programCode string) ([]models.Student, error) {
	var out []models.Student
	q := url.Values{"programCode": {programCode}}
	err := s.do(ctx, http.MethodGet, "/api/students/by-program", q, nil, &out)
	return out, err
}

// ExportStudents writes the xlsx export of the students matching p to w.
// Paging fields of p are ignored by the server.
func (s *Session) ExportStudents(ctx context.Context, p query.Params, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint("/api/students/export", p.Values()), nil)
	if err != nil {
		return err
	}
	return s.send(req, w)
}

// ImportStudents uploads an xlsx workbook.
func (s *Session) ImportStudents(ctx context.Context, filename string, r io.Reader) (*dto.ImportResult, error) {
	var result dto.ImportResult
	if err := s.upload(ctx, "/api/students/import", "file", filename, r, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadPhoto replaces a student's photo and returns the updated student.
func (s *Session) UploadPhoto(ctx context.Context, studentID, filename string, r io.Reader) (models.Student, error) {
	var envelope struct {
		Student models.Student `json:"student"`
	}
	path := "/api/students/" + url.PathEscape(studentID) + "/photo"
	if err := s.upload(ctx, path, "photo", filename, r, &envelope); err != nil {
		return models.Student{}, err
	}
	return envelope.Student, nil
}

func (s *Session) upload(ctx context.Context, path, field, filename string, r io.Reader, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile(field, filepath.Base(filename))
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(path, nil), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return s.send(req, out)
}
