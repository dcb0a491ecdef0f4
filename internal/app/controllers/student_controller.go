package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ssis-app/ssis/internal/app/models/dto"
	"github.com/ssis-app/ssis/internal/app/services"
	"github.com/ssis-app/ssis/internal/middleware"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

// Upload limits
const (
	MaxPhotoSize  = 5 << 20
	MaxImportSize = 10 << 20
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StudentController handles student-related operations
type StudentController struct {
	studentService     services.StudentService
	spreadsheetService *services.SpreadsheetService
	photoService       *services.PhotoService
}

// NewStudentController creates a new StudentController
func NewStudentController(
	studentService services.StudentService,
	spreadsheetService *services.SpreadsheetService,
	photoService *services.PhotoService,
) *StudentController {
	return &StudentController{
		studentService:     studentService,
		spreadsheetService: spreadsheetService,
		photoService:       photoService,
	}
}

// ListStudents returns one page of students
// @Summary List students
// @Description Accepts the common list parameters plus repeated programCode, gender and yearLevel filters.
// @Tags students
// @Produce json
// @Param programCode query []string false "Program filter" collectionFormat(multi)
// @Param gender query []string false "Gender filter" collectionFormat(multi)
// @Param yearLevel query []int false "Year level filter" collectionFormat(multi)
// @Success 200 {object} map[string]interface{} "{ students, total, pages, current_page }"
// @Router /students [get]
func (c *StudentController) ListStudents(ctx *gin.Context) {
	page, err := c.studentService.ListStudents(ctx, query.ParseValues(ctx.Request.URL.Query()))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, page)
}

// GetDropdown returns every student, unpaginated
// @Router /students/dropdown [get]
func (c *StudentController) GetDropdown(ctx *gin.Context) {
	students, err := c.studentService.GetDropdown(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{query.Students.Name: students})
}

// GetTotal returns the number of students
// @Router /students/total [get]
func (c *StudentController) GetTotal(ctx *gin.Context) {
	total, err := c.studentService.CountStudents(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.TotalResponse{Total: total})
}

// CountByProgram returns the number of students per program
// @Router /students/count-by-program [get]
func (c *StudentController) CountByProgram(ctx *gin.Context) {
	counts, err := c.studentService.CountByProgram(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, counts)
}

// CountByGender returns the number of students per gender
// @Router /students/count-by-gender [get]
func (c *StudentController) CountByGender(ctx *gin.Context) {
	counts, err := c.studentService.CountByGender(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, counts)
}

// ListByProgram returns the students of one program
// @Param programCode query string true "Program code, or N/A for students without one"
// @Router /students/by-program [get]
func (c *StudentController) ListByProgram(ctx *gin.Context) {
	code := strings.TrimSpace(ctx.Query("programCode"))
	if code == "" {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("programCode is required."))
		return
	}
	students, err := c.studentService.ListByProgram(ctx, code)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, students)
}

// GetStudent retrieves a student by ID
// @Summary Get a student
// @Tags students
// @Param id path string true "Student ID"
// @Success 200 {object} models.Student
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [get]
func (c *StudentController) GetStudent(ctx *gin.Context) {
	student, err := c.studentService.GetStudent(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, student)
}

// CreateStudent handles student creation
// @Summary Create a student
// @Tags students
// @Accept json
// @Produce json
// @Param request body dto.StudentRequest true "Student information"
// @Success 201 {object} map[string]interface{} "{ student, message }"
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 409 {object} dto.ErrorResponse "Student ID already exists"
// @Router /students/create [post]
func (c *StudentController) CreateStudent(ctx *gin.Context) {
	var req dto.StudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	student, err := c.studentService.CreateStudent(ctx, req.Model())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.EntityResponse(query.Students.Singular, student, "Student created successfully"))
}

// UpdateStudent replaces the student stored under the path ID
// @Summary Update a student
// @Tags students
// @Param id path string true "Current student ID"
// @Param request body dto.StudentRequest true "Student information"
// @Success 200 {object} map[string]interface{} "{ student, message }"
// @Router /students/{id} [put]
func (c *StudentController) UpdateStudent(ctx *gin.Context) {
	var req dto.StudentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	student, err := c.studentService.UpdateStudent(ctx, ctx.Param("id"), req.Model())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.EntityResponse(query.Students.Singular, student, "Student updated successfully"))
}

// DeleteStudent deletes a student
// @Router /students/{id} [delete]
func (c *StudentController) DeleteStudent(ctx *gin.Context) {
	if err := c.studentService.DeleteStudent(ctx, ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "Student deleted successfully"})
}

// ExportStudents streams the students matching the list parameters as xlsx
// @Summary Export students
// @Tags students
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /students/export [get]
func (c *StudentController) ExportStudents(ctx *gin.Context) {
	var buf bytes.Buffer
	if _, err := c.spreadsheetService.ExportStudents(ctx, query.ParseValues(ctx.Request.URL.Query()), &buf); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	filename := fmt.Sprintf("students-%s.xlsx", time.Now().Format("20060102"))
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ImportStudents creates students from an uploaded xlsx file
// @Summary Import students
// @Tags students
// @Accept multipart/form-data
// @Param file formData file true "xlsx workbook"
// @Success 200 {object} dto.ImportResult
// @Router /students/import [post]
func (c *StudentController) ImportStudents(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("No file uploaded."))
		return
	}
	if fileHeader.Size > MaxImportSize {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("File is too large."))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		middleware.HandleAPIError(ctx, fmt.Errorf("failed to open uploaded file: %w", err))
		return
	}
	defer file.Close()

	result, err := c.spreadsheetService.ImportStudents(ctx, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// UploadPhoto replaces a student's photo
// @Summary Upload a student photo
// @Tags students
// @Accept multipart/form-data
// @Param id path string true "Student ID"
// @Param photo formData file true "Image"
// @Success 200 {object} map[string]interface{} "{ student, message }"
// @Router /students/{id}/photo [post]
func (c *StudentController) UploadPhoto(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("photo")
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("No photo uploaded."))
		return
	}
	if fileHeader.Size > MaxPhotoSize {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("Photo is too large."))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		middleware.HandleAPIError(ctx, fmt.Errorf("failed to open uploaded photo: %w", err))
		return
	}
	defer file.Close()

	student, err := c.photoService.UploadPhoto(ctx, ctx.Param("id"), file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.EntityResponse(query.Students.Singular, student, "Photo updated successfully"))
}
