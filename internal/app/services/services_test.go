package services

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/app/models/dto"
	"github.com/ssis-app/ssis/internal/app/repositories"
	"github.com/ssis-app/ssis/internal/app/repositories/memory"
	"github.com/ssis-app/ssis/internal/events"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/auth"
	"github.com/ssis-app/ssis/internal/pkg/filestorage"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	invalidated []string
	gets        int
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, resource string, dst interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	data, ok := c.entries[resource]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dst)
}

func (c *fakeCache) Set(_ context.Context, resource string, v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := json.Marshal(v)
	c.entries[resource] = data
	return err
}

func (c *fakeCache) Invalidate(_ context.Context, resources ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range resources {
		delete(c.entries, r)
		c.invalidated = append(c.invalidated, r)
	}
	return nil
}

func (c *fakeCache) Close() error { return nil }

type fakePublisher struct {
	events []events.Event
}

func (p *fakePublisher) Publish(_ context.Context, e events.Event) error {
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fixture struct {
	repos    *repositories.Repositories
	cache    *fakeCache
	events   *fakePublisher
	colleges CollegeService
	programs ProgramService
	students StudentService
}

var lists = ListConfig{CollegesPerPage: 15, ProgramsPerPage: 15, StudentsPerPage: 10, MaxPerPage: 100}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{repos: memory.NewRepositories(), cache: newFakeCache(), events: &fakePublisher{}}
	log := zerolog.Nop()
	f.colleges = NewCollegeService(f.repos.Colleges, lists, f.cache, f.events, log)
	f.programs = NewProgramService(f.repos.Programs, f.repos.Colleges, lists, f.cache, f.events, log)
	f.students = NewStudentService(f.repos.Students, f.repos.Programs, lists, f.cache, f.events, log)

	ctx := context.Background()
	_, err := f.colleges.CreateCollege(ctx, models.College{CollegeCode: "CCS", CollegeName: "College of Computer Studies"})
	require.NoError(t, err)
	_, err = f.programs.CreateProgram(ctx, models.Program{ProgramCode: "BSCS", ProgramName: "Computer Science", CollegeCode: "CCS"})
	require.NoError(t, err)
	f.cache.invalidated = nil
	f.events.events = nil
	return f
}

func student(id string) models.Student {
	return models.Student{StudentID: id, FirstName: "Ana", LastName: "Cruz", ProgramCode: "BSCS", YearLevel: 1, Gender: "Female"}
}

func TestCollegeService_CreateTrimsAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.colleges.CreateCollege(ctx, models.College{CollegeCode: "  COE ", CollegeName: " Engineering "})
	require.NoError(t, err)
	assert.Equal(t, models.College{CollegeCode: "COE", CollegeName: "Engineering"}, *c)

	_, err = f.colleges.CreateCollege(ctx, models.College{CollegeCode: "coe", CollegeName: "Other"})
	assert.Equal(t, apperrors.ErrCollegeCodeExists, err)
	assert.EqualError(t, err, "College code already exists")

	_, err = f.colleges.CreateCollege(ctx, models.College{CollegeCode: "   ", CollegeName: "X"})
	assert.Equal(t, apperrors.ErrMissingFields, err)

	assert.Equal(t, []string{"colleges", "programs"}, f.cache.invalidated)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.ActionCreated, f.events.events[0].Action)
}

func TestCollegeService_UpdateRenamesAndCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.colleges.UpdateCollege(ctx, "CCS", models.College{CollegeCode: "CICS", CollegeName: "Computing"})
	require.NoError(t, err)
	assert.Equal(t, "CICS", c.CollegeCode)

	p, err := f.programs.GetProgram(ctx, "BSCS")
	require.NoError(t, err)
	assert.Equal(t, "CICS", p.CollegeCode)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, "CCS", f.events.events[0].PreviousKey)

	_, err = f.colleges.UpdateCollege(ctx, "NOPE", models.College{CollegeCode: "X", CollegeName: "Y"})
	assert.Equal(t, apperrors.ErrCollegeNotFound, err)
}

func TestCollegeService_UpdateSameCodeIsNotAConflict(t *testing.T) {
	f := newFixture(t)
	c, err := f.colleges.UpdateCollege(context.Background(), "CCS", models.College{CollegeCode: "CCS", CollegeName: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", c.CollegeName)
	assert.Empty(t, f.events.events[0].PreviousKey)
}

func TestCollegeService_DeleteWithPrograms(t *testing.T) {
	f := newFixture(t)
	err := f.colleges.DeleteCollege(context.Background(), "CCS")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Empty(t, f.events.events)
}

func TestCollegeService_ListNormalizes(t *testing.T) {
	f := newFixture(t)
	page, err := f.colleges.ListColleges(context.Background(), query.Params{Page: 9, PerPage: 1000, SortBy: "bogus", Order: "sideways"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Pages)
	assert.Equal(t, 9, page.CurrentPage)
	assert.Empty(t, page.Items)
}

func TestDropdownIsCachedUntilMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.programs.GetDropdown(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Contains(t, f.cache.entries, "programs")

	_, err = f.colleges.UpdateCollege(ctx, "CCS", models.College{CollegeCode: "CICS", CollegeName: "Computing"})
	require.NoError(t, err)
	assert.NotContains(t, f.cache.entries, "programs", "college rename invalidates the programs dropdown")

	again, err := f.programs.GetDropdown(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CICS", again[0].CollegeCode)
}

func TestProgramService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.programs.CreateProgram(ctx, models.Program{ProgramCode: "BSIT", ProgramName: "IT", CollegeCode: "NOPE"})
	assert.Equal(t, apperrors.ErrUnknownCollege, err)

	_, err = f.programs.CreateProgram(ctx, models.Program{ProgramCode: "bscs", ProgramName: "Dup", CollegeCode: "CCS"})
	assert.EqualError(t, err, "Program code already exists")

	_, err = f.programs.CreateProgram(ctx, models.Program{ProgramCode: "BSVERYLONGCODE", ProgramName: "Long", CollegeCode: "CCS"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestProgramService_DeleteKeepsStudents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.students.CreateStudent(ctx, student("2024-0001"))
	require.NoError(t, err)

	require.NoError(t, f.programs.DeleteProgram(ctx, "BSCS"))
	st, err := f.students.GetStudent(ctx, "2024-0001")
	require.NoError(t, err)
	assert.Equal(t, models.NoProgram, st.ProgramCode)

	orphans, err := f.students.ListByProgram(ctx, models.NoProgram)
	require.NoError(t, err)
	assert.Len(t, orphans, 1)
}

func TestStudentService_StudentWithoutProgram(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.students.CreateStudent(ctx, student("2024-0001"))
	require.NoError(t, err)
	require.NoError(t, f.programs.DeleteProgram(ctx, "BSCS"))

	p := query.DefaultParams(query.Students)
	p.Filters = query.Filters{ProgramCode: []string{models.NoProgram}}
	page, err := f.students.ListStudents(ctx, p)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	edited := page.Items[0]
	edited.FirstName = "Renamed"
	st, err := f.students.UpdateStudent(ctx, "2024-0001", edited)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", st.FirstName)
	assert.Equal(t, models.NoProgram, st.ProgramCode)

	fresh := student("2024-0002")
	fresh.ProgramCode = models.NoProgram
	_, err = f.students.CreateStudent(ctx, fresh)
	assert.Equal(t, apperrors.ErrUnknownProgram, err)
}

func TestStudentService_CreateAndDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	st, err := f.students.CreateStudent(ctx, models.Student{
		StudentID: " 2024-0001 ", FirstName: "Ana", LastName: "Cruz", ProgramCode: "BSCS", YearLevel: 2, Gender: "female",
		PhotoURL: "/uploads/forged.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-0001", st.StudentID)
	assert.Equal(t, "Female", st.Gender)
	assert.Equal(t, models.DefaultPhotoURL, st.PhotoURL)
	assert.Equal(t, []string{"students"}, f.cache.invalidated)

	_, err = f.students.CreateStudent(ctx, student("2024-0001"))
	assert.EqualError(t, err, "Student ID already exists")
}

func TestStudentService_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.Student)
		want   string
	}{
		{"bad id", func(s *models.Student) { s.StudentID = "20240001" }, apperrors.ErrInvalidStudentID.Message},
		{"year", func(s *models.Student) { s.YearLevel = 6 }, "Year level must be between 1 and 5."},
		{"gender", func(s *models.Student) { s.Gender = "Other" }, "Gender must be Male or Female."},
		{"missing", func(s *models.Student) { s.FirstName = " " }, apperrors.MsgMissingFields},
		{"program", func(s *models.Student) { s.ProgramCode = "NOPE" }, "Program does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := student("2024-0100")
			tt.mutate(&st)
			_, err := f.students.CreateStudent(ctx, st)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestStudentService_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i, g := range []string{"Male", "Female", "Female"} {
		st := student("2024-000" + string(rune('1'+i)))
		st.Gender = g
		_, err := f.students.CreateStudent(ctx, st)
		require.NoError(t, err)
	}

	n, err := f.students.CountStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	genders, err := f.students.CountByGender(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.GenderCount{{Gender: "Female", Count: 2}, {Gender: "Male", Count: 1}}, genders)

	programs, err := f.students.CountByProgram(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.ProgramCount{{ProgramCode: "BSCS", Count: 3}}, programs)
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	auth.BcryptCost = bcrypt.MinCost
	repos := memory.NewRepositories()
	jwtSvc := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", AccessTokenExp: time.Hour, TokenIssuer: "test"})
	svc := NewAuthService(repos.Users, jwtSvc, zerolog.Nop())
	ctx := context.Background()

	user, err := svc.Signup(ctx, &dto.SignupRequest{Username: "registrar", Email: "reg@school.edu", Password: "secret1"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	_, err = svc.Signup(ctx, &dto.SignupRequest{Username: "Registrar", Email: "other@school.edu", Password: "secret1"})
	assert.EqualError(t, err, apperrors.MsgUserExists)

	_, err = svc.Signup(ctx, &dto.SignupRequest{Username: "x", Email: "x@school.edu", Password: "123"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "nobody@school.edu", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	assert.EqualError(t, err, apperrors.MsgEmailNotRegistered)

	_, err = svc.Login(ctx, &dto.LoginRequest{Email: "reg@school.edu", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	session, err := svc.Login(ctx, &dto.LoginRequest{Email: "REG@school.edu", Password: "secret1"})
	require.NoError(t, err)
	claims, err := jwtSvc.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	me, err := svc.CurrentUser(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, "registrar", me.Username)
}

func TestSpreadsheetService_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"2024-0002", "2024-0001"} {
		_, err := f.students.CreateStudent(ctx, student(id))
		require.NoError(t, err)
	}
	svc := NewSpreadsheetService(f.students, zerolog.Nop())

	var buf bytes.Buffer
	n, err := svc.ExportStudents(ctx, query.DefaultParams(query.Students), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	wb, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	rows, err := wb.GetRows("Students")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, StudentColumns, rows[0])
	assert.Equal(t, "2024-0001", rows[1][0])

	// re-importing the export skips every row as a duplicate
	result, err := svc.ImportStudents(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, "Row 2: Student ID already exists", result.Errors[0])
}

func TestSpreadsheetService_Import(t *testing.T) {
	f := newFixture(t)
	svc := NewSpreadsheetService(f.students, zerolog.Nop())

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	for i, row := range [][]interface{}{
		{"Student ID", "First Name", "Last Name", "Program Code", "Year Level", "Gender"},
		{"2024-0101", "Ben", "Diaz", "BSCS", 3, "Male"},
		{},
		{"bad", "Cara", "Ely", "BSCS", 1, "Female"},
		{"2024-0102", "Dan", "Fox", "BSCS", "two", "Male"},
	} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	result, err := svc.ImportStudents(context.Background(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, result.Errors, 2)

	_, err = svc.ImportStudents(context.Background(), bytes.NewReader([]byte("not a workbook")))
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestPhotoService_Upload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.students.CreateStudent(ctx, student("2024-0001"))
	require.NoError(t, err)

	storage, err := filestorage.NewLocalStorage(t.TempDir(), "/uploads")
	require.NoError(t, err)
	svc := NewPhotoService(f.students, storage, zerolog.Nop())

	src := imaging.New(640, 480, color.NRGBA{R: 200, A: 255})
	var png bytes.Buffer
	require.NoError(t, imaging.Encode(&png, src, imaging.PNG))

	st, err := svc.UploadPhoto(ctx, "2024-0001", &png)
	require.NoError(t, err)
	assert.Contains(t, st.PhotoURL, "/uploads/photos/")

	file, err := os.Open(storage.GetFullPath(st.PhotoURL))
	require.NoError(t, err)
	defer file.Close()
	cfg, _, err := image.DecodeConfig(file)
	require.NoError(t, err)
	assert.Equal(t, PhotoSize, cfg.Width)
	assert.Equal(t, PhotoSize, cfg.Height)

	_, err = svc.UploadPhoto(ctx, "2024-0001", bytes.NewReader([]byte("text")))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.UploadPhoto(ctx, "2024-9999", &png)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}
