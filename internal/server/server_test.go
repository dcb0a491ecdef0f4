package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/client"
	"github.com/ssis-app/ssis/internal/config"
	"github.com/ssis-app/ssis/internal/dropdown"
	"github.com/ssis-app/ssis/internal/invalidate"
	"github.com/ssis-app/ssis/internal/listview"
	"github.com/ssis-app/ssis/internal/pkg/query"
	"github.com/ssis-app/ssis/internal/seed"
	"github.com/ssis-app/ssis/internal/workflow"
)

const demoStudents = 60

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	config.SetDefaults(cfg)
	cfg.Database.Driver = config.DriverMemory
	cfg.Database.DemoStudents = demoStudents
	cfg.JWT.Secret = "test-secret"
	cfg.Server.StoragePath = t.TempDir()

	srv, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.deps.Close()
	})
	return ts
}

func login(t *testing.T, baseURL string) *client.Session {
	t.Helper()
	s, err := client.NewSession(baseURL)
	require.NoError(t, err)
	_, err = s.Login(context.Background(), seed.AdminEmail, seed.AdminPassword)
	require.NoError(t, err)
	return s
}

// settle waits for a snapshot that is loaded and satisfies ok.
func settle[T any](t *testing.T, sub <-chan listview.State[T], ok func(listview.State[T]) bool) listview.State[T] {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-sub:
			if !s.IsLoading && ok(s) {
				return s
			}
		case <-timeout:
			t.Fatal("list never reached the expected state")
			return listview.State[T]{}
		}
	}
}

func loaded[T any](listview.State[T]) bool { return true }

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	anon, err := client.NewSession(ts.URL)
	require.NoError(t, err)
	_, err = anon.Ping(ctx)
	assert.ErrorIs(t, err, client.ErrNotAuthenticated)
	_, err = client.Colleges(anon).List(ctx, query.DefaultParams(query.Colleges))
	assert.True(t, client.IsStatus(err, http.StatusUnauthorized))

	s := login(t, ts.URL)
	user, err := s.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed.AdminEmail, user.User.Email)

	require.NoError(t, s.Logout(ctx))
	_, err = s.Ping(ctx)
	assert.ErrorIs(t, err, client.ErrNotAuthenticated)
}

func TestDropdownEnvelope(t *testing.T) {
	ts := newTestServer(t)
	s := login(t, ts.URL)

	for _, r := range []query.Resource{query.Colleges, query.Programs, query.Students} {
		req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/"+r.Name+"/dropdown", nil)
		require.NoError(t, err)
		for _, c := range s.Cookies() {
			req.AddCookie(c)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)

		var body map[string][]json.RawMessage
		err = json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		require.NoError(t, err, r.Name)
		require.Contains(t, body, r.Name)
		assert.NotEmpty(t, body[r.Name], r.Name)
	}
}

func TestAddCollegeScenario(t *testing.T) {
	ts := newTestServer(t)
	s := login(t, ts.URL)
	ctx := context.Background()

	bus := invalidate.NewBus()
	defer bus.Close()

	colleges := client.Colleges(s)
	list := listview.New[models.College](colleges, query.Colleges, listview.Options{Bus: bus})
	defer list.Close()
	sub := list.Subscribe()
	list.Start()
	before := settle(t, sub, loaded[models.College])
	assert.Equal(t, len(seed.Colleges), before.Total)

	picker := dropdown.New[models.College](colleges)
	picker.Watch(bus, query.Colleges.Name)
	defer picker.Close()
	options, err := picker.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, options, len(seed.Colleges))

	d := workflow.New[models.College](colleges, workflow.CollegeForm, workflow.Options{Bus: bus})
	defer d.Close()
	require.NoError(t, d.OpenCreate(context.Background()))
	require.NoError(t, d.Set(models.College{CollegeCode: "CFA", CollegeName: "College of Fine Arts"}))
	require.NoError(t, d.Submit(ctx))

	state := d.State()
	require.NotNil(t, state.Confirmation)
	assert.Equal(t, workflow.Confirmation{Code: "CFA", Name: "College of Fine Arts", Action: workflow.ActionAdded}, *state.Confirmation)

	require.NoError(t, d.Dismiss())
	res := <-d.Results()
	assert.Equal(t, "CFA", res.Entity.CollegeCode)

	after := settle(t, sub, func(s listview.State[models.College]) bool { return s.Total == before.Total+1 })
	assert.Equal(t, before.Page, after.Page)

	assert.Eventually(t, func() bool {
		items, err := picker.Get(ctx)
		return err == nil && len(items) == len(seed.Colleges)+1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDuplicateKeyRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	s := login(t, ts.URL)

	d := workflow.New[models.Program](client.Programs(s), workflow.ProgramForm, workflow.Options{})
	defer d.Close()
	require.NoError(t, d.OpenCreate(context.Background()))
	entered := models.Program{ProgramCode: "BSCS", ProgramName: "Another CS", CollegeCode: "CCS"}
	require.NoError(t, d.Set(entered))

	var formErr *workflow.FormError
	require.ErrorAs(t, d.Submit(context.Background()), &formErr)

	state := d.State()
	assert.Equal(t, workflow.Editing, state.Phase)
	assert.Equal(t, "Program Code (BSCS) is already taken.", state.Error)
	assert.Equal(t, entered, state.Values)
}

func TestNoOpEditIsRejected(t *testing.T) {
	ts := newTestServer(t)
	s := login(t, ts.URL)

	d := workflow.New[models.College](client.Colleges(s), workflow.CollegeForm, workflow.Options{})
	defer d.Close()
	require.NoError(t, d.OpenEdit(context.Background(), "CCS"))

	var formErr *workflow.FormError
	require.ErrorAs(t, d.Submit(context.Background()), &formErr)
	assert.Equal(t, workflow.MsgNoChanges, formErr.Message)
}

func TestStudentIDFormat(t *testing.T) {
	ts := newTestServer(t)
	s := login(t, ts.URL)
	ctx := context.Background()

	bad := models.Student{
		StudentID: "2023001", FirstName: "Ana", LastName: "Cruz",
		ProgramCode: "BSCS", YearLevel: 2, Gender: models.GenderFemale,
	}
	_, err := client.Students(s).Create(ctx, bad)
	assert.True(t, client.IsStatus(err, http.StatusBadRequest))

	good := bad
	good.StudentID = "2099-0001"
	created, err := client.Students(s).Create(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, "2099-0001", created.StudentID)
	assert.Equal(t, models.DefaultPhotoURL, created.PhotoURL)
}

func TestFilterComposition(t *testing.T) {
	ts := newTestServer(t)
	s := login(t, ts.URL)
	ctx := context.Background()
	students := client.Students(s)

	all := query.DefaultParams(query.Students)
	all.PerPage = query.MaxPerPage
	everyone, err := students.List(ctx, all)
	require.NoError(t, err)
	require.Equal(t, demoStudents, everyone.Total)

	filters := query.Filters{
		ProgramCode: []string{"BSCS", "BSIT", "BSN"},
		Gender:      []string{models.GenderFemale},
		YearLevel:   []int{1, 2},
	}
	want := 0
	for _, st := range everyone.Items {
		if filters.Match(st.ProgramCode, st.Gender, st.YearLevel) {
			want++
		}
	}

	p := all
	p.Filters = filters
	page, err := students.List(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, want, page.Total)
	for _, st := range page.Items {
		assert.True(t, filters.Match(st.ProgramCode, st.Gender, st.YearLevel), st.StudentID)
	}
}

func TestSortAndPaginationBounds(t *testing.T) {
	ts := newTestServer(t)
	s := login(t, ts.URL)
	ctx := context.Background()
	programs := client.Programs(s)

	p := query.DefaultParams(query.Programs)
	p.Order = query.Desc
	page, err := programs.List(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, len(seed.Programs), page.Total)
	assert.Equal(t, query.Pages(len(seed.Programs), query.Programs.PerPage), page.Pages)

	codes := make([]string, 0, len(page.Items))
	for _, prog := range page.Items {
		codes = append(codes, prog.ProgramCode)
	}
	assert.True(t, sort.SliceIsSorted(codes, func(i, j int) bool {
		return strings.ToLower(codes[i]) > strings.ToLower(codes[j])
	}), codes)

	p.Page = page.Pages + 5
	beyond, err := programs.List(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, len(seed.Programs), beyond.Total)
}

func TestStatistics(t *testing.T) {
	ts := newTestServer(t)
	s := login(t, ts.URL)
	ctx := context.Background()

	total, err := client.Students(s).Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, demoStudents, total)

	byGender, err := s.CountByGender(ctx)
	require.NoError(t, err)
	sum := 0
	for _, g := range byGender {
		sum += g.Count
	}
	assert.Equal(t, demoStudents, sum)
}
