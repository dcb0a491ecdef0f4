package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	appModels "github.com/ssis-app/ssis/internal/app/models"
	appRepos "github.com/ssis-app/ssis/internal/app/repositories"
	"github.com/ssis-app/ssis/internal/pkg/apperrors"
	"github.com/ssis-app/ssis/internal/pkg/auth"
)

// Default admin account
const (
	AdminUsername = "admin"
	AdminEmail    = "admin@ssis.local"
	AdminPassword = "Admin123!"
)

// Colleges is the default college catalogue.
var Colleges = []appModels.College{
	{CollegeCode: "CCS", CollegeName: "College of Computer Studies"},
	{CollegeCode: "CBA", CollegeName: "College of Business Administration"},
	{CollegeCode: "COE", CollegeName: "College of Engineering"},
	{CollegeCode: "CAS", CollegeName: "College of Arts and Sciences"},
	{CollegeCode: "CON", CollegeName: "College of Nursing"},
	{CollegeCode: "CED", CollegeName: "College of Education"},
	{CollegeCode: "COT", CollegeName: "College of Technology"},
}

// Programs is the default program catalogue.
var Programs = []appModels.Program{
	{ProgramCode: "BSCS", ProgramName: "Bachelor of Science in Computer Science", CollegeCode: "CCS"},
	{ProgramCode: "BSIT", ProgramName: "Bachelor of Science in Information Technology", CollegeCode: "CCS"},
	{ProgramCode: "BSBA", ProgramName: "Bachelor of Science in Business Administration", CollegeCode: "CBA"},
	{ProgramCode: "BSA", ProgramName: "Bachelor of Science in Accountancy", CollegeCode: "CBA"},
	{ProgramCode: "BSEE", ProgramName: "Bachelor of Science in Electrical Engineering", CollegeCode: "COE"},
	{ProgramCode: "BSME", ProgramName: "Bachelor of Science in Mechanical Engineering", CollegeCode: "COE"},
	{ProgramCode: "BSCE", ProgramName: "Bachelor of Science in Civil Engineering", CollegeCode: "COE"},
	{ProgramCode: "BSBIO", ProgramName: "Bachelor of Science in Biology", CollegeCode: "CAS"},
	{ProgramCode: "BSCHEM", ProgramName: "Bachelor of Science in Chemistry", CollegeCode: "CAS"},
	{ProgramCode: "BSN", ProgramName: "Bachelor of Science in Nursing", CollegeCode: "CON"},
	{ProgramCode: "BSED", ProgramName: "Bachelor of Secondary Education", CollegeCode: "CED"},
	{ProgramCode: "BEED", ProgramName: "Bachelor of Elementary Education", CollegeCode: "CED"},
	{ProgramCode: "BSECE", ProgramName: "Bachelor of Science in Electronics Engineering", CollegeCode: "COE"},
	{ProgramCode: "BSARCH", ProgramName: "Bachelor of Science in Architecture", CollegeCode: "COE"},
	{ProgramCode: "BSTM", ProgramName: "Bachelor of Science in Tourism Management", CollegeCode: "CBA"},
	{ProgramCode: "BSPsych", ProgramName: "Bachelor of Science in Psychology", CollegeCode: "CAS"},
	{ProgramCode: "BSPolSci", ProgramName: "Bachelor of Arts in Political Science", CollegeCode: "CAS"},
	{ProgramCode: "BSPubAd", ProgramName: "Bachelor of Public Administration", CollegeCode: "CBA"},
	{ProgramCode: "BSCrim", ProgramName: "Bachelor of Science in Criminology", CollegeCode: "CAS"},
	{ProgramCode: "BSMath", ProgramName: "Bachelor of Science in Mathematics", CollegeCode: "CAS"},
	{ProgramCode: "BSCpE", ProgramName: "Bachelor of Science in Computer Engineering", CollegeCode: "COE"},
	{ProgramCode: "BSStat", ProgramName: "Bachelor of Science in Statistics", CollegeCode: "CAS"},
	{ProgramCode: "BSAgri", ProgramName: "Bachelor of Science in Agriculture", CollegeCode: "CAS"},
	{ProgramCode: "BSForestry", ProgramName: "Bachelor of Science in Forestry", CollegeCode: "CAS"},
	{ProgramCode: "BSMarE", ProgramName: "Bachelor of Science in Marine Engineering", CollegeCode: "COE"},
	{ProgramCode: "BSMarBio", ProgramName: "Bachelor of Science in Marine Biology", CollegeCode: "CAS"},
	{ProgramCode: "BSPharma", ProgramName: "Bachelor of Science in Pharmacy", CollegeCode: "CON"},
	{ProgramCode: "BSRadTech", ProgramName: "Bachelor of Science in Radiologic Technology", CollegeCode: "CON"},
	{ProgramCode: "BSMedTech", ProgramName: "Bachelor of Science in Medical Technology", CollegeCode: "CON"},
}

var (
	firstNames = []string{"Juan", "Maria", "Jose", "Ana", "Miguel", "Sofia", "Carlo", "Bea", "Paolo", "Liza", "Ramon", "Grace"}
	lastNames  = []string{"Dela Cruz", "Santos", "Reyes", "Garcia", "Mendoza", "Torres", "Flores", "Ramos", "Castillo", "Villanueva"}
)

// Options controls what CreateDefaultData inserts.
type Options struct {
	// DemoStudents is the number of generated students; zero inserts none.
	DemoStudents int
	// RandSeed makes generated students reproducible.
	RandSeed int64
}

// CreateDefaultData creates the default colleges, programs and admin user if
// they don't exist, then optionally generates demo students. Existing rows are
// left untouched, so running it on every start is safe.
func CreateDefaultData(ctx context.Context, repos *appRepos.Repositories, lgr zerolog.Logger, opts Options) error {
	lgr.Info().Msg("Checking/Creating default data (Colleges/Programs)...")
	var finalErr error // To collect potential errors without stopping the process

	for _, c := range Colleges {
		if err := repos.Colleges.Create(ctx, c); err != nil && !errors.Is(err, apperrors.ErrConflict) {
			lgr.Error().Err(err).Str("collegeCode", c.CollegeCode).Msg("Error creating college")
			finalErr = errors.Join(finalErr, err)
		}
	}

	for _, p := range Programs {
		if err := repos.Programs.Create(ctx, p); err != nil && !errors.Is(err, apperrors.ErrConflict) {
			lgr.Error().Err(err).Str("programCode", p.ProgramCode).Msg("Error creating program")
			finalErr = errors.Join(finalErr, err)
		}
	}

	// --- Create Default Admin User --- //
	exists, err := repos.Users.Exists(ctx, AdminEmail, AdminUsername)
	if err != nil {
		lgr.Error().Err(err).Msg("Error checking if admin user exists")
		finalErr = errors.Join(finalErr, err)
	} else if !exists {
		lgr.Info().Msg("Creating default admin user...")
		hashed, err := auth.HashPassword(AdminPassword)
		if err != nil {
			finalErr = errors.Join(finalErr, fmt.Errorf("hash admin password: %w", err))
		} else if _, err := repos.Users.Create(ctx, &appModels.User{
			Username: AdminUsername,
			Email:    AdminEmail,
			Password: hashed,
		}); err != nil && !errors.Is(err, apperrors.ErrConflict) {
			lgr.Error().Err(err).Msg("Error creating admin user")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if opts.DemoStudents > 0 {
		if err := createDemoStudents(ctx, repos, lgr, opts); err != nil {
			finalErr = errors.Join(finalErr, err)
		}
	}

	if finalErr == nil {
		lgr.Info().Msg("Default data is in place.")
	}
	return finalErr
}

func createDemoStudents(ctx context.Context, repos *appRepos.Repositories, lgr zerolog.Logger, opts Options) error {
	total, err := repos.Students.Count(ctx)
	if err != nil {
		return err
	}
	if total > 0 {
		lgr.Info().Int("students", total).Msg("Students already present, skipping demo data")
		return nil
	}

	rng := rand.New(rand.NewSource(opts.RandSeed))
	used := map[string]bool{}
	created := 0
	for created < opts.DemoStudents {
		id := fmt.Sprintf("%d-%04d", 2018+rng.Intn(8), 1000+rng.Intn(9000))
		if used[id] {
			continue
		}
		used[id] = true

		gender := appModels.GenderMale
		if rng.Intn(2) == 1 {
			gender = appModels.GenderFemale
		}
		st := appModels.Student{
			StudentID:   id,
			FirstName:   firstNames[rng.Intn(len(firstNames))],
			LastName:    lastNames[rng.Intn(len(lastNames))],
			ProgramCode: Programs[rng.Intn(len(Programs))].ProgramCode,
			YearLevel:   1 + rng.Intn(5),
			Gender:      gender,
		}
		if err := repos.Students.Create(ctx, st); err != nil {
			return fmt.Errorf("create demo student %s: %w", id, err)
		}
		created++
	}
	lgr.Info().Int("students", created).Msg("Demo students created")
	return nil
}
