package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ssis-app/ssis/internal/app/repositories/memory"
	"github.com/ssis-app/ssis/internal/pkg/auth"
	"github.com/ssis-app/ssis/internal/pkg/validation"
)

func TestCatalogueIsValid(t *testing.T) {
	for _, c := range Colleges {
		assert.NoError(t, validation.CheckCollege(c), c.CollegeCode)
	}
	for _, p := range Programs {
		assert.NoError(t, validation.CheckProgram(p), p.ProgramCode)
	}
}

func TestCreateDefaultData_Idempotent(t *testing.T) {
	auth.BcryptCost = bcrypt.MinCost
	ctx := context.Background()
	repos := memory.NewRepositories()
	opts := Options{DemoStudents: 25, RandSeed: 7}

	require.NoError(t, CreateDefaultData(ctx, repos, zerolog.Nop(), opts))
	require.NoError(t, CreateDefaultData(ctx, repos, zerolog.Nop(), opts))

	colleges, _ := repos.Colleges.Count(ctx)
	programs, _ := repos.Programs.Count(ctx)
	students, _ := repos.Students.Count(ctx)
	assert.Equal(t, len(Colleges), colleges)
	assert.Equal(t, len(Programs), programs)
	assert.Equal(t, 25, students)

	admin, err := repos.Users.GetByEmail(ctx, AdminEmail)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(admin.Password, AdminPassword))
}
