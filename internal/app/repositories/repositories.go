package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

// CollegeRepository defines college persistence
type CollegeRepository interface {
	// List returns one page of colleges and the size of the searched set
	List(ctx context.Context, p query.Params) ([]models.College, int, error)
	// All returns every college ordered by code, for pickers
	All(ctx context.Context) ([]models.College, error)
	GetByCode(ctx context.Context, code string) (*models.College, error)
	// CodeTaken reports whether code is used by a college other than except,
	// comparing case-insensitively
	CodeTaken(ctx context.Context, code, except string) (bool, error)
	Create(ctx context.Context, college models.College) error
	Update(ctx context.Context, originalCode string, college models.College) error
	Delete(ctx context.Context, code string) error
	Count(ctx context.Context) (int, error)
}

// ProgramRepository defines program persistence
type ProgramRepository interface {
	List(ctx context.Context, p query.Params) ([]models.Program, int, error)
	All(ctx context.Context) ([]models.Program, error)
	GetByCode(ctx context.Context, code string) (*models.Program, error)
	CodeTaken(ctx context.Context, code, except string) (bool, error)
	Create(ctx context.Context, program models.Program) error
	Update(ctx context.Context, originalCode string, program models.Program) error
	Delete(ctx context.Context, code string) error
	Count(ctx context.Context) (int, error)
}

// StudentRepository defines student persistence
type StudentRepository interface {
	List(ctx context.Context, p query.Params) ([]models.Student, int, error)
	// ListAll applies search, filters and sort but no pagination
	ListAll(ctx context.Context, p query.Params) ([]models.Student, error)
	All(ctx context.Context) ([]models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	IDTaken(ctx context.Context, id, except string) (bool, error)
	Create(ctx context.Context, student models.Student) error
	Update(ctx context.Context, originalID string, student models.Student) error
	UpdatePhoto(ctx context.Context, id, photoURL string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountByProgram(ctx context.Context) ([]models.ProgramCount, error)
	CountByGender(ctx context.Context) ([]models.GenderCount, error)
	ListByProgram(ctx context.Context, programCode string) ([]models.Student, error)
}

// UserRepository defines dashboard account persistence
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Exists reports whether the email or the username is already registered
	Exists(ctx context.Context, email, username string) (bool, error)
}

// Repositories holds all the repository instances
type Repositories struct {
	Colleges CollegeRepository
	Programs ProgramRepository
	Students StudentRepository
	Users    UserRepository
}

// NewRepositories initializes the PostgreSQL repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		Colleges: NewPgCollegeRepository(db),
		Programs: NewPgProgramRepository(db),
		Students: NewPgStudentRepository(db),
		Users:    NewPgUserRepository(db),
	}
}
