// Package memory is an in-process implementation of the repositories. It
// keeps the relational rules of the SQL schema (case-insensitive unique codes,
// cascading code renames, restricted and nulling deletes) so services behave
// the same against either backend.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/ssis-app/ssis/internal/app/models"
	"github.com/ssis-app/ssis/internal/app/repositories"
)

// Store holds every table behind one lock.
type Store struct {
	mu       sync.RWMutex
	colleges map[string]models.College
	programs map[string]models.Program
	students map[string]models.Student
	users    []models.User
	nextUser int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		colleges: map[string]models.College{},
		programs: map[string]models.Program{},
		students: map[string]models.Student{},
		nextUser: 1,
	}
}

// NewRepositories returns repositories backed by a fresh store.
func NewRepositories() *repositories.Repositories {
	return NewStore().Repositories()
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Colleges: &CollegeRepository{s: s},
		Programs: &ProgramRepository{s: s},
		Students: &StudentRepository{s: s},
		Users:    &UserRepository{s: s},
	}
}

func takenFold[T any](rows map[string]T, code, except string) bool {
	for k := range rows {
		if k != except && strings.EqualFold(k, code) {
			return true
		}
	}
	return false
}

func sortedValues[T any](rows map[string]T) []T {
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, rows[k])
	}
	return out
}
