package invalidate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssis-app/ssis/internal/pkg/query"
)

func TestBus_DeliversToResourceAndDependents(t *testing.T) {
	b := NewBus()
	colleges, stopColleges := b.Subscribe(query.Colleges.Name)
	programs, stopPrograms := b.Subscribe(query.Programs.Name)
	students, stopStudents := b.Subscribe(query.Students.Name)
	defer stopColleges()
	defer stopPrograms()
	defer stopStudents()

	b.Publish(query.Colleges.Name)

	require.Len(t, colleges, 1)
	assert.Equal(t, Signal{Resource: "colleges", Origin: "colleges"}, <-colleges)
	require.Len(t, programs, 1)
	assert.Equal(t, Signal{Resource: "programs", Origin: "colleges"}, <-programs)
	assert.Len(t, students, 0, "dependents are not transitive")
}

func TestBus_Coalesces(t *testing.T) {
	b := NewBus()
	ch, stop := b.Subscribe(query.Students.Name)
	defer stop()

	b.Publish(query.Students.Name)
	b.Publish(query.Students.Name)
	b.Publish(query.Programs.Name)

	assert.Len(t, ch, 1)
}

func TestBus_UnsubscribeAndClose(t *testing.T) {
	b := NewBus()
	ch, stop := b.Subscribe(query.Programs.Name)
	stop()
	stop()

	_, open := <-ch
	assert.False(t, open)

	other, _ := b.Subscribe(query.Colleges.Name)
	b.Close()
	_, open = <-other
	assert.False(t, open)

	b.Publish(query.Colleges.Name)
	late, _ := b.Subscribe(query.Colleges.Name)
	_, open = <-late
	assert.False(t, open)
}
