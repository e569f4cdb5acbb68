package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildBoard_GroupsByStatus(t *testing.T) {
	tasks := []Task{
		{ID: "1", ProjectID: "P1", Status: StatusTodo},
		{ID: "2", ProjectID: "P1", Status: StatusDone},
		{ID: "3", ProjectID: "P1", Status: StatusTodo},
		{ID: "4", ProjectID: "P1", Status: StatusInProgress},
	}

	b := BuildBoard("P1", tasks)

	assert.Len(t, b.Columns, 3)
	assert.Equal(t, []string{"1", "3"}, ids(b.Column(StatusTodo)))
	assert.Equal(t, []string{"4"}, ids(b.Column(StatusInProgress)))
	assert.Equal(t, []string{"2"}, ids(b.Column(StatusDone)))
	assert.Equal(t, 4, b.Count())
}

func TestBuildBoard_ExcludesUnknownStatusAndOtherProjects(t *testing.T) {
	tasks := []Task{
		{ID: "1", ProjectID: "P1", Status: "Blocked"},
		{ID: "2", ProjectID: "P1", Status: ""},
		{ID: "3", ProjectID: "P2", Status: StatusTodo},
		{ID: "4", ProjectID: "P1", Status: StatusTodo},
	}

	b := BuildBoard("P1", tasks)

	assert.Equal(t, 1, b.Count(), "only the known-status task of P1 is placed, exactly once")
	assert.Equal(t, []string{"4"}, ids(b.Column(StatusTodo)))
	for _, col := range b.Columns {
		for _, task := range col.Tasks {
			assert.True(t, task.Status.IsValid())
		}
	}
}

func TestBuildBoard_EmptyColumnsAreNotNil(t *testing.T) {
	b := BuildBoard("P1", nil)

	for _, col := range b.Columns {
		assert.NotNil(t, col.Tasks)
		assert.Empty(t, col.Tasks)
	}
	assert.Nil(t, b.Column("Blocked"))
}

func ids(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}
