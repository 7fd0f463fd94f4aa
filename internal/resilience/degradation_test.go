package resilience

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDegradeAppliesStrategiesInOrder(t *testing.T) {
	var applied []string
	strategies := []Strategy{
		{Name: "lower_precision", Apply: func() { applied = append(applied, "lower_precision") }},
		{Name: "disable_drafts", Apply: func() { applied = append(applied, "disable_drafts") }},
	}
	d := NewGracefulDegradation(strategies, nil)

	require.True(t, d.Degrade())
	require.Equal(t, 1, d.Level())
	require.True(t, d.Degrade())
	require.Equal(t, 2, d.Level())
	require.False(t, d.Degrade(), "no more strategies left")
	require.Equal(t, []string{"lower_precision", "disable_drafts"}, applied)
}

func TestRestoreUndoesMostRecentLevel(t *testing.T) {
	var undone []string
	strategies := []Strategy{
		{Name: "a", Undo: func() { undone = append(undone, "a") }},
		{Name: "b", Undo: func() { undone = append(undone, "b") }},
	}
	d := NewGracefulDegradation(strategies, nil)
	d.Degrade()
	d.Degrade()

	require.True(t, d.Restore())
	require.Equal(t, 1, d.Level())
	require.True(t, d.Restore())
	require.Equal(t, 0, d.Level())
	require.False(t, d.Restore(), "already at nominal")
	require.Equal(t, []string{"b", "a"}, undone)
}
