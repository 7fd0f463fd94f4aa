package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type state string
type event string

const (
	stateA state = "a"
	stateB state = "b"
)

const (
	eventGo   event = "go"
	eventBack event = "back"
)

func TestMachineFireHappyPath(t *testing.T) {
	table := NewTable([]Transition[state, event]{
		{From: stateA, Event: eventGo, To: stateB},
		{From: stateB, Event: eventBack, To: stateA},
	})
	m := NewMachine(table, stateA)

	next, err := m.Fire(eventGo)
	require.NoError(t, err)
	require.Equal(t, stateB, next)
	require.Equal(t, stateB, m.State())

	next, err = m.Fire(eventBack)
	require.NoError(t, err)
	require.Equal(t, stateA, next)
}

func TestMachineFireInvalidTransitionLeavesStateUnchanged(t *testing.T) {
	table := NewTable([]Transition[state, event]{
		{From: stateA, Event: eventGo, To: stateB},
	})
	m := NewMachine(table, stateA)

	_, err := m.Fire(eventBack)
	require.Error(t, err)
	require.Equal(t, stateA, m.State())

	var invalid ErrInvalidTransition[state, event]
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, stateA, invalid.From)
	require.Equal(t, eventBack, invalid.Event)
}

func TestMachineReset(t *testing.T) {
	table := NewTable([]Transition[state, event]{{From: stateA, Event: eventGo, To: stateB}})
	m := NewMachine(table, stateA)
	_, _ = m.Fire(eventGo)
	m.Reset(stateA)
	require.Equal(t, stateA, m.State())
}
