package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportSessionTransitions(t *testing.T) {
	t.Run("Happy path", func(t *testing.T) {
		s := NewImportSession("urunler.csv", FileTypeCSV, 120)
		assert.Equal(t, StateIdle, s.State())

		require.NoError(t, s.Transition(StateHeadersRead))
		require.NoError(t, s.Transition(StateMappingConfirmed))
		require.NoError(t, s.Transition(StateMappingConfirmed))
		require.NoError(t, s.Transition(StateProcessing))
		require.NoError(t, s.Transition(StateCompleted))

		snap := s.Snapshot()
		assert.Equal(t, StateCompleted, snap.State)
		assert.NotNil(t, snap.CompletedAt)
		assert.Equal(t, "urunler.csv", snap.FileName)
	})

	t.Run("Processing requires confirmed mapping", func(t *testing.T) {
		s := NewImportSession("a.csv", FileTypeCSV, 1)
		require.NoError(t, s.Transition(StateHeadersRead))

		err := s.Transition(StateProcessing)

		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, StateHeadersRead, invalid.From)
		assert.Equal(t, StateHeadersRead, s.State())
	})

	t.Run("Terminal states are final", func(t *testing.T) {
		for _, terminal := range []ImportState{StateCompleted, StateCanceled, StateFailed} {
			assert.True(t, terminal.IsTerminal())
			assert.False(t, terminal.CanTransitionTo(StateProcessing))
			assert.False(t, terminal.CanTransitionTo(StateCanceled))
		}
		assert.False(t, StateProcessing.IsTerminal())
	})

	t.Run("Cancel from any live state", func(t *testing.T) {
		for _, from := range []ImportState{StateIdle, StateHeadersRead, StateMappingConfirmed, StateProcessing} {
			assert.True(t, from.CanTransitionTo(StateCanceled), from)
		}
	})

	t.Run("Counts", func(t *testing.T) {
		s := NewImportSession("a.xlsx", FileTypeXLSX, 1)
		s.SetCounts(3, 2, 1)

		snap := s.Snapshot()
		assert.Equal(t, 3, snap.TotalRows)
		assert.Equal(t, 2, snap.ValidRows)
		assert.Equal(t, 1, snap.ErrorRows)
		assert.Nil(t, snap.CompletedAt)
	})
}
