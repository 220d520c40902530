package ledger

import (
	"github.com/qubic/go-tx-engine/entities"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"testing"
)

func TestLogObserver_Skipped(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reducer := NewReducer(NewMemoryIndex(), NewLogObserver(zap.New(core).Sugar()))

	require.NoError(t, reducer.Apply(entities.NewDeposit(1, 1, amount("1"))))
	require.NoError(t, reducer.Apply(entities.NewWithdrawal(1, 2, amount("2"))))

	// debug entries for the deposit are filtered by level
	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "Skipped record", entries[0].Message)
	fields := entries[0].ContextMap()
	require.EqualValues(t, "insufficient_funds", fields["reason"])
	require.EqualValues(t, 2, fields["tx"])
}

func TestObservers_FanOut(t *testing.T) {
	first := &RecordingObserver{}
	second := &RecordingObserver{}
	reducer := NewReducer(NewMemoryIndex(), Observers{first, second, NopObserver{}})

	require.NoError(t, reducer.Apply(entities.NewDeposit(7, 1, amount("1"))))
	require.NoError(t, reducer.Apply(entities.NewResolve(7, 1)))

	for _, o := range []*RecordingObserver{first, second} {
		require.Equal(t, []entities.ClientID{7}, o.opened)
		require.Len(t, o.applied, 1)
		require.Len(t, o.skipped, 1)
		require.Equal(t, ReasonNotDisputed, o.skipped[0].reason)
	}
}
