package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolFrag/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolFrag/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	assert.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)

	logger.Clear()
	assert.Len(t, logger.GetMessages(), 0)

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestMockLogger_DerivedLoggersShareRecords(t *testing.T) {
	root := testutil.NewMockLogger()
	child := root.Named("fragmentation").With(logging.Int("atoms", 12))

	child.Warn("stereo failed", logging.String("smiles", "CC"))

	msg, ok := root.Find("warn", "stereo failed")
	require.True(t, ok)
	assert.Equal(t, "fragmentation", msg.Logger)
	v, ok := msg.Field("atoms")
	require.True(t, ok)
	assert.Equal(t, 12, v)
	_, ok = msg.Field("missing")
	assert.False(t, ok)
	assert.NoError(t, child.Sync())
}

//Personal.AI order the ending
