package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mergewarden/mergewarden/internal/model"
)

func TestInitWithPath(t *testing.T) {
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, InitWithPath(path))

	// Second init is a no-op
	require.NoError(t, InitWithPath(filepath.Join(t.TempDir(), "other.db")))

	assert.NotNil(t, Get())
	assert.NoError(t, HealthCheck())

	// Migration created the runs table
	assert.True(t, Get().Migrator().HasTable(&model.ReviewRun{}))

	assert.NoError(t, Close())
}

func TestHealthCheck_NotInitialized(t *testing.T) {
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	assert.Error(t, HealthCheck())
}

func TestGet_PanicsWhenUninitialized(t *testing.T) {
	ResetForTesting()
	t.Cleanup(ResetForTesting)

	assert.Panics(t, func() { Get() })
}
