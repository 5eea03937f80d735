package database_test

import (
	"context"
	"testing"

	"fintrack/database"
	"fintrack/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDB_ReadyFollowsSchemaVersion(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, testDB.DB.Ready(ctx))

	status, err := database.SchemaStatus(testDB.URL)
	require.NoError(t, err)
	assert.True(t, status.Applied)
	assert.Equal(t, uint(1), status.Version)
	assert.False(t, status.Dirty)

	require.NoError(t, database.MigrateDown(testDB.URL, "1"))

	err = testDB.DB.Ready(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema not migrated")

	status, err = database.SchemaStatus(testDB.URL)
	require.NoError(t, err)
	assert.False(t, status.Applied)

	require.NoError(t, database.MigrateUp(testDB.URL))
	assert.NoError(t, testDB.DB.Ready(ctx))
}

func TestMigrateDown_RejectsBadSteps(t *testing.T) {
	t.Parallel()

	for _, steps := range []string{"0", "-2", "many"} {
		err := database.MigrateDown("postgres://unused", steps)
		assert.Error(t, err, steps)
	}
}
