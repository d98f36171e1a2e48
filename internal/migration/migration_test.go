package migration

import (
	"testing"

	"github.com/smallbiznis/taskflow/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrationsCreatesTables(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)

	require.NoError(t, RunMigrations(conn))
	require.NoError(t, RunMigrations(conn), "migrations must be repeatable")

	for _, table := range []string{"users", "refresh_tokens", "organizations", "organization_members", "invitations", "organization_events"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}

func TestRunMigrationsRequiresDB(t *testing.T) {
	assert.Error(t, RunMigrations(nil))
}
