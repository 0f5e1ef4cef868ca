package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xraph/label/store"
	"github.com/xraph/label/store/postgres"
	"github.com/xraph/label/store/storetest"
)

// dsnEnv names a disposable database. Its label tables are cleared by every
// subtest.
const dsnEnv = "LABEL_TEST_POSTGRES_DSN"

func TestConformance(t *testing.T) {
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skipf("%s not set", dsnEnv)
	}

	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := postgres.Open(ctx, dsn)
		require.NoError(t, err)
		require.NoError(t, s.Migrate(ctx))
		require.NoError(t, s.Reset(ctx))
		return s
	})
}
