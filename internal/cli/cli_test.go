package cli

import (
	"bytes"
	"context"
	"testing"

	"directory-backend/internal/config"
	"directory-backend/internal/currency"
	"directory-backend/internal/models"
	"directory-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubFetcher map[string]string

func (f stubFetcher) Fetch(context.Context) (map[string]string, error) {
	return f, nil
}

func useTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.NewDB(t)

	prevOpen, prevFetcher := openDB, newCurrencyFetcher
	openDB = func(*config.Config) (*gorm.DB, func(), error) { return db, func() {}, nil }
	newCurrencyFetcher = func(string, string) currency.Fetcher {
		return stubFetcher{"EUR": "Euro", "USD": "United States Dollar"}
	}
	t.Cleanup(func() {
		openDB, newCurrencyFetcher = prevOpen, prevFetcher
	})
	return db
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_Flags(t *testing.T) {
	cmd := NewRootCommand()

	level := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, level)
	assert.Equal(t, "info", level.DefValue)
	require.NotNil(t, cmd.PersistentFlags().Lookup("log-format"))

	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "jobs")
	assert.Contains(t, names, "seed")
}

func TestSeedRegions(t *testing.T) {
	db := useTestDB(t)

	out, err := run(t, "seed", "regions")
	require.NoError(t, err)
	assert.Contains(t, out, "14 regions inserted")

	out, err = run(t, "seed", "regions")
	require.NoError(t, err)
	assert.Contains(t, out, "0 regions inserted")

	var count int64
	require.NoError(t, db.Model(&models.Region{}).Count(&count).Error)
	assert.Equal(t, int64(14), count)
}

func TestJobs_SyncCurrencies(t *testing.T) {
	db := useTestDB(t)

	out, err := run(t, "jobs", "sync-currencies")
	require.NoError(t, err)
	assert.Contains(t, out, "sync-currencies completed")

	var count int64
	require.NoError(t, db.Model(&models.Currency{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestJobs_BlockInactiveUsers(t *testing.T) {
	useTestDB(t)

	out, err := run(t, "jobs", "block-inactive-users", "--timeout", "1m")
	require.NoError(t, err)
	assert.Contains(t, out, "block-inactive-users completed")
}
