package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFixtures_Example(t *testing.T) {
	fx, err := loadFixtures(filepath.Join("..", "..", "seed.example.yaml"))
	require.NoError(t, err)

	require.Len(t, fx.Zones, 2)
	require.Len(t, fx.Bouquets, 3)
	require.Len(t, fx.Subscribers, 2)
	assert.True(t, fx.Bouquets[2].Inactive)
	assert.Equal(t, "6 51 98 74 68", fx.Subscribers[0].Phone)
	require.Len(t, fx.Subscribers[0].Payments, 1)
	assert.Equal(t, 2, fx.Subscribers[0].Payments[0].Months)
	assert.Equal(t, 2026, fx.Subscribers[0].Payments[0].Date.Year())
}

func TestLoadFixtures_Errors(t *testing.T) {
	_, err := loadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("zones: [unterminated"), 0o600))
	_, err = loadFixtures(bad)
	require.Error(t, err)
}

func TestPublicHost(t *testing.T) {
	assert.Equal(t, "api.lapatience.cm", publicHost("https://api.lapatience.cm"))
	assert.Equal(t, "api.lapatience.cm", publicHost("https://api.lapatience.cm:8443/"))
	assert.Empty(t, publicHost("http://localhost:8080"))
	assert.Empty(t, publicHost(""))
	assert.Empty(t, publicHost("::bad"))
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "seed", "activity", "unblock-ip"})

	seed, _, err := root.Find([]string{"seed"})
	require.NoError(t, err)
	assert.NotNil(t, seed.Flags().Lookup("file"))
}
