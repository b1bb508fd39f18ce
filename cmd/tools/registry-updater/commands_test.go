package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"franchise-onboarding/pkg/registry"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAddUpdateValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")

	out, err := run(t, "add", "--path", path,
		"--id", "search-legacy-units", "--displayName", "Search Legacy Units",
		"--description", "Legacy unit suggestions", "--category", "data-access",
		"--taskType", "search-legacy-units", "--route", "GET /functions/v1/legacy-units")
	require.NoError(t, err)
	assert.Contains(t, out, "Added activity: search-legacy-units")

	_, err = run(t, "update", "--path", path, "--id", "search-legacy-units", "--field", "status", "--value", "completed")
	require.NoError(t, err)

	out, err = run(t, "validate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 activities")

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	a, ok := reg.Find("search-legacy-units")
	require.True(t, ok)
	assert.Equal(t, registry.StatusCompleted, a.ImplementationStatus)
	assert.Equal(t, "GET /functions/v1/legacy-units", a.Route)
}

func TestAdd_RequiresFlags(t *testing.T) {
	_, err := run(t, "add", "--path", filepath.Join(t.TempDir(), "r.json"), "--id", "x")
	assert.Error(t, err)
}

func TestValidate_ShippedRegistry(t *testing.T) {
	_, err := run(t, "validate", "--path", filepath.Join("..", "..", "..", defaultRegistryPath))
	assert.NoError(t, err)
}
