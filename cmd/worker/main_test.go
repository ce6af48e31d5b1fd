package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestReadSeedFile_YAML(t *testing.T) {
	path := writeFile(t, "seed.yaml", `
locations:
  - code: "680001"
    name: Thrissur
    state: Kerala
    latitude: 10.5276
    longitude: 76.2144
colleges:
  - name: Govt College Kottayam
    address: "Kottayam, Kottayam, Kerala 686001"
`)
	data, err := readSeedFile(path)
	require.NoError(t, err)
	require.Len(t, data.Locations, 1)
	assert.Equal(t, "680001", data.Locations[0].Code)
	require.NotNil(t, data.Locations[0].Latitude)
	assert.InDelta(t, 10.5276, *data.Locations[0].Latitude, 1e-9)
	require.Len(t, data.Colleges, 1)
	assert.Contains(t, data.Colleges[0].Address, "686001")
}

func TestReadSeedFile_JSON(t *testing.T) {
	path := writeFile(t, "seed.json", `{"locations":[{"code":"673001","name":"Kozhikode"}]}`)
	data, err := readSeedFile(path)
	require.NoError(t, err)
	require.Len(t, data.Locations, 1)
	assert.Equal(t, "Kozhikode", data.Locations[0].Name)
}

func TestReadSeedFile_UnknownExtension(t *testing.T) {
	path := writeFile(t, "seed.csv", "code,name\n")
	_, err := readSeedFile(path)
	assert.Error(t, err)
}
