package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixtureProfile(deviceID string) GainProfile {
	return GainProfile{
		DeviceID:          deviceID,
		DeviceName:        "USB Mic",
		Mode:              "Digital",
		GainDB:            6.5,
		DigitalMultiplier: 2.11,
		NoiseFloorDB:      -45,
		PeakDB:            -8,
		RMSDB:             -20,
		SNRDB:             37,
		SampleRate:        16000,
		CapturedAt:        time.Unix(1700000000, 0).UTC(),
		Confidence:        0.9,
		Version:           CurrentVersion,
	}
}

func TestSaveThenLoadAllRoundTripsModuloVersion(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "profiles.json"))

	want := fixtureProfile("mic0")
	require.NoError(t, store.Save(want))

	all, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, want, all[0])
}

func TestLoadAllOnMissingFileReturnsEmptySet(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "profiles.json"))

	all, err := store.LoadAll()
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestLoadAllRenamesCorruptFileToBakAndStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o600))

	store := NewFileStore(path)
	all, err := store.LoadAll()
	require.NoError(t, err)
	require.Empty(t, all)

	_, statErr := os.Stat(path + ".bak")
	require.NoError(t, statErr)
}

func TestDeleteRemovesProfileAndClearsActiveIfMatched(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "profiles.json"))

	require.NoError(t, store.Save(fixtureProfile("mic0")))
	require.NoError(t, store.SetActive("mic0"))

	require.NoError(t, store.Delete("mic0"))

	all, err := store.LoadAll()
	require.NoError(t, err)
	require.Empty(t, all)

	_, ok := store.Active()
	require.False(t, ok)
}

func TestSetActiveThenActiveReturnsDeviceID(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "profiles.json"))

	require.NoError(t, store.SetActive("mic1"))

	id, ok := store.Active()
	require.True(t, ok)
	require.Equal(t, "mic1", id)
}

func TestBackfillAppliesDefaultsForPreVersionProfiles(t *testing.T) {
	p := backfill(GainProfile{DeviceID: "mic2"})
	require.Equal(t, "Unknown", p.Mode)
	require.Equal(t, uint32(16000), p.SampleRate)
	require.InDelta(t, 0.5, p.Confidence, 0.0001)
	require.Equal(t, CurrentVersion, p.Version)
}

func TestPersistenceSurvivesAcrossStoreInstances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.json")

	first := NewFileStore(path)
	require.NoError(t, first.Save(fixtureProfile("mic0")))

	second := NewFileStore(path)
	all, err := second.LoadAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "mic0", all[0].DeviceID)
}

func TestResolvePathUsesXDGConfigHomeWhenSet(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "voicecore", "profiles.json"), path)
}

func TestResolvePathPrefersExplicitPath(t *testing.T) {
	path, err := ResolvePath("/tmp/explicit/profiles.json")
	require.NoError(t, err)
	require.Equal(t, "/tmp/explicit/profiles.json", path)
}
