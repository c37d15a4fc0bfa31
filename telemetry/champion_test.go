package telemetry

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/selfdrive/neural"
)

func testNetwork(t *testing.T) *neural.Network {
	t.Helper()
	nn, err := neural.NewNetwork(rand.New(rand.NewSource(7)), 5, 6, neural.NumOutputs)
	require.NoError(t, err)
	return nn
}

func TestFileChampionStore_LoadMissing(t *testing.T) {
	store := NewFileChampionStore(filepath.Join(t.TempDir(), "best.json"))
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoChampion)
}

func TestFileChampionStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "best.json")
	store := NewFileChampionStore(path)
	nn := testNetwork(t)

	require.NoError(t, store.Save(nn))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, nn.MarshalWeights(), loaded.MarshalWeights())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &rec))
	for _, key := range []string{"run_id", "saved_at", "checksum", "network"} {
		assert.Contains(t, rec, key)
	}
	var runID string
	require.NoError(t, json.Unmarshal(rec["run_id"], &runID))
	assert.Equal(t, store.RunID(), runID)

	// The checksum is a plain JSON number.
	var sum uint64
	require.NoError(t, json.Unmarshal(rec["checksum"], &sum))
	assert.Equal(t, nn.MarshalWeights().Fingerprint(), sum)
}

func TestFileChampionStore_ChecksumMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.json")
	store := NewFileChampionStore(path)
	require.NoError(t, store.Save(testNetwork(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec championJSON
	require.NoError(t, json.Unmarshal(data, &rec))
	rec.Network.Layers[0].Biases[0] += 0.5
	data, err = json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestFileChampionStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileChampionStore(path).Load()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoChampion)
}

func TestFileChampionStore_Discard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best.json")
	store := NewFileChampionStore(path)

	// Nothing stored yet.
	require.NoError(t, store.Discard())

	require.NoError(t, store.Save(testNetwork(t)))
	require.NoError(t, store.Discard())
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoChampion)
}

func TestMemoryChampionStore(t *testing.T) {
	store := NewMemoryChampionStore()
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoChampion)

	nn := testNetwork(t)
	require.NoError(t, store.Save(nn))

	// Later changes to the saved network do not leak into the store.
	nn.Layers[0].Biases[0] = 42
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.NotEqual(t, 42.0, loaded.Layers[0].Biases[0])

	require.NoError(t, store.Discard())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoChampion)
}
