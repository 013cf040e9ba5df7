package assetstore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgecore/enginecore/internal/enginerr"
)

// memSource is an in-memory Source for tests.
type memSource struct{ files map[string][]byte }

func (m *memSource) Exists(logicalPath string) bool { _, ok := m.files[logicalPath]; return ok }
func (m *memSource) Read(logicalPath string) ([]byte, error) {
	b, ok := m.files[logicalPath]
	if !ok {
		return nil, fmt.Errorf("not found: %s", logicalPath)
	}
	return b, nil
}

// stubImporter echoes the input bytes back as the blob payload, tagging
// the blob with its own id so tests can tell which importer ran.
type stubImporter struct {
	typeID string
	fail   bool
}

func (s *stubImporter) OutputTypeID() string { return s.typeID }
func (s *stubImporter) Import(bytes []byte, key AssetKey) (*AssetBlob, error) {
	if s.fail {
		return nil, fmt.Errorf("stub importer failure")
	}
	return &AssetBlob{TypeID: s.typeID, Format: "raw", Payload: bytes}, nil
}

func TestAssetKeyIdIsDeterministic(t *testing.T) {
	k1, err := NewAssetKey("models/rock.png", 42)
	require.NoError(t, err)
	k2, err := NewAssetKey("models/rock.png", 42)
	require.NoError(t, err)

	assert.Equal(t, k1.Id(), k2.Id())

	k3, err := NewAssetKey("models/rock.png", 43)
	require.NoError(t, err)
	assert.NotEqual(t, k1.Id(), k3.Id(), "different settings hashes must produce different ids")

	k4, err := NewAssetKey("models/other.png", 42)
	require.NoError(t, err)
	assert.NotEqual(t, k1.Id(), k4.Id())
}

func TestAssetKeyRejectsEscapingPaths(t *testing.T) {
	_, err := NewAssetKey("", 0)
	assert.Error(t, err)

	_, err = NewAssetKey("/abs/path.png", 0)
	assert.Error(t, err)

	_, err = NewAssetKey("../escape.png", 0)
	assert.Error(t, err)
}

func TestImporterTieBreakByPriorityThenStableID(t *testing.T) {
	store := New()
	low := &stubImporter{typeID: "low"}
	high := &stubImporter{typeID: "high"}

	store.AddImporter("png", low, 0, "zzz-importer")
	store.AddImporter("png", high, 10, "aaa-importer")

	bindings := store.ImporterBindings()
	require.Len(t, bindings, 2)
	assert.Equal(t, "high", bindings[0].OutputTypeID, "higher priority must win regardless of registration order")
}

func TestImporterTieBreakStableIDAscendingOnEqualPriority(t *testing.T) {
	store := New()
	zzz := &stubImporter{typeID: "zzz"}
	aaa := &stubImporter{typeID: "aaa"}

	store.AddImporter("png", zzz, 5, "zzz-importer")
	store.AddImporter("png", aaa, 5, "aaa-importer")

	bindings := store.ImporterBindings()
	require.Len(t, bindings, 2)
	assert.Equal(t, "aaa", bindings[0].OutputTypeID, "equal priority must tie-break on ascending stable id")
}

func TestLoadWithMissingImporterFailsSynchronously(t *testing.T) {
	store := New()
	key, err := NewAssetKey("texture.dds", 0)
	require.NoError(t, err)

	id, err := store.Load(key)
	require.Error(t, err)
	assert.True(t, enginerr.IsKind(err, enginerr.KindImporterMissing))
	assert.Equal(t, Unloaded, store.State(id), "a synchronously-rejected load must leave state Unloaded")
	assert.Equal(t, 0, store.QueueLen())
}

func TestPumpOrdersImportsFIFO(t *testing.T) {
	store := New()
	store.AddSource(&memSource{files: map[string][]byte{
		"a.txt": []byte("A"),
		"b.txt": []byte("B"),
		"c.txt": []byte("C"),
	}})
	store.AddImporter("txt", &stubImporter{typeID: "text"}, 0, "txt-importer")

	var ids []AssetId
	for _, p := range []string{"a.txt", "b.txt", "c.txt"} {
		key, err := NewAssetKey(p, 0)
		require.NoError(t, err)
		id, err := store.Load(key)
		require.NoError(t, err)
		ids = append(ids, id)
		assert.Equal(t, Loading, store.State(id))
	}

	store.Pump(PumpBudget{Steps: 2})
	assert.Equal(t, Ready, store.State(ids[0]))
	assert.Equal(t, Ready, store.State(ids[1]))
	assert.Equal(t, Loading, store.State(ids[2]), "a budget of 2 must not process the third queued request")
	assert.Equal(t, 1, store.QueueLen())

	store.Pump(PumpBudget{Steps: 10})
	assert.Equal(t, Ready, store.State(ids[2]))
	assert.Equal(t, 0, store.QueueLen())

	events := store.DrainEvents()
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, EventReady, ev.Kind)
	}
}

func TestPumpZeroBudgetDoesNothing(t *testing.T) {
	store := New()
	store.AddSource(&memSource{files: map[string][]byte{"a.txt": []byte("A")}})
	store.AddImporter("txt", &stubImporter{typeID: "text"}, 0, "txt-importer")

	key, err := NewAssetKey("a.txt", 0)
	require.NoError(t, err)
	id, err := store.Load(key)
	require.NoError(t, err)

	store.Pump(PumpBudget{Steps: 0})
	assert.Equal(t, Loading, store.State(id))
	assert.Empty(t, store.DrainEvents())
}

func TestLoadIsIdempotentForInFlightStates(t *testing.T) {
	store := New()
	store.AddSource(&memSource{files: map[string][]byte{"a.txt": []byte("A")}})
	store.AddImporter("txt", &stubImporter{typeID: "text"}, 0, "txt-importer")

	key, err := NewAssetKey("a.txt", 0)
	require.NoError(t, err)

	id1, err := store.Load(key)
	require.NoError(t, err)
	id2, err := store.Load(key)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, store.QueueLen(), "loading the same key twice while Loading must not enqueue a second request")
}

func TestFailedImportEmitsFailedEventAndRecordsMessage(t *testing.T) {
	store := New()
	store.AddSource(&memSource{files: map[string][]byte{"a.bad": []byte("A")}})
	store.AddImporter("bad", &stubImporter{typeID: "x", fail: true}, 0, "bad-importer")

	key, err := NewAssetKey("a.bad", 0)
	require.NoError(t, err)
	id, err := store.Load(key)
	require.NoError(t, err)

	store.Pump(PumpBudget{Steps: 1})

	assert.Equal(t, Failed, store.State(id))
	msg, ok := store.FailureMessage(id)
	require.True(t, ok)
	assert.Contains(t, msg, "stub importer failure")

	events := store.DrainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventFailed, events[0].Kind)
}

func TestMissingSourceFileFailsAtPumpTime(t *testing.T) {
	store := New()
	store.AddSource(&memSource{files: map[string][]byte{}})
	store.AddImporter("txt", &stubImporter{typeID: "text"}, 0, "txt-importer")

	key, err := NewAssetKey("missing.txt", 0)
	require.NoError(t, err)
	id, err := store.Load(key)
	require.NoError(t, err)

	store.Pump(PumpBudget{Steps: 1})
	assert.Equal(t, Failed, store.State(id))
}

func TestReloadPathResetsStateAndEnqueuesFresh(t *testing.T) {
	store := New()
	store.AddSource(&memSource{files: map[string][]byte{"a.txt": []byte("A")}})
	store.AddImporter("txt", &stubImporter{typeID: "text"}, 0, "txt-importer")

	key, err := NewAssetKey("a.txt", 0)
	require.NoError(t, err)
	id, err := store.Load(key)
	require.NoError(t, err)
	store.Pump(PumpBudget{Steps: 1})
	require.Equal(t, Ready, store.State(id))

	reloadedID, err := store.ReloadPath(key)
	require.NoError(t, err)
	assert.Equal(t, id, reloadedID)
	assert.Equal(t, Loading, store.State(id))

	_, ok := store.GetBlob(id)
	assert.False(t, ok, "ReloadPath must clear the previously cached blob")
}

func TestStatsAndListSnapshots(t *testing.T) {
	store := New()
	store.AddSource(&memSource{files: map[string][]byte{"a.txt": []byte("AAA")}})
	store.AddImporter("txt", &stubImporter{typeID: "text"}, 0, "txt-importer")

	key, err := NewAssetKey("a.txt", 0)
	require.NoError(t, err)
	id, err := store.Load(key)
	require.NoError(t, err)
	store.Pump(PumpBudget{Steps: 1})

	stats := store.StatsSnapshot()
	assert.Equal(t, uint64(1), stats.TotalLoaded)
	assert.Equal(t, 1, stats.ReadyCount)
	assert.Equal(t, uint64(3), stats.BytesRead)

	rows := store.ListSnapshot(0)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].ID)
	assert.Equal(t, Ready, rows[0].State)
}

func TestExtension(t *testing.T) {
	k, err := NewAssetKey("dir/file.PNG", 0)
	require.NoError(t, err)
	assert.Equal(t, "png", k.Extension(), "extension lookup must be case-insensitive")

	k2, err := NewAssetKey("dir/noext", 0)
	require.NoError(t, err)
	assert.Equal(t, "", k2.Extension())
}
