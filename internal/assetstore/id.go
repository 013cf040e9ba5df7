package assetstore

import (
	"crypto/sha256"
	"encoding/binary"
	"path"
	"strings"

	"github.com/forgecore/enginecore/internal/enginerr"
)

// AssetId is a 128-bit content-addressed identifier derived
// deterministically from a normalized logical path and a settings hash.
// It is stable across runs and processes.
type AssetId [16]byte

// AssetKey identifies a load request: the logical path of the asset and a
// hash of whatever importer settings affect its output (so the same path
// imported with different settings produces a different AssetId).
type AssetKey struct {
	LogicalPath  string
	SettingsHash uint64
}

// NewAssetKey normalizes path and pairs it with settingsHash. It returns
// an InvalidInput error if the path is empty, absolute, or contains a
// ".." component after normalization — asset paths are always relative
// and may never escape their source root.
func NewAssetKey(logicalPath string, settingsHash uint64) (AssetKey, error) {
	norm, err := normalizePath(logicalPath)
	if err != nil {
		return AssetKey{}, err
	}
	return AssetKey{LogicalPath: norm, SettingsHash: settingsHash}, nil
}

func normalizePath(p string) (string, error) {
	if p == "" {
		return "", enginerr.InvalidInput("asset path is empty")
	}
	if path.IsAbs(p) || strings.HasPrefix(p, "/") || strings.Contains(p, ":\\") {
		return "", enginerr.InvalidInput("asset path must be relative: " + p)
	}

	clean := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if clean == "." || clean == "" {
		return "", enginerr.InvalidInput("asset path is empty after normalization: " + p)
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", enginerr.InvalidInput("asset path escapes root: " + p)
	}
	return clean, nil
}

// Id computes the AssetId for this key. Deterministic across processes
// and architectures: sha256(logicalPath || 0x00 || settingsHash-LE)[:16].
func (k AssetKey) Id() AssetId {
	h := sha256.New()
	h.Write([]byte(k.LogicalPath))
	h.Write([]byte{0})
	var hashBytes [8]byte
	binary.LittleEndian.PutUint64(hashBytes[:], k.SettingsHash)
	h.Write(hashBytes[:])

	sum := h.Sum(nil)
	var id AssetId
	copy(id[:], sum[:16])
	return id
}

// Extension returns the lowercased extension of the key's logical path,
// without the leading dot. Returns "" if there is none.
func (k AssetKey) Extension() string {
	ext := path.Ext(k.LogicalPath)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
