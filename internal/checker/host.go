package checker

import (
	"os"

	"github.com/yacobolo/tsclass/internal/overlay"
)

// Host gives the checker access to file contents.
type Host interface {
	ReadFile(path string) (string, bool)
	FileExists(path string) bool
}

// OSHost reads files from disk.
type OSHost struct{}

func (OSHost) ReadFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (OSHost) FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// OverlayHost serves overlay entries before falling back to Base.
type OverlayHost struct {
	Overlay *overlay.Store
	Base    Host
}

// NewOverlayHost wraps the filesystem with store.
func NewOverlayHost(store *overlay.Store) *OverlayHost {
	return &OverlayHost{Overlay: store, Base: OSHost{}}
}

func (h *OverlayHost) ReadFile(path string) (string, bool) {
	if text, ok := h.Overlay.Get(path); ok {
		return text, true
	}
	return h.Base.ReadFile(path)
}

func (h *OverlayHost) FileExists(path string) bool {
	return h.Overlay.Has(path) || h.Base.FileExists(path)
}

// MemoHost remembers every read of Base. Use one per batch of programs over
// files that do not change underneath it.
type MemoHost struct {
	Base  Host
	files map[string]memoEntry
}

type memoEntry struct {
	text string
	ok   bool
}

// NewMemoHost wraps base.
func NewMemoHost(base Host) *MemoHost {
	return &MemoHost{Base: base, files: map[string]memoEntry{}}
}

func (h *MemoHost) ReadFile(path string) (string, bool) {
	if e, ok := h.files[path]; ok {
		return e.text, e.ok
	}
	text, ok := h.Base.ReadFile(path)
	h.files[path] = memoEntry{text: text, ok: ok}
	return text, ok
}

func (h *MemoHost) FileExists(path string) bool {
	if e, ok := h.files[path]; ok {
		return e.ok
	}
	return h.Base.FileExists(path)
}
