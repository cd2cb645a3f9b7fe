// Package store implements the durable side of a run: a pluggable
// artifact blob store for manifests/replicates/docs, and a Postgres-backed
// audit log of RunRecord rows. Grounded on
// original_source/heretix/artifacts.py for the store interface and
// manifest shape, and on the teacher's
// pkg/core/tools/persistence filesystem-writer idiom for the local
// backend.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactStore is the minimal interface a blob-storage backend must
// satisfy, mirroring artifacts.py's ArtifactStore protocol.
type ArtifactStore interface {
	WriteText(relativePath, text, contentType string) (string, error)
	WriteBytes(relativePath string, payload []byte, contentType string) (string, error)
	Root() string
}

// disabledStore rejects all writes; used when artifact persistence is
// turned off entirely.
type disabledStore struct{}

func (disabledStore) WriteText(string, string, string) (string, error) {
	return "", fmt.Errorf("store: artifact store is disabled")
}
func (disabledStore) WriteBytes(string, []byte, string) (string, error) {
	return "", fmt.Errorf("store: artifact store is disabled")
}
func (disabledStore) Root() string { return "" }

// LocalStore writes artifacts under a base directory on the local
// filesystem, grounded on the teacher's save_request.go write-then-verify
// pattern (mkdir -p, write, stat to confirm non-empty).
type LocalStore struct {
	root string
}

// NewLocalStore creates (if needed) and returns a filesystem-backed
// artifact store rooted at basePath.
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: create artifact root: %w", err)
	}
	return &LocalStore{root: basePath}, nil
}

func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) WriteText(relativePath, text, _ string) (string, error) {
	return s.write(relativePath, []byte(text))
}

func (s *LocalStore) WriteBytes(relativePath string, payload []byte, _ string) (string, error) {
	return s.write(relativePath, payload)
}

func (s *LocalStore) write(relativePath string, payload []byte) (string, error) {
	dest := filepath.Join(s.root, relativePath)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("store: create artifact dir: %w", err)
	}
	if err := os.WriteFile(dest, payload, 0o644); err != nil {
		return "", fmt.Errorf("store: write artifact: %w", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return "", fmt.Errorf("store: write reported success but file not found at %s: %w", dest, err)
	}
	if info.Size() == 0 && len(payload) > 0 {
		return "", fmt.Errorf("store: write reported success but file at %s is empty", dest)
	}
	return dest, nil
}

// NewArtifactStore builds an ArtifactStore from a backend name
// ("disabled"/"none"/"off", "local"/"filesystem"/"fs"/"", or any other
// value treated as an unknown backend), mirroring
// artifacts.py's get_artifact_store backend-name switch. GCS/cloud
// backends named in the original are out of scope here: the example pack
// carries no cloud-object-storage client, so only the local backend is
// implemented.
func NewArtifactStore(backend, basePath string) (ArtifactStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "disabled", "none", "off":
		return disabledStore{}, nil
	case "", "local", "filesystem", "fs":
		if basePath == "" {
			basePath = "runs/artifacts"
		}
		return NewLocalStore(basePath)
	default:
		return nil, fmt.Errorf("store: unknown artifact backend %q", backend)
	}
}
