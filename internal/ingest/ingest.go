package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/booknotes/internal/core/async"
)

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
	Failed  uint32
}

// EnqueueDirectory scans root and submits every capturable image for bookID.
// It stops at the first Enqueue error.
func EnqueueDirectory(ctx context.Context, q async.Queue, bookID uuid.UUID, root string, includeExts []string, skipHidden bool) ([]string, DirStats, error) {
	paths, stats, err := ScanDirectory(root, includeExts, skipHidden)
	if err != nil {
		return nil, stats, err
	}
	for i, p := range paths {
		if err := q.Enqueue(ctx, async.Job{Path: p, BookID: bookID}); err != nil {
			return paths[:i], stats, fmt.Errorf("enqueue %s: %w", p, err)
		}
	}
	return paths, stats, nil
}

// Seen remembers image contents by SHA-256 so an unchanged file is captured once.
type Seen struct {
	mu     sync.Mutex
	hashes map[string]string // hash -> first path
}

func NewSeen() *Seen {
	return &Seen{hashes: make(map[string]string)}
}

// Check hashes path and reports whether identical content was seen before.
func (s *Seen) Check(path string) (hashHex string, duplicate bool, err error) {
	hashHex, err = HashFile(path)
	if err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[hashHex]; ok {
		return hashHex, true, nil
	}
	s.hashes[hashHex] = path
	return hashHex, false, nil
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
