// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package media stores visible light photographs by content.
package media

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
)

// Ext is the extension of stored files.
const Ext = ".jpg"

// Sum returns the hex encoded SHA-1 digest of data.
func Sum(data []byte) string {
	h := sha1.Sum(data)
	return hex.EncodeToString(h[:])
}

// Entry describes a stored file.
type Entry struct {
	Hash string
	Path string // Relative to the site root, slash separated.
	Dup  bool   // Already stored by a previous Put.
}

// Store writes each distinct content once, named after its digest.
//
// Each Put takes a reference on the content; Release drops it and the file is
// deleted with the last reference. It is safe for concurrent use.
type Store struct {
	dir string
	rel string

	mu    sync.Mutex
	refs  map[string]int
	sizes map[string]int64
	bytes int64
}

// NewStore returns a Store writing into dir, which is referenced as rel in
// the returned Entry.Path.
func NewStore(dir, rel string) *Store {
	return &Store{dir: dir, rel: rel, refs: map[string]int{}, sizes: map[string]int64{}}
}

// Put stores data unless identical content was already stored.
func (s *Store) Put(data []byte) (Entry, error) {
	h := Sum(data)
	e := Entry{Hash: h, Path: path.Join(s.rel, h+Ext)}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs[h] != 0 {
		s.refs[h]++
		e.Dup = true
		return e, nil
	}
	if err := os.WriteFile(s.path(h), data, 0644); err != nil {
		return e, fmt.Errorf("storing %s: %w", h, err)
	}
	s.refs[h] = 1
	s.sizes[h] = int64(len(data))
	s.bytes += int64(len(data))
	return e, nil
}

// Release drops a reference taken by Put. The file is deleted when no
// reference is left.
func (s *Store) Release(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.refs[hash]
	if n == 0 {
		return fmt.Errorf("releasing unknown content %s", hash)
	}
	if n > 1 {
		s.refs[hash] = n - 1
		return nil
	}
	delete(s.refs, hash)
	s.bytes -= s.sizes[hash]
	delete(s.sizes, hash)
	return os.Remove(s.path(hash))
}

// Len returns the number of distinct files stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}

// Bytes returns the size of the files currently stored.
func (s *Store) Bytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

func (s *Store) path(hash string) string {
	return filepath.Join(s.dir, hash+Ext)
}
