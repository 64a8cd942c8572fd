package kvstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// entriesKey is the top-level object holding all values in a File document.
const entriesKey = "entries"

// File stores every key as a string member of one JSON document:
//
//	{"entries": {"<key>": "<value>", ...}}
//
// Writes replace the file atomically through a temp file and rename.
type File struct {
	mu     sync.Mutex
	path   string
	closed bool
}

// OpenFile returns a File backend at path, creating its directory.
func OpenFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve store path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &File{path: abs}, nil
}

// Path returns the document location.
func (f *File) Path() string { return f.path }

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return "", false, err
	}
	res := gjson.GetBytes(doc, keyPath(key))
	if !res.Exists() {
		return "", false, nil
	}
	return res.String(), true, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	doc, err = sjson.SetBytes(doc, keyPath(key), value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return f.store(doc)
}

func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	path := keyPath(key)
	if !gjson.GetBytes(doc, path).Exists() {
		return nil
	}
	doc, err = sjson.DeleteBytes(doc, path)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return f.store(doc)
}

// Close marks the backend closed. The document stays on disk.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *File) load() ([]byte, error) {
	if f.closed {
		return nil, ErrClosed
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(strings.TrimSpace(string(data))) == 0) {
		return []byte("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("read store %s: invalid JSON document", f.path)
	}
	return data, nil
}

func (f *File) store(doc []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".colkit-*.json")
	if err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}

// keyPath escapes key into a single gjson/sjson path component below
// entriesKey. ASCII punctuation is backslash-escaped.
func keyPath(key string) string {
	var b strings.Builder
	b.WriteString(entriesKey)
	b.WriteByte('.')
	for i := 0; i < len(key); i++ {
		c := key[i]
		isWord := c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c >= 0x80
		if !isWord {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}
