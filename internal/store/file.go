package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Flyrell/logbook/internal/attendance"
	"github.com/Flyrell/logbook/internal/stringutil"
)

// File stores each user's documents as JSON files under dir/<user-key>/.
// Notifications only reach subscribers in the same process.
type File struct {
	dir string
	mu  sync.Mutex
	hub hub
}

var _ Store = (*File)(nil)

// NewFile creates a file store rooted at dir.
func NewFile(dir string) *File {
	return &File{dir: dir}
}

// UserDir returns the directory holding a user's documents.
func (f *File) UserDir(uid string) (string, error) {
	if strings.TrimSpace(uid) == "" {
		return "", fmt.Errorf("invalid user id %q", uid)
	}
	return filepath.Join(f.dir, stringutil.Key(uid)), nil
}

func (f *File) path(uid, name string) (string, error) {
	dir, err := f.UserDir(uid)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func (f *File) GetSettings(_ context.Context, uid string) (*Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.path(uid, "settings.json")
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc settingsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return fromDoc(doc)
}

func (f *File) SetSettings(_ context.Context, uid string, s Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.path(uid, "settings.json")
	if err != nil {
		return err
	}
	return writeJSON(p, toDoc(s))
}

func (f *File) ReadAttendance(_ context.Context, uid string, keys []string) (attendance.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all, err := f.readAll(uid)
	if err != nil {
		return nil, err
	}
	return pick(all, keys), nil
}

// ReadAllAttendance returns every stored entry for the user.
func (f *File) ReadAllAttendance(uid string) (attendance.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.readAll(uid)
}

func (f *File) WriteAttendance(_ context.Context, uid string, entries map[string]attendance.Entry) error {
	f.mu.Lock()
	all, err := f.readAll(uid)
	if err != nil {
		f.mu.Unlock()
		return err
	}

	applied := applyLWW(all, entries)
	if len(applied) > 0 {
		p, err := f.path(uid, "attendance.json")
		if err == nil {
			err = writeJSON(p, all)
		}
		if err != nil {
			f.mu.Unlock()
			return err
		}
	}
	f.mu.Unlock()

	f.hub.publish(uid, applied)
	return nil
}

func (f *File) Subscribe(_ context.Context, uid string, keys []string, fn SnapshotFunc) (func(), error) {
	return f.hub.add(uid, keys, fn), nil
}

func (f *File) Close() error { return nil }

// readAll loads the attendance document. A missing file is an empty history.
func (f *File) readAll(uid string) (attendance.Snapshot, error) {
	p, err := f.path(uid, "attendance.json")
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return attendance.Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}

	snap := attendance.Snapshot{}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("reading attendance: %w", err)
	}
	return snap, nil
}

// writeJSON writes v to path through a temp file so a crash never leaves a
// truncated document behind.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
