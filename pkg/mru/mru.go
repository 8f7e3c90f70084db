// Package mru keeps the most-recently-used drafts list: a JSON array of
// {path, last_opened} records, newest first, de-duplicated by path and capped,
// rewritten atomically on every change.
package mru

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-intake/internal/atomicfile"
)

// DefaultMax is the default number of entries kept.
const DefaultMax = 10

// FileName is the list's file name inside the data directory.
const FileName = "mru.json"

// TimeLayout formats last_opened ("2024-06-15 09:30").
const TimeLayout = "2006-01-02 15:04"

// Entry is one recently opened draft.
type Entry struct {
	Path       string `json:"path"`
	LastOpened string `json:"last_opened"`
}

// OpenedAt parses LastOpened; the zero time is returned when it is malformed.
func (e Entry) OpenedAt() time.Time {
	parsed, err := time.ParseInLocation(TimeLayout, e.LastOpened, time.Local)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// Listing is an entry annotated for the home view.
type Listing struct {
	Entry
	Name    string
	Missing bool
}

// DisplayName is the file name, suffixed with "(missing)" when the draft no
// longer exists.
func (l Listing) DisplayName() string {
	if l.Missing {
		return l.Name + " (missing)"
	}
	return l.Name
}

// Option configures a List.
type Option func(*List)

// WithMax caps the list length. Values below one are ignored.
func WithMax(max int) Option {
	return func(l *List) {
		if max > 0 {
			l.max = max
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *List) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *List) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// List is the MRU file at a fixed path.
type List struct {
	path   string
	max    int
	now    func() time.Time
	logger *zap.Logger
}

// New returns the list stored at path.
func New(path string, opts ...Option) *List {
	list := &List{
		path:   path,
		max:    DefaultMax,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(list)
		}
	}
	return list
}

// InDir returns the list stored as mru.json inside dir.
func InDir(dir string, opts ...Option) *List {
	return New(filepath.Join(dir, FileName), opts...)
}

// Path returns the backing file path.
func (l *List) Path() string { return l.path }

// Entries reads the list. A missing or unreadable file yields an empty list;
// corrupt content is logged and treated as empty.
func (l *List) Entries() []Entry {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("mru unreadable", zap.String("path", l.path), zap.Error(err))
		}
		return []Entry{}
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		l.logger.Warn("mru malformed, starting empty", zap.String("path", l.path), zap.Error(err))
		return []Entry{}
	}
	out := entries[:0]
	for _, entry := range entries {
		if entry.Path != "" {
			out = append(out, entry)
		}
	}
	return out
}

// Touch records path as opened now, moving it to the front.
func (l *List) Touch(path string) error {
	path = normalise(path)
	entries := []Entry{{Path: path, LastOpened: l.now().Format(TimeLayout)}}
	for _, entry := range l.Entries() {
		if normalise(entry.Path) != path {
			entries = append(entries, entry)
		}
	}
	if len(entries) > l.max {
		entries = entries[:l.max]
	}
	return l.write(entries)
}

// Remove drops path from the list.
func (l *List) Remove(path string) error {
	path = normalise(path)
	current := l.Entries()
	entries := make([]Entry, 0, len(current))
	for _, entry := range current {
		if normalise(entry.Path) != path {
			entries = append(entries, entry)
		}
	}
	if len(entries) == len(current) {
		return nil
	}
	return l.write(entries)
}

// Prune removes entries whose files no longer exist and returns them.
func (l *List) Prune() ([]Entry, error) {
	var kept, removed []Entry
	for _, entry := range l.Entries() {
		if exists(entry.Path) {
			kept = append(kept, entry)
			continue
		}
		removed = append(removed, entry)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if kept == nil {
		kept = []Entry{}
	}
	if err := l.write(kept); err != nil {
		return nil, err
	}
	l.logger.Info("pruned missing drafts from mru", zap.Int("removed", len(removed)))
	return removed, nil
}

// Listings annotates entries for display.
func (l *List) Listings() []Listing {
	entries := l.Entries()
	out := make([]Listing, 0, len(entries))
	for _, entry := range entries {
		out = append(out, Listing{
			Entry:   entry,
			Name:    filepath.Base(entry.Path),
			Missing: !exists(entry.Path),
		})
	}
	return out
}

func (l *List) write(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("mru: encode: %w", err)
	}
	if err := atomicfile.Write(l.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("mru: write: %w", err)
	}
	return nil
}

func normalise(path string) string {
	if path == "" {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
