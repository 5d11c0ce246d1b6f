package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/laborstat-cli/internal/model"
)

// LongFormStore is the append-only long-format series file: one JSON object
// per line. A later batch may add a newer point for the same (state_code,
// date) but never erases an older line; readers pick the freshest version by
// ingest_run timestamp.
type LongFormStore struct {
	path string
}

// NewLongFormStore creates a store backed by the given JSONL path.
func NewLongFormStore(path string) *LongFormStore {
	return &LongFormStore{path: path}
}

// Path returns the backing file path.
func (s *LongFormStore) Path() string { return s.path }

// Append writes the points to the end of the store file, creating it (and its
// directory) if needed.
func (s *LongFormStore) Append(points []model.LongFormPoint) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return eris.Wrap(err, "store: create clean data dir")
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return eris.Wrap(err, "store: open clean data file")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, p := range points {
		if err := enc.Encode(p); err != nil {
			return eris.Wrap(err, "store: encode point")
		}
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "store: flush clean data file")
	}
	return nil
}

// ReadLatest reads the whole store and returns one point per (state_code,
// date): the one with the lexicographically greatest ingest_run. Order follows
// first appearance of each key in the file.
func (s *LongFormStore) ReadLatest() ([]model.LongFormPoint, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open %s", s.path)
	}
	defer f.Close()

	type stateDate struct {
		code string
		date string
	}

	var points []model.LongFormPoint
	index := make(map[stateDate]int)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var p model.LongFormPoint
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, eris.Wrap(err, "store: decode point")
		}
		key := stateDate{p.StateCode, p.Date}
		if i, ok := index[key]; ok {
			if p.IngestRun > points[i].IngestRun {
				points[i] = p
			}
			continue
		}
		index[key] = len(points)
		points = append(points, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "store: scan clean data file")
	}
	return points, nil
}
