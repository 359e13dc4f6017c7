// Package store keeps the journal of finished meditation sessions.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jmylchreest/meditate/internal/model"
)

// LogVersion is written as the first line of every history file.
const LogVersion = 1

// ErrUnsupportedVersion is returned when a history file was written by a
// newer release.
var ErrUnsupportedVersion = errors.New("unsupported history version")

type logHeader struct {
	Version int `json:"meditate_history"`
}

// RecordLog is a JSONL file holding one session record per line. No handle
// is kept open between calls; each append is a single O_APPEND write, so
// concurrent sessions in separate processes do not interleave lines.
type RecordLog struct {
	path string
}

// OpenRecordLog returns the log at path, creating it and its directory on
// first use.
func OpenRecordLog(path string) (*RecordLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, fs.ErrExist) {
		return &RecordLog{path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	err = json.NewEncoder(f).Encode(logHeader{Version: LogVersion})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	return &RecordLog{path: path}, nil
}

// Path returns the file backing the log.
func (l *RecordLog) Path() string { return l.path }

// ReadAll returns every record in file order. Lines that are not valid
// records are skipped.
func (l *RecordLog) ReadAll() ([]model.SessionRecord, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []model.SessionRecord
	first := true
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if first {
			first = false
			var h logHeader
			if json.Unmarshal(line, &h) == nil && h.Version > 0 {
				if h.Version > LogVersion {
					return nil, fmt.Errorf("%w %d in %s (max %d)", ErrUnsupportedVersion, h.Version, l.path, LogVersion)
				}
				continue
			}
		}

		var r model.SessionRecord
		if json.Unmarshal(line, &r) != nil || r.ID == "" {
			continue
		}
		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("error reading %s: %w", l.path, err)
	}
	return records, nil
}

// Append writes r as a new line at the end of the log.
func (l *RecordLog) Append(r model.SessionRecord) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Replace atomically swaps the log contents for rs. The new file is written
// next to the old one and renamed over it, so a failed write leaves the
// previous history intact.
func (l *RecordLog) Replace(rs []model.SessionRecord) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".history-*.jsonl")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	if err = enc.Encode(logHeader{Version: LogVersion}); err != nil {
		return err
	}
	for _, r := range rs {
		if err = enc.Encode(r); err != nil {
			return err
		}
	}
	if err = w.Flush(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), l.path)
}
