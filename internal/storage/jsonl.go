package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"rateAdjuster/internal/model"
)

// JsonlStorage journals configuration change records as JSON lines and can
// read the most recent ones back.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutChanges appends changes to the journal file, creating it on first use.
func (s *JsonlStorage) PutChanges(_ context.Context, changes []model.ConfigChangeRecord) error {
	if len(changes) == 0 {
		return nil
	}

	var buf []byte
	for _, record := range changes {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal change record: %w", err)
		}
		buf = append(append(buf, line...), '\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if _, err := file.Write(buf); err != nil {
		file.Close()
		return fmt.Errorf("append journal: %w", err)
	}
	return file.Close()
}

// LatestChanges returns up to limit records, newest first, with
// DefaultLatestLimit standing in for a non-positive limit. A missing journal
// has no changes.
func (s *JsonlStorage) LatestChanges(_ context.Context, limit int) ([]model.ConfigChangeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	var all []model.ConfigChangeRecord
	scanner := bufio.NewScanner(file)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var record model.ConfigChangeRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", line, err)
		}
		all = append(all, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	if limit <= 0 {
		limit = DefaultLatestLimit
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]model.ConfigChangeRecord, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
