// Package repository provides audit record sinks.
package repository

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"sync"

	auditDomain "github.com/allisson/gitgate/internal/audit/domain"
	apperrors "github.com/allisson/gitgate/internal/errors"
)

// FileRepository appends audit records to a JSONL file, one record per line.
type FileRepository struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileRepository opens (creating if needed) the audit log file for appending.
func NewFileRepository(path string) (*FileRepository, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open audit log file")
	}
	return &FileRepository{file: file}, nil
}

// Append writes one record as a JSON line. Appends are serialized so
// concurrent requests never interleave partial lines.
func (r *FileRepository) Append(ctx context.Context, record *auditDomain.Record) error {
	line, err := json.Marshal(record)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal audit record")
	}
	line = append(line, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.file.Write(line); err != nil {
		return apperrors.Wrap(err, "failed to append audit record")
	}
	return nil
}

// Close releases the underlying file.
func (r *FileRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

// LoadRecords reads every record from a JSONL audit log file.
// Used by the offline verification command.
func LoadRecords(path string) ([]*auditDomain.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open audit log file")
	}
	defer func() { _ = file.Close() }()

	var records []*auditDomain.Record
	scanner := bufio.NewScanner(file)
	// Records with large metadata can exceed the default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		record := &auditDomain.Record{}
		if err := json.Unmarshal(line, record); err != nil {
			return nil, apperrors.Wrap(err, "failed to parse audit record")
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to read audit log file")
	}

	return records, nil
}
