// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/flowmove/flowmove/lib/codec"
)

// JournalRecord is one migration outcome as persisted in the journal.
type JournalRecord struct {
	Time          time.Time `cbor:"time" json:"time"`
	SourceKind    string    `cbor:"source_kind" json:"source_kind"`
	SourceID      string    `cbor:"source_id" json:"source_id"`
	SourceName    string    `cbor:"source_name" json:"source_name"`
	SourceAccount string    `cbor:"source_account,omitempty" json:"source_account,omitempty"`
	Destination   string    `cbor:"destination" json:"destination"`
	Identity      string    `cbor:"identity,omitempty" json:"identity,omitempty"`
	Name          string    `cbor:"name,omitempty" json:"name,omitempty"`
	Reached       string    `cbor:"reached" json:"reached"`
	State         string    `cbor:"state" json:"state"`
	Error         string    `cbor:"error,omitempty" json:"error,omitempty"`
	Orphaned      bool      `cbor:"orphaned" json:"orphaned"`
}

// newJournalRecord flattens a result for persistence.
func newJournalRecord(result Result, destination string, at time.Time) JournalRecord {
	record := JournalRecord{
		Time:          at,
		SourceKind:    string(result.Source.Kind),
		SourceID:      result.Source.ID,
		SourceName:    result.Source.Name,
		SourceAccount: result.Source.Account,
		Destination:   destination,
		Identity:      result.Identity,
		Name:          result.Name,
		Reached:       result.Reached.String(),
		State:         result.State().String(),
		Orphaned:      result.Orphaned(),
	}
	if result.Err != nil {
		record.Error = result.Err.Error()
	}
	return record
}

// Journal is an append-only file of CBOR-encoded JournalRecords, one
// data item per migration. The file is opened per append so concurrent
// runs interleave whole records.
type Journal struct {
	path string
	mu   sync.Mutex
}

// OpenJournal returns a journal at path. The file and its directory are
// created on first append.
func OpenJournal(path string) *Journal {
	return &Journal{path: path}
}

// Path returns the journal file path.
func (journal *Journal) Path() string { return journal.path }

// Append writes one record.
func (journal *Journal) Append(record JournalRecord) error {
	data, err := codec.Marshal(record)
	if err != nil {
		return fmt.Errorf("migrate: encoding journal record: %w", err)
	}

	journal.mu.Lock()
	defer journal.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(journal.path), 0o700); err != nil {
		return fmt.Errorf("migrate: creating journal directory: %w", err)
	}
	file, err := os.OpenFile(journal.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("migrate: opening journal: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("migrate: writing journal: %w", err)
	}
	return file.Close()
}

// ReadJournal decodes every record in the journal at path, oldest
// first. A missing file is an empty journal. A truncated final record,
// left by a crash mid-append, ends the read without error.
func ReadJournal(path string) ([]JournalRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("migrate: opening journal: %w", err)
	}
	defer file.Close()

	var records []JournalRecord
	decoder := codec.NewDecoder(file)
	for {
		var record JournalRecord
		err := decoder.Decode(&record)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("migrate: reading journal record %d: %w", len(records)+1, err)
		}
		records = append(records, record)
	}
}

// OrphanRecords filters records to migrations that left uploads behind.
func OrphanRecords(records []JournalRecord) []JournalRecord {
	var orphans []JournalRecord
	for _, record := range records {
		if record.Orphaned {
			orphans = append(orphans, record)
		}
	}
	return orphans
}
