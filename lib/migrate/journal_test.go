// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJournal_AppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.cbor")
	journal := OpenJournal(path)

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("CST", 8*3600))
	results := []Result{
		{
			Source:   Source{Kind: SourceLocal, ID: "app-1", Name: "甲", Account: "user-1"},
			Identity: "id-1",
			Name:     "甲" + testSuffix,
			Reached:  ManifestUploaded,
			Err:      errors.New("register: rejected"),
		},
		{
			Source:   Source{Kind: SourceRemote, ID: "r-2", Name: "乙", Account: "source"},
			Identity: "id-2",
			Reached:  Registered,
		},
	}
	for _, result := range results {
		if err := journal.Append(newJournalRecord(result, "dest", at)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	records, err := ReadJournal(path)
	if err != nil {
		t.Fatalf("ReadJournal: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("read %d records, want 2", len(records))
	}

	first := records[0]
	if first.SourceKind != "local" || first.SourceID != "app-1" || first.Reached != "manifest-uploaded" ||
		first.State != "aborted" || first.Error != "register: rejected" || !first.Orphaned {
		t.Errorf("first = %+v", first)
	}
	if !first.Time.Equal(at) {
		t.Errorf("Time = %v, want %v", first.Time, at)
	}
	if _, offset := first.Time.Zone(); offset != 8*3600 {
		t.Errorf("zone offset = %d, want +8h preserved", offset)
	}
	if second := records[1]; second.State != "registered" || second.Orphaned || second.SourceAccount != "source" {
		t.Errorf("second = %+v", second)
	}
	if orphans := OrphanRecords(records); len(orphans) != 1 || orphans[0].Identity != "id-1" {
		t.Errorf("OrphanRecords = %+v", orphans)
	}
}

func TestReadJournal_Missing(t *testing.T) {
	records, err := ReadJournal(filepath.Join(t.TempDir(), "absent.cbor"))
	if err != nil || len(records) != 0 {
		t.Errorf("ReadJournal(missing) = %v, %v", records, err)
	}
}

func TestReadJournal_TruncatedTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.cbor")
	journal := OpenJournal(path)
	for _, id := range []string{"id-1", "id-2"} {
		result := Result{Source: Source{Kind: SourceLocal, ID: id}, Identity: id, Reached: Registered}
		if err := journal.Append(newJournalRecord(result, "dest", testTime)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data[:len(data)-5], 0o600); err != nil {
		t.Fatal(err)
	}

	records, err := ReadJournal(path)
	if err != nil {
		t.Fatalf("ReadJournal: %v", err)
	}
	if len(records) != 1 || records[0].Identity != "id-1" {
		t.Errorf("records = %+v, want only the complete first record", records)
	}
}
