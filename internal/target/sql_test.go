package target

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "targets.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLTarget_WriteReadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	tgt := NewSQLTarget(db, "artifacts", "program-1")

	if err := tgt.Write([]byte("row data")); err != nil {
		t.Fatalf("write: %v", err)
	}

	exists, err := tgt.Exists()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("expected row to exist after write")
	}

	data, err := tgt.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(data, []byte("row data")) {
		t.Errorf("read %q, want %q", data, "row data")
	}
}

func TestSQLTarget_WriteOverwrites(t *testing.T) {
	db := openTestDB(t)
	tgt := NewSQLTarget(db, "artifacts", "k")

	if err := tgt.Write([]byte("v1")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := tgt.Write([]byte("v2")); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := tgt.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "v2" {
		t.Errorf("read %q, want %q", data, "v2")
	}
}

func TestSQLTarget_DeleteRoundTrip(t *testing.T) {
	db := openTestDB(t)
	tgt := NewSQLTarget(db, "artifacts", "k")

	if err := tgt.Write([]byte("b")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := tgt.Delete(); err != nil {
		t.Fatalf("delete: %v", err)
	}

	exists, err := tgt.Exists()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Error("expected row to be absent after delete")
	}
}

func TestSQLTarget_DeleteAbsentIsNoOp(t *testing.T) {
	db := openTestDB(t)
	tgt := NewSQLTarget(db, "artifacts", "never-written")
	if err := tgt.Delete(); err != nil {
		t.Errorf("delete of absent row should succeed, got %v", err)
	}
}

func TestSQLTarget_ReadAbsentFails(t *testing.T) {
	db := openTestDB(t)
	tgt := NewSQLTarget(db, "artifacts", "missing")
	if _, err := tgt.Read(); err == nil {
		t.Error("expected read of absent row to fail")
	}
}

func TestSQLTarget_KeysAreIndependent(t *testing.T) {
	db := openTestDB(t)
	a := NewSQLTarget(db, "artifacts", "a")
	b := NewSQLTarget(db, "artifacts", "b")

	if err := a.Write([]byte("a data")); err != nil {
		t.Fatalf("write a: %v", err)
	}

	exists, err := b.Exists()
	if err != nil {
		t.Fatalf("exists b: %v", err)
	}
	if exists {
		t.Error("writing key a must not create key b")
	}

	if err := b.Write([]byte("b data")); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if err := a.Delete(); err != nil {
		t.Fatalf("delete a: %v", err)
	}

	data, err := b.Read()
	if err != nil {
		t.Fatalf("read b after deleting a: %v", err)
	}
	if string(data) != "b data" {
		t.Errorf("read %q, want %q", data, "b data")
	}
}

func TestSQLTarget_TwoHandlesObserveEachOther(t *testing.T) {
	db := openTestDB(t)
	a := NewSQLTarget(db, "artifacts", "shared")
	b := NewSQLTarget(db, "artifacts", "shared")

	if err := a.Write([]byte("from a")); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := b.Read()
	if err != nil {
		t.Fatalf("read through second handle: %v", err)
	}
	if string(data) != "from a" {
		t.Errorf("second handle read %q, want %q", data, "from a")
	}
}
