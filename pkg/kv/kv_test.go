package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) ok=%v err=%v, want false nil", ok, err)
	}
	if err := s.Set(ctx, "a", []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("Set() err=%v, want nil", err)
	}
	if err := s.Set(ctx, "a", []byte(`[{"id":"2"}]`)); err != nil {
		t.Fatalf("Set() overwrite err=%v, want nil", err)
	}
	got, ok, err := s.Get(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("Get(a) ok=%v err=%v, want true nil", ok, err)
	}
	if string(got) != `[{"id":"2"}]` {
		t.Fatalf("Get(a)=%s, want the overwritten value", got)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() err=%v", err)
	}
	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Fatalf("Get(a) after Delete ok=true, want false")
	}
	// Deleting twice is fine.
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("second Delete() err=%v", err)
	}
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()
	buf := []byte("abc")
	_ = m.Set(context.Background(), "k", buf)
	buf[0] = 'z'
	got, _, _ := m.Get(context.Background(), "k")
	if string(got) != "abc" {
		t.Fatalf("Memory kept a reference to the caller's slice: %s", got)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() err=%v", err)
	}
	exerciseStore(t, f)
}

func TestFilePersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() err=%v", err)
	}
	if err := f.Set(context.Background(), "taskboard:tasks:anonymous", []byte(`[]`)); err != nil {
		t.Fatalf("Set() err=%v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() err=%v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected 0600 permissions, got %v", info.Mode().Perm())
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen err=%v", err)
	}
	got, ok, _ := reopened.Get(context.Background(), "taskboard:tasks:anonymous")
	if !ok || string(got) != "[]" {
		t.Fatalf("Get() after reopen = %q, %v", got, ok)
	}
}

func TestFileRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Fatal("expected error for a corrupt document")
	}
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQL("sqlite", filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("OpenSQL() err=%v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteMigrationIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	first, err := OpenSQL("sqlite", path)
	if err != nil {
		t.Fatalf("OpenSQL() err=%v", err)
	}
	if err := first.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Set() err=%v", err)
	}
	first.Close()

	second, err := OpenSQL("sqlite", path)
	if err != nil {
		t.Fatalf("second OpenSQL() err=%v", err)
	}
	defer second.Close()
	got, ok, err := second.Get(context.Background(), "k")
	if err != nil || !ok || string(got) != "v" {
		t.Fatalf("Get() = %q, %v, %v", got, ok, err)
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open("redis", "x"); err == nil {
		t.Error("expected error for an unknown driver")
	}
	if _, err := Open("mysql", ""); err == nil {
		t.Error("expected error for an empty mysql dsn")
	}
	s, err := Open("memory", "")
	if err != nil {
		t.Fatalf("Open(memory) err=%v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("Open(memory) returned %T", s)
	}
}

func TestFileSharedBetweenHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	background, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() err=%v", err)
	}
	foreground, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() err=%v", err)
	}

	if err := foreground.Set(ctx, "taskboard:tasks:anonymous", []byte(`[{"id":"new"}]`)); err != nil {
		t.Fatalf("Set(tasks) err=%v", err)
	}
	if err := background.Set(ctx, "taskboard:events:anonymous", []byte(`{}`)); err != nil {
		t.Fatalf("Set(events) err=%v", err)
	}
	if err := background.Close(); err != nil {
		t.Fatalf("Close() err=%v", err)
	}

	reopened, err := OpenFile(path)
	if err != nil {
		t.Fatalf("reopen err=%v", err)
	}
	got, ok, _ := reopened.Get(ctx, "taskboard:tasks:anonymous")
	if !ok || string(got) != `[{"id":"new"}]` {
		t.Errorf("tasks slot after the other handle wrote = %q, %v", got, ok)
	}
	if _, ok, _ := reopened.Get(ctx, "taskboard:events:anonymous"); !ok {
		t.Error("events slot missing")
	}

	// The foreground handle sees the slot the background one wrote.
	if _, ok, _ := foreground.Get(ctx, "taskboard:events:anonymous"); !ok {
		t.Error("Get() served a stale document")
	}
	if err := background.Delete(ctx, "taskboard:tasks:anonymous"); err != nil {
		t.Fatalf("Delete() err=%v", err)
	}
	if _, ok, _ := foreground.Get(ctx, "taskboard:tasks:anonymous"); ok {
		t.Error("Get() still sees a slot deleted by the other handle")
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Errorf("lock file left behind: %v", err)
	}
}

func TestFileBreaksStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile() err=%v", err)
	}
	lock := path + ".lock"
	if err := os.WriteFile(lock, nil, 0600); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Minute)
	if err := os.Chtimes(lock, old, old); err != nil {
		t.Fatal(err)
	}
	if err := f.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Set() with a stale lock err=%v", err)
	}
}
