package session

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("GetMissingFieldReturnsNotFound", func(t *testing.T) {
		s := newStore(t)
		_, ok, err := s.Get(ctx, "session-1", FieldAgentMeta)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Fatalf("Get() ok = true for a field never Put")
		}
	})

	t.Run("PutThenGetRoundTrips", func(t *testing.T) {
		s := newStore(t)
		if err := s.Put(ctx, "session-1", FieldAgentMeta, []byte(`{"id":"a1"}`)); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		got, ok, err := s.Get(ctx, "session-1", FieldAgentMeta)
		if err != nil || !ok {
			t.Fatalf("Get() = %s, %v, %v", got, ok, err)
		}
		if string(got) != `{"id":"a1"}` {
			t.Errorf("Get() = %s, want round-tripped value", got)
		}
	})

	t.Run("ExistsTracksLoadIfExists", func(t *testing.T) {
		s := newStore(t)
		exists, err := LoadIfExists(ctx, s, "session-2")
		if err != nil || exists {
			t.Fatalf("LoadIfExists() = %v, %v, want false for an unsaved key", exists, err)
		}
		s.Put(ctx, "session-2", FieldAgentMeta, []byte("{}"))
		exists, err = LoadIfExists(ctx, s, "session-2")
		if err != nil || !exists {
			t.Fatalf("LoadIfExists() = %v, %v, want true once agent_meta is set", exists, err)
		}
	})

	t.Run("AppendListPreservesOrder", func(t *testing.T) {
		s := newStore(t)
		if err := s.AppendList(ctx, "session-3", FieldMemoryMessages, []byte("m1"), []byte("m2")); err != nil {
			t.Fatalf("AppendList() error = %v", err)
		}
		if err := s.AppendList(ctx, "session-3", FieldMemoryMessages, []byte("m3")); err != nil {
			t.Fatalf("AppendList() error = %v", err)
		}
		items, err := s.GetList(ctx, "session-3", FieldMemoryMessages)
		if err != nil {
			t.Fatalf("GetList() error = %v", err)
		}
		want := [][]byte{[]byte("m1"), []byte("m2"), []byte("m3")}
		if !reflect.DeepEqual(items, want) {
			t.Errorf("GetList() = %v, want %v", items, want)
		}
	})

	t.Run("GetListEmptyForUnknownField", func(t *testing.T) {
		s := newStore(t)
		items, err := s.GetList(ctx, "session-4", FieldMemoryMessages)
		if err != nil {
			t.Fatalf("GetList() error = %v", err)
		}
		if len(items) != 0 {
			t.Errorf("GetList() = %v, want empty", items)
		}
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestFileStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		dir := filepath.Join(t.TempDir(), "sessions")
		store, err := NewFileStore(dir)
		if err != nil {
			t.Fatalf("NewFileStore() error = %v", err)
		}
		return store
	})
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	if err := first.Put(ctx, "session-1", FieldAgentMeta, []byte(`{"id":"a1"}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	second, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() second open error = %v", err)
	}
	got, ok, err := second.Get(ctx, "session-1", FieldAgentMeta)
	if err != nil || !ok || string(got) != `{"id":"a1"}` {
		t.Fatalf("Get() on reopened store = %s, %v, %v", got, ok, err)
	}

	if _, err := os.Stat(filepath.Join(dir, "session-1.json")); err != nil {
		t.Errorf("expected a JSON document for session-1, stat error = %v", err)
	}
}

func TestStatePersistence_Presets(t *testing.T) {
	none := None()
	if !none.AgentManaged || none.MemoryManaged || none.ToolkitManaged || none.PlanNotebookManaged {
		t.Errorf("None() = %+v, want only AgentManaged true", none)
	}
	all := All()
	if !all.AgentManaged || !all.MemoryManaged || !all.ToolkitManaged || !all.PlanNotebookManaged {
		t.Errorf("All() = %+v, want every field true", all)
	}
	memOnly := MemoryOnly()
	if !memOnly.MemoryManaged || memOnly.AgentManaged || memOnly.ToolkitManaged || memOnly.PlanNotebookManaged {
		t.Errorf("MemoryOnly() = %+v, want only MemoryManaged true", memOnly)
	}
}
