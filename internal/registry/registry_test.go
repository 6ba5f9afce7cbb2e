package registry

import "testing"

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := New[int]()
	if _, err := r.Register("left", 1); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, ok := r.Get("left")
	if !ok || got != 1 {
		t.Errorf("Get(left) = (%d, %v), want (1, true)", got, ok)
	}
}

func TestRegistry_RegisterDuplicateNameRejected(t *testing.T) {
	r := New[int]()
	if _, err := r.Register("left", 1); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := r.Register("left", 2); err == nil {
		t.Error("expected error registering duplicate name")
	}
}

func TestRegistry_GetByIndex(t *testing.T) {
	r := New[string]()
	r.Register("a", "first")
	r.Register("b", "second")

	got, ok := r.GetByIndex(1)
	if !ok || got != "second" {
		t.Errorf("GetByIndex(1) = (%q, %v), want (second, true)", got, ok)
	}
	if _, ok := r.GetByIndex(5); ok {
		t.Error("expected ok=false for out-of-range index")
	}
}

func TestRegistry_ForEach_ShortCircuits(t *testing.T) {
	r := New[int]()
	r.Register("a", 1)
	r.Register("b", 2)
	r.Register("c", 3)

	var visited []string
	r.ForEach(func(name string, val int) bool {
		visited = append(visited, name)
		return val == 2
	})

	want := []string{"a", "b"}
	if len(visited) != len(want) {
		t.Fatalf("visited = %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, visited[i], want[i])
		}
	}
}

func TestRegistry_Len(t *testing.T) {
	r := New[int]()
	if r.Len() != 0 {
		t.Errorf("Len() on empty registry = %d, want 0", r.Len())
	}
	r.Register("a", 1)
	r.Register("b", 2)
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}
