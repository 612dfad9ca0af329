package idgen

import (
	"strings"
	"sync"
	"testing"
)

func TestGenerate_Unique(t *testing.T) {
	g := NewSimpleGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.Generate()
		if seen[id] {
			t.Fatalf("duplicate ID: %s", id)
		}
		seen[id] = true
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	g := NewSimpleGenerator()

	id := g.GenerateWithPrefix("msg")
	if !strings.HasPrefix(id, "msg_") {
		t.Errorf("expected msg_ prefix, got %s", id)
	}
	if parts := strings.Split(id, "_"); len(parts) != 4 {
		t.Errorf("expected prefix_timestamp_counter_random, got %s", id)
	}

	id = g.Generate()
	if parts := strings.Split(id, "_"); len(parts) != 3 {
		t.Errorf("expected timestamp_counter_random, got %s", id)
	}
}

func TestGenerate_ConcurrentUnique(t *testing.T) {
	g := NewSimpleGenerator()
	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id := g.Generate()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate ID under concurrency: %s", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestGenerateMessageID(t *testing.T) {
	if id := GenerateMessageID(); !strings.HasPrefix(id, "msg_") {
		t.Errorf("expected msg_ prefix, got %s", id)
	}
}
