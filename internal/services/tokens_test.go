package services

import (
	"sync"
	"testing"
)

func TestNewSigningTokenUnique(t *testing.T) {
	const trials = 10000
	seen := make(map[string]struct{}, trials*2)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < trials/4; i++ {
				tok, err := NewSigningToken()
				if err != nil {
					t.Errorf("token: %v", err)
					return
				}
				id := NewDocumentID()
				mu.Lock()
				if _, dup := seen[tok]; dup {
					t.Errorf("signing token collision: %s", tok)
				}
				if _, dup := seen[id]; dup {
					t.Errorf("document id collision: %s", id)
				}
				seen[tok] = struct{}{}
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestNewSigningTokenShape(t *testing.T) {
	tok, err := NewSigningToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if len(tok) != 64 {
		t.Fatalf("token length = %d, want 64 hex chars", len(tok))
	}
	for _, r := range tok {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Fatalf("token contains non-hex rune %q", r)
		}
	}
}

func TestSigningURL(t *testing.T) {
	got := SigningURL("https", "sign.example.com", "abc123")
	if got != "https://sign.example.com/sign/abc123" {
		t.Fatalf("url = %q", got)
	}
}
