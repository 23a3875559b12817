package credentials

import (
	"encoding/base64"
	"strings"
	"sync"
	"testing"
)

func TestStore_SetGetClear(t *testing.T) {
	s := New(Credentials{Username: "admin", Password: "password"})
	if got := s.Get(); got.Username != "admin" || got.Password != "password" {
		t.Fatalf("Get = %#v, want admin/password", got)
	}

	s.Set("ops", "s3cret")
	if got := s.Get(); got.Username != "ops" || got.Password != "s3cret" {
		t.Fatalf("Get after Set = %#v, want ops/s3cret", got)
	}

	s.Clear()
	if got := s.Get(); !got.IsZero() {
		t.Fatalf("Get after Clear = %#v, want empty", got)
	}
}

func TestStore_ZeroValueIsEmpty(t *testing.T) {
	var s Store
	if !s.Get().IsZero() {
		t.Fatalf("zero Store should hold empty credentials")
	}
}

func TestBasicAuth_EncodesUserColonPassword(t *testing.T) {
	s := New(Credentials{Username: "a", Password: "b:c"})
	header := s.BasicAuth()
	if !strings.HasPrefix(header, "Basic ") {
		t.Fatalf("BasicAuth = %q, want Basic prefix", header)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(raw) != "a:b:c" {
		t.Fatalf("decoded = %q, want %q", raw, "a:b:c")
	}
}

func TestStore_ConcurrentSetNeverTearsPair(t *testing.T) {
	s := New(Credentials{Username: "u0", Password: "p0"})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				s.Set("u1", "p1")
			} else {
				s.Set("u0", "p0")
			}
		}
		close(stop)
	}()

	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
		got := s.Get()
		if strings.TrimPrefix(got.Username, "u") != strings.TrimPrefix(got.Password, "p") {
			t.Fatalf("observed torn pair %#v", got)
		}
	}
}
