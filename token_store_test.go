package hubx_test

import (
	"errors"
	"testing"

	"github.com/bluescreen10/hubx"
	"github.com/bluescreen10/hubx/memstore"
)

var errStore = errors.New("store unavailable")

// failingStore wraps a Store and fails the operations that are switched
// on.
type failingStore struct {
	hubx.Store
	failGet, failSet, failDelete bool
}

func (s *failingStore) Get(key string) ([]byte, bool, error) {
	if s.failGet {
		return nil, false, errStore
	}
	return s.Store.Get(key)
}

func (s *failingStore) Set(key string, data []byte) error {
	if s.failSet {
		return errStore
	}
	return s.Store.Set(key, data)
}

func (s *failingStore) Delete(key string) error {
	if s.failDelete {
		return errStore
	}
	return s.Store.Delete(key)
}

func TestTokenStoreSaveRead(t *testing.T) {
	tokens := hubx.NewTokenStore(memstore.New(), "")

	if _, ok, err := tokens.Read(); ok || err != nil {
		t.Fatalf("expected no token got ok=%v err=%v", ok, err)
	}

	if err := tokens.Save("abc"); err != nil {
		t.Fatal(err)
	}

	token, ok, err := tokens.Read()
	if err != nil || !ok || token != "abc" {
		t.Fatalf("expected 'abc' got '%s' ok=%v err=%v", token, ok, err)
	}

	if err := tokens.Save("def"); err != nil {
		t.Fatal(err)
	}
	if token, _, _ := tokens.Read(); token != "def" {
		t.Fatalf("expected overwritten 'def' got '%s'", token)
	}
}

func TestTokenStoreClear(t *testing.T) {
	tokens := hubx.NewTokenStore(memstore.New(), "")
	tokens.Save("abc")

	if err := tokens.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := tokens.Read(); ok {
		t.Fatal("expected token to be cleared")
	}

	// clearing twice is fine
	if err := tokens.Clear(); err != nil {
		t.Fatal(err)
	}
}

func TestTokenStoreEmptyIsAbsent(t *testing.T) {
	store := memstore.New()
	store.Set(hubx.TokenKey, []byte{})

	if _, ok, err := hubx.NewTokenStore(store, "").Read(); ok || err != nil {
		t.Fatalf("expected empty token to read as absent got ok=%v err=%v", ok, err)
	}
}

func TestTokenStoreScopedByOrigin(t *testing.T) {
	store := memstore.New()
	a := hubx.NewTokenStore(store, "http://a.test")
	b := hubx.NewTokenStore(store, "http://b.test")

	a.Save("token-a")

	if _, ok, _ := b.Read(); ok {
		t.Fatal("expected origins to be isolated")
	}
	if data, ok, _ := store.Get("http://a.test|" + hubx.TokenKey); !ok || string(data) != "token-a" {
		t.Fatalf("expected scoped key to hold 'token-a' got '%s'", data)
	}
}

func TestTokenStoreErrors(t *testing.T) {
	store := &failingStore{Store: memstore.New(), failGet: true, failSet: true, failDelete: true}
	tokens := hubx.NewTokenStore(store, "")

	if err := tokens.Save("abc"); !errors.Is(err, errStore) {
		t.Fatalf("expected wrapped store error got %v", err)
	}
	if _, _, err := tokens.Read(); !errors.Is(err, errStore) {
		t.Fatalf("expected wrapped store error got %v", err)
	}
	if err := tokens.Clear(); !errors.Is(err, errStore) {
		t.Fatalf("expected wrapped store error got %v", err)
	}
}
