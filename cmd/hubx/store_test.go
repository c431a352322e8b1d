package main

import (
	"path/filepath"
	"testing"

	"github.com/bluescreen10/hubx"
	"github.com/bluescreen10/hubx/internal/config"
)

func TestOpenStoreSQLiteSurvivesReopen(t *testing.T) {
	cfg := &config.Config{TokenStore: "sqlite", TokenDSN: filepath.Join(t.TempDir(), "hubx.db")}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := hubx.NewTokenStore(store, "http://auth.test").Save("abc"); err != nil {
		t.Fatal(err)
	}
	closeStore()

	store, closeStore, err = openStore(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer closeStore()

	sess, err := hubx.NewSession(hubx.NewTokenStore(store, "http://auth.test"))
	if err != nil {
		t.Fatal(err)
	}
	if !sess.IsAuthenticated() {
		t.Fatal("expected session restored from the sqlite store")
	}
}

func TestOpenStoreMemory(t *testing.T) {
	store, closeStore, err := openStore(&config.Config{TokenStore: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	defer closeStore()

	if _, ok, err := store.Get(hubx.TokenKey); ok || err != nil {
		t.Fatalf("expected empty store got ok=%v err=%v", ok, err)
	}
}

func TestOpenStoreUnknown(t *testing.T) {
	if _, _, err := openStore(&config.Config{TokenStore: "floppy"}); err == nil {
		t.Fatal("expected error for unknown store")
	}
}
