package gormstore_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bluescreen10/hubx"
	"github.com/bluescreen10/hubx/gormstore"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func TestMySQLDialect(t *testing.T) {
	s, err := gormstore.New(getMySQLDB(t))
	if err != nil {
		t.Fatal(err)
	}

	tokens := hubx.NewTokenStore(s, "http://auth.test")
	if err := tokens.Save("first"); err != nil {
		t.Fatal(err)
	}
	if err := tokens.Save("second"); err != nil {
		t.Fatal(err)
	}

	token, ok, err := tokens.Read()
	if err != nil {
		t.Fatal(err)
	}
	if !ok || token != "second" {
		t.Fatalf("expected 'second' got '%s' (found %v)", token, ok)
	}

	if err := tokens.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := tokens.Read(); ok || err != nil {
		t.Fatalf("expected cleared token got ok=%v err=%v", ok, err)
	}
}

func getMySQLDB(t *testing.T) *gorm.DB {
	if testing.Short() {
		t.Skip("mysql container tests skipped in short mode")
	}

	ctx := context.Background()
	server, err := testcontainers.Run(
		ctx, "mariadb:latest",
		testcontainers.WithEnv(map[string]string{
			"MARIADB_ROOT_PASSWORD": "rootpass",
			"MARIADB_DATABASE":      "testdb",
			"MARIADB_USER":          "testuser",
			"MARIADB_PASSWORD":      "testpass",
		}),
		testcontainers.WithExposedPorts("3306/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("3306/tcp"),
			wait.ForLog("ready for connections").WithOccurrence(2),
		),
	)
	testcontainers.CleanupContainer(t, server)
	if err != nil {
		t.Skipf("mysql container unavailable: %v", err)
	}

	host, err := server.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := server.MappedPort(ctx, "3306")
	if err != nil {
		t.Fatal(err)
	}

	dsn := fmt.Sprintf("testuser:testpass@tcp(%s:%s)/testdb?parseTime=true", host, port.Port())

	var db *gorm.DB
	for i := 0; i < 10; i++ {
		if db, err = gormstore.Open("mysql", dsn); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
