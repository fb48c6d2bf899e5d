// SPDX-License-Identifier: AGPL-3.0-only
package singleton

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "database.db")

	lock, err := Acquire(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := os.Stat(dbPath + ".lock"); err != nil {
		t.Errorf("lock file missing: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	again, err := Acquire(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Acquire after Release: %v", err)
	}
	_ = again.Release()
}

func TestAcquireCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "nested", "database.db")

	lock, err := Acquire(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer func() { _ = lock.Release() }()

	if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
		t.Errorf("parent directory not created: %v", err)
	}
}

func TestSecondSeederWaits(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "database.db")
	first, err := Acquire(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	acquired := make(chan *Lock, 1)
	go func() {
		lock, err := Acquire(context.Background(), dbPath)
		if err != nil {
			t.Errorf("second Acquire: %v", err)
			close(acquired)
			return
		}
		acquired <- lock
	}()

	select {
	case <-acquired:
		t.Fatal("second seeder got the lock while the first held it")
	case <-time.After(200 * time.Millisecond):
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	select {
	case lock := <-acquired:
		if lock != nil {
			_ = lock.Release()
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second seeder never got the lock")
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "database.db")
	held, err := Acquire(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer func() { _ = held.Release() }()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if lock, err := Acquire(ctx, dbPath); err == nil {
		_ = lock.Release()
		t.Fatal("Acquire should fail once the context is done")
	}
}

// A seeder that dies while holding the lock must not block later starts.
func TestLockFreedWhenHolderDies(t *testing.T) {
	if os.Getenv("SINGLETON_HOLDER") == "1" {
		dbPath := os.Getenv("SINGLETON_DB_PATH")
		if _, err := Acquire(context.Background(), dbPath); err != nil {
			os.Exit(2)
		}
		_ = os.WriteFile(dbPath+".held", []byte("1"), 0o600)
		for {
			time.Sleep(time.Hour)
		}
	}

	dbPath := filepath.Join(t.TempDir(), "database.db")
	cmd := exec.Command(os.Args[0], "-test.run=^TestLockFreedWhenHolderDies$")
	cmd.Env = append(os.Environ(), "SINGLETON_HOLDER=1", "SINGLETON_DB_PATH="+dbPath)
	if err := cmd.Start(); err != nil {
		t.Fatalf("start holder: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	deadline := time.Now().Add(10 * time.Second)
	for {
		if _, err := os.Stat(dbPath + ".held"); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("holder never took the lock")
		}
		time.Sleep(20 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	if lock, err := Acquire(ctx, dbPath); err == nil {
		_ = lock.Release()
		t.Error("lock held by another process should not be acquired")
	}
	cancel()

	if err := cmd.Process.Kill(); err != nil {
		t.Fatalf("kill holder: %v", err)
	}
	_ = cmd.Wait()

	lock, err := Acquire(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Acquire after holder died: %v", err)
	}
	_ = lock.Release()
}
