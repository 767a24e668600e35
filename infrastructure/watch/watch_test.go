package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.yaml")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		paths   []string
		wantErr error
		files   int
	}{
		{name: "two files in one dir", paths: []string{b, a}, files: 2},
		{name: "duplicate", paths: []string{a, a}, files: 1},
		{name: "no paths", wantErr: ErrNoPaths},
		{name: "missing file", paths: []string{filepath.Join(dir, "missing.csv")}, wantErr: os.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := New(tt.paths)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := len(w.Files()); got != tt.files {
				t.Errorf("len(Files()) = %d, want %d", got, tt.files)
			}
			if len(w.dirs) != 1 {
				t.Errorf("len(dirs) = %d, want 1", len(w.dirs))
			}
		})
	}
}

func TestWatcher_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	watched := filepath.Join(dir, "sales.csv")
	other := filepath.Join(dir, "notes.txt")
	for _, p := range []string{watched, other} {
		if err := os.WriteFile(p, []byte("a,b\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	w, err := New([]string{watched}, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []string, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) {
			changes <- changed
		})
	}()

	// Keep touching both files until the watcher is up and reports.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(5 * time.Second)

	var got []string
wait:
	for {
		select {
		case got = <-changes:
			break wait
		case <-ticker.C:
			_ = os.WriteFile(other, []byte("ignored\n"), 0o600)
			_ = os.WriteFile(watched, []byte("a,b\n1,2\n"), 0o600)
		case <-timeout:
			t.Fatal("no change reported")
		}
	}

	if len(got) != 1 || got[0] != watched {
		t.Errorf("changed = %v, want [%s]", got, watched)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run() did not stop after cancel")
	}
}

func TestWithDebounce_IgnoresNonPositive(t *testing.T) {
	t.Parallel()

	w := &Watcher{debounce: DefaultDebounce}
	WithDebounce(0)(w)
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
}
