package storage

import (
	"context"
	"strings"
	"testing"
)

// fakeRepo is a minimal Repository implementation for tests.
type fakeRepo struct {
	closed bool
}

func (f *fakeRepo) Exec(ctx context.Context, sql string, args ...any) error { return nil }

func (f *fakeRepo) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return nil, nil
}

func (f *fakeRepo) Tx(ctx context.Context, fn func(Session) error) error { return fn(f) }

func (f *fakeRepo) Close() { f.closed = true }

// TestRegisterAndNew_Success verifies that registering a backend enables New()
// to return the corresponding repository.
func TestRegisterAndNew_Success(t *testing.T) {
	t.Parallel()

	kind := "fake"
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		return &fakeRepo{}, nil
	})

	repo, err := New(context.Background(), Config{Kind: kind})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if repo == nil {
		t.Fatalf("New returned nil repo")
	}

	found := false
	for _, k := range Kinds() {
		if k == kind {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("registered kind %q not present in Kinds: %v", kind, Kinds())
	}
}

// TestNew_Unsupported verifies that unsupported kinds return a helpful error.
func TestNew_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Kind: "does-not-exist"})
	if err == nil {
		t.Fatalf("expected error for unsupported kind")
	}
	if !strings.Contains(err.Error(), `unknown kind "does-not-exist"`) {
		t.Fatalf("error = %q, want it to name the unknown kind", err.Error())
	}
}

// TestRegister_Override verifies that re-registering a kind overrides the
// previous factory (useful for tests and dynamic wiring).
func TestRegister_Override(t *testing.T) {
	t.Parallel()

	kind := "override"
	calls := 0

	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		calls++
		return &fakeRepo{}, nil
	})
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		calls += 100
		return &fakeRepo{}, nil
	})

	if _, err := New(context.Background(), Config{Kind: kind}); err != nil {
		t.Fatalf("New error: %v", err)
	}
	if calls != 100 {
		t.Fatalf("calls = %d; want the second factory only", calls)
	}
}

// TestDialectFor covers the kind→dialect mapping including the failure case.
func TestDialectFor(t *testing.T) {
	t.Parallel()

	for kind, want := range map[string]string{
		"postgres": "postgres",
		"sqlite":   "sqlite",
		"mysql":    "mysql",
	} {
		d, err := DialectFor(kind)
		if err != nil {
			t.Fatalf("DialectFor(%q): %v", kind, err)
		}
		if string(d) != want {
			t.Fatalf("DialectFor(%q) = %q, want %q", kind, d, want)
		}
	}

	if _, err := DialectFor("mssql"); err == nil {
		t.Fatal("expected error for unmapped kind")
	}
}
