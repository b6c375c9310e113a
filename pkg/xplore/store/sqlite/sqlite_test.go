package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cognicore/xplore/internal/storetest"
	"github.com/cognicore/xplore/pkg/xplore/store"
)

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		return st
	})
}

// TestSQLiteReopen checks runs survive closing and reopening the file
func TestSQLiteReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	st, err := OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	run := storetest.SampleRun("01J000000000000000000000AA")
	if err := st.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer st.Close()

	rows, err := st.Rows(ctx, run.Info.ID, store.RowQuery{})
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != len(run.Rows) {
		t.Errorf("Expected %d rows after reopen, got %d", len(run.Rows), len(rows))
	}
	if rows[0].ParentJapanese != "資産" {
		t.Errorf("Japanese text not preserved: %q", rows[0].ParentJapanese)
	}
}
