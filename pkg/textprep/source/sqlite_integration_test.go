package source

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tweets.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE tweets (text TEXT NOT NULL, inappropriate INTEGER NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	rows := []struct {
		text  string
		label int
	}{
		{"first tweet", 0},
		{"second tweet", 1},
		{"third tweet", 0},
	}
	for _, r := range rows {
		if _, err := db.Exec(`INSERT INTO tweets (text, inappropriate) VALUES (?, ?)`, r.text, r.label); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	return path
}

func TestSQLiteLoadDefaultQuery(t *testing.T) {
	src := &SQLiteSource{Path: seedDB(t)}

	docs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("got %d docs, want 3", len(docs))
	}

	// rowid order matches insert order
	if docs[0].Text != "first tweet" || docs[2].Text != "third tweet" {
		t.Errorf("row order not preserved: %+v", docs)
	}
	if docs[0].Inappropriate || !docs[1].Inappropriate {
		t.Errorf("labels not preserved: %+v", docs)
	}
}

func TestSQLiteCustomQuery(t *testing.T) {
	src := &SQLiteSource{
		Path:  seedDB(t),
		Query: "SELECT text, inappropriate FROM tweets WHERE inappropriate = 1",
	}

	docs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(docs) != 1 || docs[0].Text != "second tweet" {
		t.Errorf("unexpected docs: %+v", docs)
	}
}

func TestSQLiteBadQuery(t *testing.T) {
	src := &SQLiteSource{Path: seedDB(t), Query: "SELECT nope FROM nothing"}
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("expected error for bad query")
	}
}
