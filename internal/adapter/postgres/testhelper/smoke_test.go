//go:build integration

package testhelper

import (
	"context"
	"testing"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	pool := SetupTestDB(t)

	var n int
	err := pool.QueryRow(context.Background(), `SELECT count(*) FROM documents WHERE key = $1`, "smoke/none.json").Scan(&n)
	if err != nil {
		t.Fatalf("expected documents table, got error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 rows, got %d", n)
	}
}
