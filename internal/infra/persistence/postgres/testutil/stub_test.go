package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubDBStoresAndQueriesRows(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	upsert := "INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload"
	for _, payload := range []string{`{"v":1}`, `{"v":2}`} {
		if _, err := conn.ExecContext(ctx, upsert, []driver.NamedValue{{Value: "doc"}, {Value: payload}}); err != nil {
			t.Fatalf("ExecContext insert: %v", err)
		}
	}
	if len(conn.Tables["state"]) != 1 {
		t.Fatalf("expected upsert to keep one row, got %v", conn.Tables["state"])
	}

	conn.Tables["state"] = append(conn.Tables["state"], map[string]any{"bucket": "other", "payload": "{}"})
	rows, err := conn.QueryContext(ctx, "SELECT payload FROM state WHERE bucket = $1", []driver.NamedValue{{Value: "doc"}})
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	defer func() { _ = rows.Close() }()

	dest := make([]driver.Value, 1)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if dest[0] != `{"v":2}` {
		t.Fatalf("unexpected row values: %v", dest)
	}
	if err := rows.Next(dest); err == nil {
		t.Fatalf("expected filtered result to hold one row")
	}

	if _, err := conn.ExecContext(ctx, "DELETE FROM state WHERE bucket=$1", []driver.NamedValue{{Value: "doc"}}); err != nil {
		t.Fatalf("ExecContext delete: %v", err)
	}
	if len(conn.Tables["state"]) != 1 {
		t.Fatalf("expected delete to remove one row, got %v", conn.Tables["state"])
	}
}
