package postgres

import (
	"context"
	"strings"
	"testing"
)

func TestNewTables_Prefix(t *testing.T) {
	tables := NewTables("dev_")
	if tables.Documents != "dev_documents" {
		t.Errorf("Documents = %q", tables.Documents)
	}
	if tables.Versions != "dev_document_versions" {
		t.Errorf("Versions = %q", tables.Versions)
	}
}

func TestSchema_CascadesVersions(t *testing.T) {
	stmts := Schema(NewTables(""))
	if len(stmts) == 0 {
		t.Fatal("expected DDL statements")
	}

	var found bool
	for _, s := range stmts {
		if strings.Contains(s, "CREATE TABLE IF NOT EXISTS document_versions") {
			found = true
			if !strings.Contains(s, "REFERENCES documents (id) ON DELETE CASCADE") {
				t.Errorf("versions table must cascade on delete: %s", s)
			}
		}
	}
	if !found {
		t.Error("versions table missing from schema")
	}
}

func TestConnect_RequiresDSN(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if _, err := Connect(ctx, Config{}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
