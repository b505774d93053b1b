package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/quantrail/finsight/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStorage_DocumentCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	doc := &models.Document{
		ID:           "doc1",
		Title:        "acme_q3_2024.pdf",
		Content:      "Total revenue was $734.2 million.",
		CompanyName:  "Acme Corp",
		FiscalPeriod: "Q3 2024",
		Metadata:     map[string]interface{}{"source_path": "/inbox/acme_q3_2024.pdf"},
	}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Errorf("new document status = %q, want pending", got.Status)
	}
	if got.CompanyName != "Acme Corp" || got.FiscalPeriod != "Q3 2024" {
		t.Errorf("company/period = %q/%q", got.CompanyName, got.FiscalPeriod)
	}
	if got.Metadata["source_path"] != "/inbox/acme_q3_2024.pdf" {
		t.Errorf("metadata = %v", got.Metadata)
	}

	got.Title = "renamed.pdf"
	if err := s.UpdateDocument(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = s.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "renamed.pdf" {
		t.Errorf("title = %q", got.Title)
	}

	if err := s.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetDocument(ctx, "doc1"); err == nil {
		t.Error("deleted document should not be found")
	}
}

func TestSQLiteStorage_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	doc := &models.Document{ID: "doc1", Content: "text"}
	if err := s.CreateDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateStatus(ctx, "doc1", models.StatusFailed, "embedding provider unreachable"); err != nil {
		t.Fatalf("update status: %v", err)
	}
	got, err := s.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.StatusError != "embedding provider unreachable" {
		t.Errorf("status error = %q", got.StatusError)
	}

	if err := s.UpdateStatus(ctx, "doc1", models.StatusCompleted, ""); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetDocument(ctx, "doc1")
	if got.Status != models.StatusCompleted || got.StatusError != "" {
		t.Errorf("status = %q, error = %q", got.Status, got.StatusError)
	}

	if err := s.UpdateStatus(ctx, "missing", models.StatusCompleted, ""); err == nil {
		t.Error("updating status of a missing document should fail")
	}
}

func TestSQLiteStorage_ListAndCount(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	for _, id := range []string{"a", "b", "c"} {
		if err := s.CreateDocument(ctx, &models.Document{ID: id, Content: "text " + id}); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := s.ListDocuments(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Errorf("listed = %d, want 3", len(docs))
	}

	docs, err = s.ListDocuments(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Errorf("paged list = %d, want 1", len(docs))
	}

	n, err := s.CountDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}
