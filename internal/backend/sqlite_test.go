package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/nlweb-ai/nlweb-go/internal/models"
)

func newSQLite(t *testing.T) *SQLiteBackend {
	t.Helper()
	s, err := NewSQLiteBackend("library", filepath.Join(t.TempDir(), "items.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteBackend_PutAndSearch(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	err := s.Put(ctx, []models.Result{
		{Name: "Margherita Pizza", URL: "https://pizza.example/margherita", Description: "tomato mozzarella basil", Site: "pizza.example"},
		{Name: "Pepperoni Pizza", URL: "https://pizza.example/pepperoni", Description: "spicy pepperoni", Site: "pizza.example"},
		{Name: "Caesar Salad", URL: "https://salads.example/caesar", Description: "romaine and parmesan", Site: "salads.example"},
	})
	if err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(ctx, "pepperoni pizza", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].URL != "https://pizza.example/pepperoni" {
		t.Errorf("expected best match first, got %s", results[0].URL)
	}
}

func TestSQLiteBackend_SiteFilter(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	if err := s.Put(ctx, []models.Result{
		{Name: "Pizza Salad", URL: "https://pizza.example/salad", Site: "pizza.example"},
		{Name: "Garden Salad", URL: "https://salads.example/garden", Site: "salads.example"},
	}); err != nil {
		t.Fatal(err)
	}
	results, err := s.Search(ctx, "salad", "salads.example", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Site != "salads.example" {
		t.Errorf("site filter failed: %v", results)
	}
}

func TestSQLiteBackend_GetByURL(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	if err := s.Put(ctx, []models.Result{
		{Name: "Caesar Salad", URL: "https://salads.example/caesar", Score: 0.5, Site: "salads.example"},
	}); err != nil {
		t.Fatal(err)
	}
	item, err := s.GetByURL(ctx, "https://salads.example/caesar")
	if err != nil {
		t.Fatal(err)
	}
	if item.Name != "Caesar Salad" || item.Score != 0.5 {
		t.Errorf("got %+v", item)
	}
	if _, err := s.GetByURL(ctx, "https://nope.example"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteBackend_PutUpserts(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	item := models.Result{Name: "V1", URL: "https://x.example/item", Site: "x.example"}
	if err := s.Put(ctx, []models.Result{item}); err != nil {
		t.Fatal(err)
	}
	item.Name = "V2"
	if err := s.Put(ctx, []models.Result{item}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetByURL(ctx, "https://x.example/item")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "V2" {
		t.Errorf("upsert did not replace: %q", got.Name)
	}
}

func TestSQLiteBackend_Sites(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()
	if err := s.Put(ctx, []models.Result{
		{Name: "A", URL: "u1", Site: "b.example"},
		{Name: "B", URL: "u2", Site: "a.example"},
		{Name: "C", URL: "u3", Site: "a.example"},
	}); err != nil {
		t.Fatal(err)
	}
	sites, err := s.Sites(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != 2 || sites[0] != "a.example" || sites[1] != "b.example" {
		t.Errorf("unexpected sites: %v", sites)
	}
}

func TestSQLiteBackend_RejectsItemWithoutURL(t *testing.T) {
	s := newSQLite(t)
	if err := s.Put(context.Background(), []models.Result{{Name: "x"}}); err == nil {
		t.Error("expected error for item without url")
	}
}
