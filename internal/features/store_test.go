package features

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pdiddy/search-aggregator/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(types.FeaturesConfig{DBPath: filepath.Join(t.TempDir(), "nested", "features.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// --- Bookmarks ---

func TestGetBookmarkMiss(t *testing.T) {
	s := testStore(t)
	b, err := s.GetBookmark(context.Background(), "s1", "doc1", false)
	if err != nil {
		t.Fatal(err)
	}
	if b != nil {
		t.Errorf("GetBookmark on empty store = %+v, want nil", b)
	}
}

func TestGetBookmarkExcludeFlag(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.AddBookmark(ctx, "s1", "kept", types.Bookmark{UserID: "u1", Starred: true, Created: 100}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddBookmark(ctx, "s1", "hidden", types.Bookmark{UserID: "u2", Excluded: true, Created: 200}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		session string
		doc     string
		exclude bool
		wantHit bool
	}{
		{"bookmark found", "s1", "kept", false, true},
		{"bookmark is not an exclusion", "s1", "kept", true, false},
		{"exclusion found", "s1", "hidden", true, true},
		{"exclusion is not a bookmark", "s1", "hidden", false, false},
		{"other session", "s2", "kept", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := s.GetBookmark(ctx, tt.session, tt.doc, tt.exclude)
			if err != nil {
				t.Fatal(err)
			}
			if (b != nil) != tt.wantHit {
				t.Fatalf("GetBookmark = %+v, want hit %v", b, tt.wantHit)
			}
		})
	}

	b, _ := s.GetBookmark(ctx, "s1", "kept", false)
	if b.UserID != "u1" || !b.Starred || b.Created != 100 {
		t.Errorf("bookmark = %+v", b)
	}
}

func TestListBookmarks(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	seed := []struct {
		doc string
		b   types.Bookmark
	}{
		{"d1", types.Bookmark{UserID: "alice", Created: 1}},
		{"d2", types.Bookmark{UserID: "bob", Created: 2}},
		{"d3", types.Bookmark{UserID: "alice", Excluded: true, Created: 3}},
	}
	for _, sd := range seed {
		if err := s.AddBookmark(ctx, "s1", sd.doc, sd.b); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListBookmarks(ctx, "s1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
	if all[0].DocID != "d3" {
		t.Errorf("newest bookmark first: got %s", all[0].DocID)
	}

	mine, err := s.ListBookmarks(ctx, "s1", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Errorf("len(mine) = %d, want 2", len(mine))
	}

	if err := s.RemoveBookmark(ctx, "s1", "d3"); err != nil {
		t.Fatal(err)
	}
	mine, _ = s.ListBookmarks(ctx, "s1", "alice")
	if len(mine) != 1 || mine[0].DocID != "d1" {
		t.Errorf("after remove = %+v", mine)
	}
}

// --- Annotations ---

func TestGetAnnotations(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	got, err := s.GetAnnotations(ctx, "s1", "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("no annotations should give an empty, non-nil slice, got %#v", got)
	}

	for _, a := range []types.Annotation{
		{UserID: "u2", Annotation: "second", Created: 20},
		{UserID: "u1", Annotation: "first", Created: 10},
	} {
		if err := s.AddAnnotation(ctx, "s1", "doc1", a); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AddAnnotation(ctx, "s1", "doc2", types.Annotation{UserID: "u1", Annotation: "elsewhere"}); err != nil {
		t.Fatal(err)
	}

	got, err = s.GetAnnotations(ctx, "s1", "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Annotation != "first" || got[1].Annotation != "second" {
		t.Errorf("annotations out of order: %+v", got)
	}
}

// --- Ratings ---

func TestGetRating(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	r, err := s.GetRating(ctx, "s1", "doc1", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if r != nil {
		t.Errorf("unrated result = %+v, want nil", r)
	}

	for user, rating := range map[string]int{"u1": 1, "u2": 1, "u3": -1} {
		if err := s.SetRating(ctx, "s1", "doc1", user, rating); err != nil {
			t.Fatal(err)
		}
	}
	// Re-rating replaces the earlier vote.
	if err := s.SetRating(ctx, "s1", "doc1", "u3", 1); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		user      string
		wantOwn   int
		wantTotal int
	}{
		{"u1", 1, 3},
		{"u3", 1, 3},
		{"nobody", 0, 3},
	}
	for _, tt := range tests {
		r, err := s.GetRating(ctx, "s1", "doc1", tt.user)
		if err != nil {
			t.Fatal(err)
		}
		if r == nil || r.Rating != tt.wantOwn || r.Total != tt.wantTotal {
			t.Errorf("GetRating(%s) = %+v, want {%d %d}", tt.user, r, tt.wantOwn, tt.wantTotal)
		}
	}
}

// --- Views ---

func TestGetViews(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	url := "https://example.com/a"

	for i := 0; i < 3; i++ {
		if err := s.AddView(ctx, "s1", url, "u1"); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AddView(ctx, "s2", url, "u1"); err != nil {
		t.Fatal(err)
	}

	n, err := s.GetViews(ctx, "s1", url)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("views = %d, want 3", n)
	}
	if n, _ := s.GetViews(ctx, "s1", "https://example.com/other"); n != 0 {
		t.Errorf("unvisited url views = %d, want 0", n)
	}
}

func TestConcurrentLookups(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	if err := s.AddBookmark(ctx, "s1", "doc1", types.Bookmark{UserID: "u1"}); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 10; i++ {
		wg.Add(4)
		go func() {
			defer wg.Done()
			_, err := s.GetBookmark(ctx, "s1", "doc1", false)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := s.GetAnnotations(ctx, "s1", "doc1")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := s.GetRating(ctx, "s1", "doc1", "u1")
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := s.GetViews(ctx, "s1", "doc1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent lookup: %v", err)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.db")
	s, err := NewStore(types.FeaturesConfig{DBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetRating(context.Background(), "s1", "d", "u", 1); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewStore(types.FeaturesConfig{DBPath: path})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	r, err := s.GetRating(context.Background(), "s1", "d", "u")
	if err != nil || r == nil || r.Total != 1 {
		t.Errorf("after reopen: %+v, %v", r, err)
	}
}
