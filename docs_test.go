package label_test

import (
	"context"
	"log"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/label"
	"github.com/xraph/label/store/bolt"
	"github.com/xraph/label/store/memory"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from the package doc
	t.Run("QuickStartExample", func(t *testing.T) {
		s, err := bolt.Open(filepath.Join(t.TempDir(), "label.db"))
		if err != nil {
			t.Fatal(err)
		}

		l := label.New(s,
			label.WithLogger(slog.Default()),
			label.WithJournalConfig(100, 5*time.Second),
		)

		ctx := context.Background()
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		ctx = label.WithCaller(ctx, "0xartist")
		a, err := l.RegisterArtist(ctx, "Alice")
		if err != nil {
			t.Fatal(err)
		}

		song, err := l.ReleaseSong(ctx, a.ID, "First Light", 100)
		if err != nil {
			t.Fatal(err)
		}

		if _, err := l.BuySong(ctx, "fan", song.ID); err != nil {
			t.Fatal(err)
		}

		d, err := l.DistributeRoyalties(ctx, song.ID)
		if err != nil {
			t.Fatal(err)
		}
		if d.Amount != 100 {
			t.Fatalf("distributed %d, want 100", d.Amount)
		}

		log.Printf("Distributed %d to artist %d\n", d.Amount, d.ArtistID)
	})

	// Test error code examples
	t.Run("ErrorCodeExamples", func(t *testing.T) {
		l := label.New(memory.New())
		ctx := context.Background()

		_, err := l.ReleaseSong(ctx, 42, "ghost", 1)
		if code := label.ErrorCode(err); code != label.CodeNotFound {
			t.Fatalf("got %v, want %v", code, label.CodeNotFound)
		}

		_, err = l.DistributeRoyalties(ctx, 42)
		if code := label.ErrorCode(err); code != label.CodeUnauthorized {
			t.Fatalf("got %v, want %v", code, label.CodeUnauthorized)
		}
	})
}
