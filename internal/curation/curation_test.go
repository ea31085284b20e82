package curation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/shared"
)

func TestReorder(t *testing.T) {
	t.Run("Permutation And Inverse", func(t *testing.T) {
		for n := 1; n <= 6; n++ {
			seq := make([]string, n)
			for i := range seq {
				seq[i] = fmt.Sprintf("id-%d", i)
			}

			for from := range n {
				for to := range n {
					moved, err := Reorder(seq, from, to)
					if err != nil {
						t.Fatalf("Reorder(%d, %d): %v", from, to, err)
					}

					sorted := slices.Clone(moved)
					slices.Sort(sorted)
					if !slices.Equal(sorted, seq) {
						t.Fatalf("Reorder(%d, %d) is not a permutation: %v", from, to, moved)
					}

					if moved[to] != seq[from] {
						t.Errorf("Reorder(%d, %d) put %s at %d, want %s", from, to, moved[to], to, seq[from])
					}

					back, err := Reorder(moved, to, from)
					if err != nil {
						t.Fatalf("inverse Reorder(%d, %d): %v", to, from, err)
					}
					if !slices.Equal(back, seq) {
						t.Errorf("inverse of Reorder(%d, %d) = %v, want %v", from, to, back, seq)
					}
				}
			}
		}
	})

	t.Run("Move Not Swap", func(t *testing.T) {
		got, err := Reorder([]string{"a", "b", "c", "d"}, 0, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := []string{"b", "c", "a", "d"}; !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("Input Untouched", func(t *testing.T) {
		seq := []string{"a", "b", "c"}
		if _, err := Reorder(seq, 2, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !slices.Equal(seq, []string{"a", "b", "c"}) {
			t.Errorf("input was modified: %v", seq)
		}
	})

	t.Run("Out Of Range", func(t *testing.T) {
		for _, idx := range [][2]int{{-1, 0}, {0, 3}, {3, 0}, {0, -1}} {
			if _, err := Reorder([]int{1, 2, 3}, idx[0], idx[1]); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("Reorder(%d, %d) expected ErrInvalidArgument, got %v", idx[0], idx[1], err)
			}
		}
		if _, err := Reorder([]int{}, 0, 0); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument on empty input, got %v", err)
		}
	})
}

func TestCollection(t *testing.T) {
	t.Run("Caps", func(t *testing.T) {
		tc := []struct {
			name string
			c    *Collection
			cap  int
		}{
			{name: "tags", c: NewTags(nil), cap: 10},
			{name: "seeds", c: NewSeedSongs(nil), cap: 5},
			{name: "fusion", c: NewFusionGenres(nil), cap: 3},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				for i := range 25 {
					_ = tt.c.Add(fmt.Sprintf("value %d", i))
					if tt.c.Len() > tt.cap {
						t.Fatalf("collection exceeded cap: %d > %d", tt.c.Len(), tt.cap)
					}
				}
				if tt.c.Len() != tt.cap {
					t.Errorf("expected %d values, got %d", tt.cap, tt.c.Len())
				}
				if err := tt.c.Add("one more"); !errors.Is(err, shared.ErrValidation) {
					t.Errorf("expected ErrValidation past the cap, got %v", err)
				}
			})
		}
	})

	t.Run("Case Insensitive Duplicates", func(t *testing.T) {
		c := NewFusionGenres(nil)
		if err := c.Add("Jazz"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := c.Add("  jAZZ "); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected duplicate rejection, got %v", err)
		}
		if c.Len() != 1 {
			t.Errorf("expected 1 value, got %d", c.Len())
		}
	})

	t.Run("Tags Lowercased", func(t *testing.T) {
		c := NewTags(nil)
		if err := c.Add("  Chill Vibes "); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := c.Items(); !slices.Equal(got, []string{"chill vibes"}) {
			t.Errorf("unexpected items %v", got)
		}
	})

	t.Run("Seeds Keep Case", func(t *testing.T) {
		c := NewSeedSongs([]string{"Clair de Lune by Debussy"})
		if got := c.Items(); got[0] != "Clair de Lune by Debussy" {
			t.Errorf("unexpected seed %q", got[0])
		}
	})

	t.Run("Empty Rejected", func(t *testing.T) {
		if err := NewTags(nil).Add("   "); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		c := NewSeedSongs([]string{"A by B", "C by D"})
		if !c.Remove("a BY b") {
			t.Error("expected case-insensitive removal")
		}
		if c.Remove("missing") {
			t.Error("expected no removal for missing value")
		}
		if !slices.Equal(c.Items(), []string{"C by D"}) {
			t.Errorf("unexpected items %v", c.Items())
		}
	})

	t.Run("Loaded Items Respect Rules", func(t *testing.T) {
		c := NewFusionGenres([]string{"a", "A", "b", "c", "d"})
		if !slices.Equal(c.Items(), []string{"a", "b", "c"}) {
			t.Errorf("unexpected items %v", c.Items())
		}
	})
}

func TestAddMany(t *testing.T) {
	t.Run("All Added", func(t *testing.T) {
		c := NewTags(nil)
		res, err := c.AddMany("Rock, indie ,, POP")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Added != 3 || !slices.Equal(c.Items(), []string{"rock", "indie", "pop"}) {
			t.Errorf("unexpected result %+v items %v", res, c.Items())
		}
		if res.Message(c.Plural()) != "" {
			t.Errorf("expected no message, got %q", res.Message(c.Plural()))
		}
	})

	t.Run("Some Existing", func(t *testing.T) {
		c := NewTags([]string{"rock"})
		res, err := c.AddMany("rock, jazz")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := res.Message(c.Plural()); got != "1 of the entered tags already exist. Others added." {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("All Existing", func(t *testing.T) {
		c := NewTags([]string{"rock", "jazz"})
		_, err := c.AddMany("ROCK, jazz")
		if !errors.Is(err, shared.ErrValidation) || shared.Describe(err) != "All entered tags already exist." {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("Limit Reached Keeps Earlier Additions", func(t *testing.T) {
		var existing []string
		for i := range 8 {
			existing = append(existing, fmt.Sprintf("t%d", i))
		}
		c := NewTags(existing)

		res, err := c.AddMany("a, b, c, d")
		if !errors.Is(err, shared.ErrValidation) || shared.Describe(err) != "Cannot add more than 10 tags." {
			t.Fatalf("unexpected error %v", err)
		}
		if !res.LimitReached || res.Added != 2 || c.Len() != 10 {
			t.Errorf("unexpected result %+v len %d", res, c.Len())
		}
	})

	t.Run("Only Separators", func(t *testing.T) {
		if _, err := NewTags(nil).AddMany(" , ,"); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("Blank Is A No-op", func(t *testing.T) {
		res, err := NewTags(nil).AddMany("   ")
		if err != nil || res.Added != 0 {
			t.Errorf("unexpected result %+v, %v", res, err)
		}
	})
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("song-%d", n)
	}
}

func fixedFallback(t *testing.T, ms int) {
	t.Helper()
	prev := fallbackDuration
	fallbackDuration = func() int { return ms }
	t.Cleanup(func() { fallbackDuration = prev })
}

func TestWorkingSet(t *testing.T) {
	newSet := func(songs ...models.Song) *WorkingSet {
		w := NewWorkingSet(songs)
		w.newID = sequentialIDs()
		return w
	}

	t.Run("Add Assigns Id And Clears Note", func(t *testing.T) {
		w := newSet()
		outcome, song := w.Add(models.Song{ID: "ignored", Title: "Nightcall", Artist: "Kavinsky", DurationMS: 258000, PersonalNote: "x"})
		if outcome != Added {
			t.Fatalf("expected Added, got %v", outcome)
		}
		if song.ID != "song-1" || song.PersonalNote != "" || song.DurationMS != 258000 {
			t.Errorf("unexpected song %+v", song)
		}
	})

	t.Run("Duplicate Goes Pending", func(t *testing.T) {
		w := newSet()
		w.Add(models.Song{Title: "Nightcall", Artist: "Kavinsky", DurationMS: 258000})

		outcome, _ := w.Add(models.Song{Title: "  NIGHTCALL", Artist: "kavinsky ", DurationMS: 258000})
		if outcome != PendingDuplicate {
			t.Fatalf("expected PendingDuplicate, got %v", outcome)
		}
		if w.Len() != 1 {
			t.Errorf("duplicate was appended without confirmation")
		}
		if _, ok := w.Pending(); !ok {
			t.Error("expected a pending candidate")
		}

		w.CancelPending()
		if _, ok := w.Pending(); ok || w.Len() != 1 {
			t.Error("cancel should discard the candidate")
		}
	})

	t.Run("AddAnyway", func(t *testing.T) {
		w := newSet()
		w.Add(models.Song{Title: "A", Artist: "B", DurationMS: 200000})
		w.Add(models.Song{Title: "a", Artist: "b", DurationMS: 200000})

		song, err := w.AddAnyway()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		songs := w.Songs()
		if len(songs) != 2 || songs[0].ID == songs[1].ID || song.ID != songs[1].ID {
			t.Errorf("expected two entries with distinct ids, got %+v", songs)
		}

		if _, err := w.AddAnyway(); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument with nothing pending, got %v", err)
		}
	})

	t.Run("Duration Fallback", func(t *testing.T) {
		fixedFallback(t, 190000)
		w := newSet()
		_, song := w.Add(models.Song{Title: "A", Artist: "B", DurationMS: 30000})
		if song.DurationMS != 190000 {
			t.Errorf("expected fallback duration, got %d", song.DurationMS)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		w := newSet()
		_, a := w.Add(models.Song{Title: "A", Artist: "x", DurationMS: 200000})
		w.Add(models.Song{Title: "B", Artist: "x", DurationMS: 200000})

		if !w.Remove(a.ID) || w.Len() != 1 {
			t.Error("expected removal")
		}
		if w.Remove("missing") {
			t.Error("removing a missing id should be a no-op")
		}
	})

	t.Run("Move", func(t *testing.T) {
		w := newSet()
		for _, title := range []string{"A", "B", "C"} {
			w.Add(models.Song{Title: title, Artist: "x", DurationMS: 200000})
		}
		if err := w.Move(2, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var titles []string
		for _, s := range w.Songs() {
			titles = append(titles, s.Title)
		}
		if !slices.Equal(titles, []string{"C", "A", "B"}) {
			t.Errorf("unexpected order %v", titles)
		}
		if err := w.Move(0, 5); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Switching Note Edit Discards Buffer", func(t *testing.T) {
		w := newSet()
		_, a := w.Add(models.Song{Title: "A", Artist: "x", DurationMS: 200000})
		_, b := w.Add(models.Song{Title: "B", Artist: "x", DurationMS: 200000})

		if err := w.StartNoteEdit(a.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		w.SetNoteBuffer("draft for A")

		if err := w.StartNoteEdit(b.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		w.SetNoteBuffer("note for B")
		if err := w.SaveNote(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		songs := w.Songs()
		if songs[0].PersonalNote != "" {
			t.Errorf("unsaved note for A should be discarded, got %q", songs[0].PersonalNote)
		}
		if songs[1].PersonalNote != "note for B" {
			t.Errorf("expected saved note for B, got %q", songs[1].PersonalNote)
		}
		if w.EditingID() != "" {
			t.Error("expected edit mode to end after save")
		}
	})

	t.Run("Total Duration", func(t *testing.T) {
		w := newSet(
			models.Song{ID: "1", DurationMS: 1800000},
			models.Song{ID: "2", DurationMS: 1861000},
		)
		if got := w.TotalDuration(); got != "1:01:01" {
			t.Errorf("expected 1:01:01, got %s", got)
		}
	})

	t.Run("SetSpotifyURIs", func(t *testing.T) {
		w := newSet(
			models.Song{ID: "1", Title: "A", Artist: "B"},
			models.Song{ID: "2", Title: "C", Artist: "D", SpotifyURI: "spotify:track:c"},
		)

		changed := w.SetSpotifyURIs(map[string]string{"1": "spotify:track:a", "2": "spotify:track:c", "9": "x"})
		if changed != 1 {
			t.Errorf("expected one change, got %d", changed)
		}
		if songs := w.Songs(); songs[0].SpotifyURI != "spotify:track:a" {
			t.Errorf("unexpected uri %q", songs[0].SpotifyURI)
		}
	})
}

func TestDurationOr(t *testing.T) {
	fixedFallback(t, 200000)

	tc := []struct {
		name string
		in   any
		want int
	}{
		{name: "float", in: 245000.0, want: 245000},
		{name: "int", in: 245000, want: 245000},
		{name: "json number", in: json.Number("245000"), want: 245000},
		{name: "missing", in: nil, want: 200000},
		{name: "string", in: "245000", want: 200000},
		{name: "too small", in: 30000.0, want: 200000},
		{name: "NaN", in: math.NaN(), want: 200000},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := DurationOr(tt.in); got != tt.want {
				t.Errorf("DurationOr(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFallbackDurationRange(t *testing.T) {
	for range 1000 {
		if got := fallbackDuration(); got < 180000 || got >= 240000 {
			t.Fatalf("fallback out of range: %d", got)
		}
	}
}

func TestFilter(t *testing.T) {
	fixedFallback(t, 210000)

	working := []models.Song{{ID: "1", Title: "Nightcall", Artist: "Kavinsky"}}
	seeds := []string{"Clair de Lune by Debussy", "no separator"}

	raw := []models.RawSuggestion{
		{Title: "nightcall", Artist: "KAVINSKY", DurationMS: 258000.0},
		{Title: "Clair de Lune", Artist: "debussy", DurationMS: 300000.0},
		{Title: "", Artist: "Nobody", DurationMS: 200000.0},
		{Title: "Untitled", Artist: "  ", DurationMS: 200000.0},
		{Title: "Midnight City", Artist: "M83", Album: "Hurry Up, We're Dreaming", DurationMS: 243000.0},
		{Title: "Resonance", Artist: "Home", DurationMS: "3:32"},
	}

	result := filterWith(raw, working, seeds, sequentialIDs())

	if result.Received != len(raw) {
		t.Errorf("expected Received %d, got %d", len(raw), result.Received)
	}
	if len(result.Suggestions) != 2 {
		t.Fatalf("expected 2 survivors, got %+v", result.Suggestions)
	}

	for _, s := range result.Suggestions {
		for _, w := range working {
			if s.Key() == w.Key() {
				t.Errorf("suggestion %v duplicates working song", s)
			}
		}
	}

	first, second := result.Suggestions[0], result.Suggestions[1]
	if first.ID != "song-1" || first.DurationMS != 243000 || first.Album == "" {
		t.Errorf("unexpected first suggestion %+v", first)
	}
	if second.DurationMS != 210000 {
		t.Errorf("expected fallback duration for non-numeric value, got %d", second.DurationMS)
	}

	t.Run("All Filtered Versus Empty", func(t *testing.T) {
		all := Filter([]models.RawSuggestion{{Title: "Nightcall", Artist: "Kavinsky"}}, working, nil)
		if !all.AllFiltered() || all.Empty() {
			t.Errorf("expected AllFiltered, got %+v", all)
		}

		none := Filter(nil, working, nil)
		if none.AllFiltered() || !none.Empty() {
			t.Errorf("expected Empty, got %+v", none)
		}
	})
}

func TestParseSeed(t *testing.T) {
	tc := []struct {
		seed          string
		title, artist string
		ok            bool
	}{
		{seed: "Bohemian Rhapsody by Queen", title: "Bohemian Rhapsody", artist: "Queen", ok: true},
		{seed: "Stand by Me by Ben E. King", title: "Stand by Me", artist: "Ben E. King", ok: true},
		{seed: "Just a title", ok: false},
		{seed: " by Artist", ok: false},
	}

	for _, tt := range tc {
		t.Run(strings.ReplaceAll(tt.seed, " ", "_"), func(t *testing.T) {
			title, artist, ok := ParseSeed(tt.seed)
			if ok != tt.ok || (ok && (title != tt.title || artist != tt.artist)) {
				t.Errorf("ParseSeed(%q) = %q, %q, %v", tt.seed, title, artist, ok)
			}
		})
	}
}
