package views

import (
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/tasknotes/internal/model"
)

func note(id, author string, at time.Time) model.Note {
	return model.Note{ID: id, Author: model.User{ID: author, Name: author}, Text: "text " + id, CreatedAt: at}
}

func TestGroupNotes(t *testing.T) {
	base := time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC)
	notes := []model.Note{
		note("1", "ann", base),
		note("2", "ann", base.Add(4*time.Minute)),
		note("3", "ann", base.Add(8*time.Minute)),
		note("4", "bob", base.Add(9*time.Minute)),
		note("5", "ann", base.Add(10*time.Minute)),
		note("6", "ann", base.Add(16*time.Minute)),
	}

	groups := GroupNotes(notes, "ann", GroupWindow)
	sizes := make([]int, 0, len(groups))
	for _, g := range groups {
		sizes = append(sizes, len(g.Notes))
	}
	want := []int{3, 1, 1, 1}
	if len(sizes) != len(want) {
		t.Fatalf("group sizes = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("group sizes = %v, want %v", sizes, want)
		}
	}
	if !groups[0].Own || groups[1].Own {
		t.Fatalf("own flags wrong: %+v", groups)
	}
	if !groups[0].Start().Equal(base) {
		t.Fatalf("group start = %v", groups[0].Start())
	}
}

func TestRenderNotesEmptyState(t *testing.T) {
	out := RenderNotes(NotesData{Loaded: true})
	if !strings.Contains(out, EmptyNotesText) {
		t.Fatalf("expected empty state, got %q", out)
	}
	out = RenderNotes(NotesData{Loading: true})
	if !strings.Contains(out, "Loading") {
		t.Fatalf("expected loading text, got %q", out)
	}
}

func TestRenderNotesShowsAuthorOnceForGroup(t *testing.T) {
	base := time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC)
	out := RenderNotes(NotesData{
		Notes: []model.Note{
			note("1", "Ann Lee", base),
			note("2", "Ann Lee", base.Add(time.Minute)),
		},
		Now: base.Add(2 * time.Minute),
	})
	if strings.Count(out, "Ann Lee") != 1 {
		t.Fatalf("author header should appear once: %q", out)
	}
	if !strings.Contains(out, "text 1") || !strings.Contains(out, "text 2") {
		t.Fatalf("missing note bodies: %q", out)
	}
	if !strings.Contains(out, "AL") {
		t.Fatalf("missing avatar initials: %q", out)
	}
}

func TestRenderNoteAttachmentAndLocation(t *testing.T) {
	n := model.Note{
		ID:     "1",
		Author: model.User{ID: "u", Name: "Ann"},
		Attachments: []model.Attachment{
			{URL: "https://cdn.example.com/x/report.pdf?sig=1", FileType: "application/pdf", Size: 2048},
		},
		Location: &model.Location{Lat: 1, Lng: 2, Address: "Paris, France"},
	}
	out := RenderNotes(NotesData{Notes: []model.Note{n}})
	for _, want := range []string{"report.pdf", "2.00 KB", "Paris, France"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestRenderHeader(t *testing.T) {
	due := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	out := RenderHeader(TaskHeaderData{
		TaskID: "t1",
		Task: &model.Task{
			ID: "t1", Title: "Ship v2", Status: model.TaskStatusInProgress, Priority: model.PriorityHigh,
			DueDate: &due, Assignees: []model.User{{Name: "Ann"}},
		},
		NoteCount: 3,
		Now:       due.Add(48 * time.Hour),
	})
	for _, want := range []string{"Ship v2", "high priority", "overdue", "@Ann", "3 notes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}

	if out := RenderHeader(TaskHeaderData{TaskID: "t9"}); !strings.Contains(out, "t9") {
		t.Fatalf("fallback header missing id: %q", out)
	}
}

func TestRenderErrorBanner(t *testing.T) {
	if RenderErrorBanner("") != "" {
		t.Fatal("expected no banner without error")
	}
	out := RenderErrorBanner("503 unavailable")
	if !strings.Contains(out, "503 unavailable") || !strings.Contains(out, "retry") {
		t.Fatalf("unexpected banner: %q", out)
	}
}

func TestRenderComposerListsFiles(t *testing.T) {
	out := RenderComposer(ComposerData{
		InputView: "> hello",
		Files:     []ComposerFileData{{Name: "a.png", MIMEType: "image/png", Size: 1024}},
		Location:  &model.Location{Lat: 1.5, Lng: 2.5},
		CanSubmit: true,
	})
	for _, want := range []string{"1. ", "a.png", "1.00 KB", "1.50000, 2.50000", "> hello"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestRenderPanelOverlayReplacesBody(t *testing.T) {
	out := RenderPanel(PanelData{Header: "h", Body: "the list", Overlay: "help text"})
	if strings.Contains(out, "the list") || !strings.Contains(out, "help text") {
		t.Fatalf("overlay should replace body: %q", out)
	}
}
