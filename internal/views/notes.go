package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/tasknotes/internal/media"
	"github.com/sandeepkv93/tasknotes/internal/model"
)

// GroupWindow is the largest gap between consecutive notes of one author
// that still renders them as a single block.
const GroupWindow = 5 * time.Minute

const EmptyNotesText = "No notes yet. Start the conversation below."

type NoteGroup struct {
	Author model.User
	Own    bool
	Notes  []model.Note
}

func (g NoteGroup) Start() time.Time {
	if len(g.Notes) == 0 {
		return time.Time{}
	}
	return g.Notes[0].CreatedAt
}

func authorKey(u model.User) string {
	if u.ID != "" {
		return u.ID
	}
	return strings.ToLower(u.DisplayName())
}

// GroupNotes folds consecutive notes by the same author into one group while
// each note is within window of the previous one. Order is preserved.
func GroupNotes(notes []model.Note, currentUserID string, window time.Duration) []NoteGroup {
	groups := make([]NoteGroup, 0, len(notes))
	for _, n := range notes {
		if len(groups) > 0 {
			last := &groups[len(groups)-1]
			prev := last.Notes[len(last.Notes)-1]
			gap := n.CreatedAt.Sub(prev.CreatedAt)
			if authorKey(last.Author) == authorKey(n.Author) && gap >= 0 && gap <= window {
				last.Notes = append(last.Notes, n)
				continue
			}
		}
		groups = append(groups, NoteGroup{
			Author: n.Author,
			Own:    currentUserID != "" && n.Author.ID == currentUserID,
			Notes:  []model.Note{n},
		})
	}
	return groups
}

type NotesData struct {
	Notes         []model.Note
	CurrentUserID string
	Loading       bool
	Loaded        bool
	Width         int
	Now           time.Time
	Markdown      bool
}

func RenderNotes(data NotesData) string {
	if len(data.Notes) == 0 {
		switch {
		case data.Loading && !data.Loaded:
			return mutedStyle.Render("Loading notes...")
		default:
			return mutedStyle.Render(EmptyNotesText)
		}
	}
	now := data.Now
	if now.IsZero() {
		now = time.Now()
	}
	groups := GroupNotes(data.Notes, data.CurrentUserID, GroupWindow)
	blocks := make([]string, 0, len(groups))
	for _, g := range groups {
		blocks = append(blocks, renderGroup(g, data, now))
	}
	return strings.Join(blocks, "\n\n")
}

func renderGroup(g NoteGroup, data NotesData, now time.Time) string {
	name := g.Author.DisplayName()
	if name == "" {
		name = "Unknown"
	}
	nameStyle := authorStyle
	if g.Own {
		name += " (you)"
		nameStyle = ownNoteStyle
	}
	head := fmt.Sprintf("%s %s %s",
		Avatar(g.Author),
		nameStyle.Render(name),
		mutedStyle.Render(media.FormatRelative(g.Start(), now)),
	)

	lines := []string{head}
	for _, n := range g.Notes {
		lines = append(lines, indent(renderNoteBody(n, data), "     "))
	}
	return strings.Join(lines, "\n")
}

func renderNoteBody(n model.Note, data NotesData) string {
	var parts []string
	if text := strings.TrimSpace(n.Text); text != "" {
		if data.Markdown {
			parts = append(parts, RenderMarkdownWidth(text, data.Width-6))
		} else {
			parts = append(parts, text)
		}
	}
	if n.HasAttachments() {
		for _, a := range n.Attachments {
			parts = append(parts, RenderAttachment(a))
		}
	}
	if n.Location != nil {
		parts = append(parts, RenderLocation(*n.Location))
	}
	if len(parts) == 0 {
		return mutedStyle.Render("(empty note)")
	}
	return strings.Join(parts, "\n")
}

// Avatar renders the author's initials on their color, with a readable
// foreground picked from the background luminance.
func Avatar(u model.User) string {
	initials := media.Initials(u.DisplayName())
	bg := u.Color
	if bg == "" {
		bg = "#6366F1"
	}
	return lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Background(lipgloss.Color(bg)).
		Foreground(lipgloss.Color(media.ContrastColor(bg))).
		Render(initials)
}

func RenderAttachment(a model.Attachment) string {
	cat := media.Classify(a.FileType)
	line := fmt.Sprintf("%s %s", cat.Icon(), a.Name())
	if a.Size > 0 {
		line += " " + mutedStyle.Render("("+media.FormatSize(a.Size)+")")
	}
	if a.URL != "" {
		line += "\n  " + accentStyle.Render(a.URL)
	}
	return line
}

func RenderLocation(l model.Location) string {
	coords := fmt.Sprintf("%.5f, %.5f", l.Lat, l.Lng)
	if strings.TrimSpace(l.Address) != "" {
		return fmt.Sprintf("📍 %s %s", l.Address, mutedStyle.Render("("+coords+")"))
	}
	return "📍 " + coords
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
