package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/tasknotes/internal/media"
	"github.com/sandeepkv93/tasknotes/internal/model"
)

type TaskHeaderData struct {
	TaskID    string
	Task      *model.Task
	NoteCount int
	Now       time.Time
}

func RenderHeader(data TaskHeaderData) string {
	if data.Task == nil || data.Task.Title == "" {
		return fmt.Sprintf("Notes · task %s · %d notes", data.TaskID, data.NoteCount)
	}
	t := data.Task
	parts := []string{fmt.Sprintf("Notes · %s", t.Title)}
	if t.Status != "" {
		parts = append(parts, t.Status.Label())
	}
	if t.Priority != "" {
		parts = append(parts, string(t.Priority)+" priority")
	}
	if t.DueDate != nil {
		due := "due " + t.DueDate.Format("Jan 2")
		if !data.Now.IsZero() && t.DueDate.Before(data.Now) && t.Status != model.TaskStatusDone {
			due = errorStyle.Render(due + " (overdue)")
		}
		parts = append(parts, due)
	}
	if names := t.AssigneeNames(); len(names) > 0 {
		parts = append(parts, "@"+strings.Join(names, ", @"))
	}
	parts = append(parts, fmt.Sprintf("%d notes", data.NoteCount))
	return strings.Join(parts, " · ")
}

// RenderErrorBanner is shown above the list while the last fetch failed.
func RenderErrorBanner(errText string) string {
	if strings.TrimSpace(errText) == "" {
		return ""
	}
	return fmt.Sprintf("Failed to load notes: %s  [ctrl+r] retry  [ctrl+d] dismiss", errText)
}

type ComposerFileData struct {
	Name     string
	MIMEType string
	Size     int64
}

type ComposerData struct {
	InputView   string
	Files       []ComposerFileData
	Location    *model.Location
	Locating    bool
	Sending     bool
	SpinnerView string
	CanSubmit   bool
	Recording   string
}

func RenderComposer(data ComposerData) string {
	var b strings.Builder
	if data.Recording != "" {
		b.WriteString(data.Recording + "\n")
	}
	if len(data.Files) > 0 {
		b.WriteString(fmt.Sprintf("attachments (%d):\n", len(data.Files)))
		for i, f := range data.Files {
			b.WriteString(fmt.Sprintf("  %d. %s %s %s\n", i+1,
				media.Classify(f.MIMEType).Icon(), f.Name,
				mutedStyle.Render("("+media.FormatSize(f.Size)+")")))
		}
	}
	switch {
	case data.Locating:
		b.WriteString(data.SpinnerView + " locating...\n")
	case data.Location != nil:
		b.WriteString(RenderLocation(*data.Location) + mutedStyle.Render("  [/clearlocation]") + "\n")
	}
	b.WriteString(data.InputView)
	switch {
	case data.Sending:
		b.WriteString("\n" + data.SpinnerView + " sending...")
	case data.CanSubmit:
		b.WriteString("\n" + accentStyle.Render("[enter] send"))
	default:
		b.WriteString("\n" + mutedStyle.Render("[enter] send"))
	}
	return b.String()
}

type RecordingData struct {
	Kind         string
	Elapsed      time.Duration
	Max          time.Duration
	ProgressView string
}

func RenderRecording(data RecordingData) string {
	label := "voice"
	if data.Kind == "video" {
		label = "video"
	}
	line := fmt.Sprintf("%s %s %s / %s", recStyle.Render("● REC"), label,
		media.FormatElapsed(data.Elapsed), media.FormatElapsed(data.Max))
	if data.ProgressView != "" {
		line += "  " + data.ProgressView
	}
	return line + mutedStyle.Render("  [ctrl+o] stop [ctrl+x] discard")
}

type VideoModalData struct {
	Recording   bool
	RecordingUI string
}

func RenderVideoModal(data VideoModalData) string {
	var b strings.Builder
	b.WriteString("video note\n\n")
	switch {
	case data.Recording:
		b.WriteString(data.RecordingUI + "\n\n")
		b.WriteString("[space] stop and attach  [esc] discard")
	default:
		b.WriteString("camera ready\n\n")
		b.WriteString("[space] start recording  [esc] close")
	}
	return b.String()
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("[%s] %s\n%s", strings.ToUpper(level), body, mutedStyle.Render("press any key to dismiss"))
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\nkeys:\n%s\n\ncommands:\n%s\n%s",
		strings.Join(data.Bindings, "\n"),
		strings.Join(PaletteCommands, "\n"),
		data.HelpView,
	)
}

var PaletteCommands = []string{
	"/attach <path|glob>...  attach files",
	"/remove N               drop attachment N",
	"/record [audio|video]   start recording",
	"/stop                   stop recording",
	"/cancel                 discard recording",
	"/location               share location",
	"/clearlocation          remove location",
	"/refresh                fetch notes now",
}
