package update

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/tasknotes/internal/composer"
	"github.com/sandeepkv93/tasknotes/internal/poller"
	"github.com/sandeepkv93/tasknotes/internal/recorder"
)

const recordingTickInterval = 100 * time.Millisecond

func waitForNotesCmd(ch <-chan poller.Result) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return NotesResultMsg{Result: res}
	}
}

func waitForRecorderCmd(ch <-chan recorder.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return RecorderEventMsg{Event: ev}
	}
}

func startFeedCmd(feed NotesFeed, taskID string) tea.Cmd {
	return func() tea.Msg {
		feed.Start(taskID)
		return nil
	}
}

func refreshFeedCmd(feed NotesFeed) tea.Cmd {
	return func() tea.Msg {
		feed.Refresh()
		return nil
	}
}

func fetchTaskCmd(ctx context.Context, svc NotesService, taskID string) tea.Cmd {
	return func() tea.Msg {
		task, err := svc.GetTask(ctx, taskID)
		return TaskLoadedMsg{Task: task, Err: err}
	}
}

func submitCmd(ctx context.Context, svc NotesService, taskID string, draft composer.Draft) tea.Cmd {
	return func() tea.Msg {
		note, err := svc.CreateNote(ctx, taskID, draft)
		return NoteSubmittedMsg{Note: note, Err: err}
	}
}

func startRecordingCmd(ctx context.Context, rec Recorder, kind recorder.Kind) tea.Cmd {
	return func() tea.Msg {
		return RecordingStartedMsg{Kind: kind, Err: rec.Start(ctx, kind)}
	}
}

// stopRecordingCmd only reports failures; the recording itself arrives as a
// RecorderEventMsg, the same way an automatic stop does.
func stopRecordingCmd(rec Recorder) tea.Cmd {
	return func() tea.Msg {
		if _, err := rec.Stop(); err != nil {
			return RecorderErrorMsg{Op: "stop", Err: err}
		}
		return nil
	}
}

func cancelRecordingCmd(rec Recorder) tea.Cmd {
	return func() tea.Msg {
		return RecordingCancelledMsg{Err: rec.Cancel()}
	}
}

func recordingTickCmd() tea.Cmd {
	return tea.Tick(recordingTickInterval, func(time.Time) tea.Msg { return RecordingTickMsg{} })
}

func locateCmd(ctx context.Context, loc Locator) tea.Cmd {
	return func() tea.Msg {
		l, err := loc.Acquire(ctx)
		return LocationMsg{Location: l, Err: err}
	}
}
