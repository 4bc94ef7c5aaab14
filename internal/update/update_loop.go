package update

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sandeepkv93/tasknotes/internal/composer"
	"github.com/sandeepkv93/tasknotes/internal/media"
	"github.com/sandeepkv93/tasknotes/internal/poller"
	"github.com/sandeepkv93/tasknotes/internal/recorder"
	"github.com/sandeepkv93/tasknotes/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.deps.Feed != nil {
		cmds = append(cmds, waitForNotesCmd(m.deps.Feed.C()))
		if m.TaskID != "" {
			cmds = append(cmds, startFeedCmd(m.deps.Feed, m.TaskID))
		}
	}
	if m.deps.Recorder != nil {
		cmds = append(cmds, waitForRecorderCmd(m.deps.Recorder.Events()))
	}
	if m.deps.Notes != nil && m.TaskID != "" && m.Task == nil {
		cmds = append(cmds, fetchTaskCmd(m.ctx, m.deps.Notes, m.TaskID))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Results that resolve after teardown are dropped.
	if m.life.isClosed() {
		return m, nil
	}

	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = typed.Width, typed.Height
		m.layout()
		m.refreshNotesView()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(typed)
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(typed)
			return m, cmd
		}
		return m, nil
	case NotesResultMsg:
		next := m.applyNotesResult(typed.Result)
		return next, waitForNotesCmd(m.feedChan())
	case TaskLoadedMsg:
		if typed.Err != nil {
			m.logger.Warn("load task failed", zap.String("task", m.TaskID), zap.Error(typed.Err))
			return m, nil
		}
		if typed.Task.ID == "" || typed.Task.ID == m.TaskID {
			task := typed.Task
			m.Task = &task
		}
		return m, nil
	case SetTaskMsg:
		return m.setTask(typed)
	case NoteSubmittedMsg:
		return m.onNoteSubmitted(typed)
	case FilesSelectedMsg:
		m.addFiles(typed.Files...)
		return m, nil
	case RecordingStartedMsg:
		return m.onRecordingStarted(typed)
	case RecordingTickMsg:
		if !m.Recording.Active || m.deps.Recorder == nil {
			return m, nil
		}
		m.Recording.Elapsed = m.deps.Recorder.Elapsed()
		return m, recordingTickCmd()
	case RecorderEventMsg:
		next := m.onRecorderEvent(typed.Event)
		return next, waitForRecorderCmd(m.recorderChan())
	case RecordingCancelledMsg:
		m.Recording = RecordingState{}
		m.layout()
		if typed.Err != nil && !errors.Is(typed.Err, recorder.ErrNotRecording) {
			m.Status = StatusBar{Text: fmt.Sprintf("discard failed: %v", typed.Err), IsError: true}
			return m, nil
		}
		m.Status = StatusBar{Text: "recording discarded"}
		return m, nil
	case RecorderErrorMsg:
		m.Recording.Stopping = false
		if errors.Is(typed.Err, recorder.ErrNotRecording) {
			// An automatic stop won the race; its event carries the result.
			return m, nil
		}
		if typed.Err != nil {
			m.LastError = typed.Err
			m.Status = StatusBar{Text: fmt.Sprintf("%s recording failed: %v", typed.Op, typed.Err), IsError: true}
		}
		return m, nil
	case LocationMsg:
		return m.onLocation(typed)
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
		}
		return m, nil
	case AlertMsg:
		m.Alert = &Alert{Title: typed.Title, Body: typed.Body}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.close()
	}
	if m.Alert != nil {
		m.Alert = nil
		return m, nil
	}
	if m.HelpVisible {
		if key.Matches(msg, m.keys.Help, m.keys.Close) {
			m.HelpVisible = false
		}
		return m, nil
	}
	if m.VideoModal {
		return m.handleVideoKey(msg)
	}
	if m.Palette.Active {
		return m.handlePaletteKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Close):
		return m.close()
	case key.Matches(msg, m.keys.Help):
		m.HelpVisible = true
		return m, nil
	case key.Matches(msg, m.keys.Send):
		return m.submit()
	case key.Matches(msg, m.keys.Refresh):
		return m.refresh()
	case key.Matches(msg, m.keys.DismissBanner) && m.bannerVisible():
		m.BannerDismissed = true
		m.layout()
		return m, nil
	case key.Matches(msg, m.keys.Record):
		return m.toggleRecording(recorder.KindAudio)
	case key.Matches(msg, m.keys.Discard):
		return m.discardRecording()
	case key.Matches(msg, m.keys.Video):
		return m.openVideoModal()
	case key.Matches(msg, m.keys.Location):
		return m.shareLocation()
	case key.Matches(msg, m.keys.ScrollUp, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.notesView, cmd = m.notesView.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.Palette) && strings.TrimSpace(m.input.Value()) == "":
		m.Palette = CommandPaletteState{Active: true}
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.input.Blur()
		return m, nil
	}

	if m.Sending {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.Composer.SetText(m.input.Value())
	return m, cmd
}

func (m Model) handleVideoKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case " ":
		return m.toggleRecording(recorder.KindVideo)
	case "esc":
		m.VideoModal = false
		if m.Recording.Active || m.Recording.Starting {
			return m.discardRecording()
		}
	}
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.Sending || m.deps.Notes == nil || m.TaskID == "" {
		return m, nil
	}
	m.Composer.SetText(m.input.Value())
	if !m.Composer.CanSubmit() {
		return m, nil
	}
	draft := m.Composer.Draft()
	m.inFlight = &draft
	m.Sending = true
	m.Status = StatusBar{Text: "sending..."}
	return m, tea.Batch(submitCmd(m.ctx, m.deps.Notes, m.TaskID, draft), m.spin.Tick)
}

func (m Model) onNoteSubmitted(msg NoteSubmittedMsg) (tea.Model, tea.Cmd) {
	m.Sending = false
	sent := m.inFlight
	m.inFlight = nil
	if msg.Err != nil {
		m.LastError = msg.Err
		m.logger.Warn("send note failed", zap.String("task", m.TaskID), zap.Error(msg.Err))
		m.Alert = &Alert{Title: "Failed to send note", Body: msg.Err.Error()}
		m.Status = StatusBar{Text: "note not sent; your draft was kept", IsError: true}
		return m, nil
	}
	if sent != nil {
		m.Composer.ClearSent(*sent)
	}
	if m.Composer.Text() == "" {
		m.input.Reset()
	}
	if msg.Note != nil && m.Feed.Append(*msg.Note) {
		m.refreshNotesView()
		m.notesView.GotoBottom()
	}
	m.layout()
	m.Status = StatusBar{Text: "note sent"}
	if m.Composer.CanSubmit() {
		m.Status.Text = "note sent; content added while sending is still in the composer"
	}
	if m.deps.Feed == nil {
		return m, nil
	}
	return m, refreshFeedCmd(m.deps.Feed)
}

func (m Model) refresh() (tea.Model, tea.Cmd) {
	if m.deps.Feed == nil || m.TaskID == "" {
		return m, nil
	}
	m.Feed.Loading = true
	m.Status = StatusBar{Text: "refreshing notes"}
	return m, refreshFeedCmd(m.deps.Feed)
}

func (m Model) applyNotesResult(res poller.Result) Model {
	if res.TaskID != m.TaskID {
		return m
	}
	changed := m.Feed.Apply(res)
	if res.Err != nil {
		m.BannerDismissed = false
		m.logger.Warn("fetch notes failed",
			zap.String("task", res.TaskID),
			zap.String("source", res.Source.String()),
			zap.Error(res.Err),
		)
	} else if res.Source == poller.SourceManual && m.Status.Text == "refreshing notes" {
		m.Status = StatusBar{}
	}
	m.layout()
	m.refreshNotesView()
	if changed {
		m.notesView.GotoBottom()
	}
	return m
}

func (m Model) setTask(msg SetTaskMsg) (tea.Model, tea.Cmd) {
	if msg.TaskID == m.TaskID {
		if msg.Task != nil {
			m.Task = msg.Task
		}
		return m, nil
	}
	m.TaskID = msg.TaskID
	m.Task = msg.Task
	m.Feed = poller.Feed{Loading: msg.TaskID != "" && m.deps.Feed != nil}
	m.BannerDismissed = false
	m.layout()
	m.refreshNotesView()

	var cmds []tea.Cmd
	if m.deps.Feed != nil {
		cmds = append(cmds, startFeedCmd(m.deps.Feed, msg.TaskID))
	}
	if m.deps.Notes != nil && msg.TaskID != "" && msg.Task == nil {
		cmds = append(cmds, fetchTaskCmd(m.ctx, m.deps.Notes, msg.TaskID))
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) addFiles(files ...composer.File) {
	if len(files) == 0 {
		return
	}
	before := len(m.Composer.Files())
	rejected := m.Composer.AddFiles(files...)
	if len(rejected) > 0 {
		m.Alert = &Alert{Title: "Files too large", Body: composer.RejectionMessage(rejected)}
	}
	if added := len(m.Composer.Files()) - before; added > 0 {
		m.Status = StatusBar{Text: fmt.Sprintf("attached %d file(s)", added)}
	}
	m.layout()
}

func (m Model) toggleRecording(kind recorder.Kind) (tea.Model, tea.Cmd) {
	if m.deps.Recorder == nil {
		m.Alert = &Alert{Title: "Recording unavailable", Body: "no capture device is configured"}
		return m, nil
	}
	if m.Recording.Starting || m.Recording.Stopping {
		return m, nil
	}
	if m.Recording.Active {
		if m.Recording.Kind != kind {
			m.Status = StatusBar{Text: "finish the current recording first", IsError: true}
			return m, nil
		}
		m.Recording.Stopping = true
		return m, stopRecordingCmd(m.deps.Recorder)
	}
	m.Recording = RecordingState{Starting: true, Kind: kind}
	m.Status = StatusBar{Text: fmt.Sprintf("starting %s recording", kind)}
	return m, tea.Batch(startRecordingCmd(m.ctx, m.deps.Recorder, kind), m.spin.Tick)
}

func (m Model) discardRecording() (tea.Model, tea.Cmd) {
	if m.deps.Recorder == nil || (!m.Recording.Active && !m.Recording.Starting) {
		return m, nil
	}
	if m.Recording.Starting {
		// Cancelled once the device has opened.
		m.Recording.Stopping = true
		return m, nil
	}
	m.Recording.Stopping = true
	return m, cancelRecordingCmd(m.deps.Recorder)
}

func (m Model) openVideoModal() (tea.Model, tea.Cmd) {
	if m.Recording.Active || m.Recording.Starting {
		m.Status = StatusBar{Text: "finish the current recording first", IsError: true}
		return m, nil
	}
	m.VideoModal = true
	return m, nil
}

func (m Model) onRecordingStarted(msg RecordingStartedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.Recording = RecordingState{}
		m.LastError = msg.Err
		device := "microphone"
		if msg.Kind == recorder.KindVideo {
			device = "camera"
		}
		m.Alert = &Alert{Title: "Could not access " + device, Body: msg.Err.Error()}
		m.Status = StatusBar{}
		m.layout()
		return m, nil
	}
	if m.Recording.Stopping {
		return m, cancelRecordingCmd(m.deps.Recorder)
	}
	m.Recording = RecordingState{Active: true, Kind: msg.Kind}
	m.Status = StatusBar{Text: fmt.Sprintf("recording %s", msg.Kind)}
	m.layout()
	return m, recordingTickCmd()
}

func (m Model) onRecorderEvent(ev recorder.Event) Model {
	rec := ev.Recording
	m.Recording = RecordingState{}

	label := "voice note"
	if rec.Kind == recorder.KindVideo {
		label = "video note"
		m.VideoModal = false
		if err := m.deps.Recorder.Reset(); err != nil {
			m.logger.Warn("reset video recorder", zap.Error(err))
		}
	}

	before := len(m.Composer.Files())
	rejected := m.Composer.AddFiles(composer.FileFromBytes(rec.Name(), rec.MIMEType, rec.Data))
	switch {
	case len(rejected) > 0:
		m.Alert = &Alert{Title: "Recording too large", Body: composer.RejectionMessage(rejected)}
	case len(m.Composer.Files()) == before:
		m.Status = StatusBar{Text: fmt.Sprintf("%s dropped: %d attachments already selected", label, composer.MaxFiles), IsError: true}
	default:
		text := fmt.Sprintf("%s attached (%s)", label, media.FormatElapsed(rec.Duration))
		if ev.Auto {
			text += "; reached the time limit"
		}
		m.Status = StatusBar{Text: text}
	}
	m.layout()
	return m
}

func (m Model) shareLocation() (tea.Model, tea.Cmd) {
	if m.deps.Locator == nil {
		m.Alert = &Alert{Title: "Location unavailable", Body: "location is not supported on this system"}
		return m, nil
	}
	if m.Locating {
		return m, nil
	}
	m.Locating = true
	m.layout()
	return m, tea.Batch(locateCmd(m.ctx, m.deps.Locator), m.spin.Tick)
}

func (m Model) onLocation(msg LocationMsg) (tea.Model, tea.Cmd) {
	m.Locating = false
	if msg.Err != nil {
		m.LastError = msg.Err
		m.Alert = &Alert{Title: "Could not get your location", Body: msg.Err.Error()}
		m.layout()
		return m, nil
	}
	if err := m.Composer.SetLocation(msg.Location); err != nil {
		m.Alert = &Alert{Title: "Could not get your location", Body: err.Error()}
		m.layout()
		return m, nil
	}
	m.Status = StatusBar{Text: "location attached"}
	m.layout()
	return m, nil
}

// Close tears the panel down: polling stops, an active recording is
// cancelled and in-flight requests are abandoned. Safe to call repeatedly.
func (m Model) Close() {
	m.life.once.Do(func() {
		m.life.mu.Lock()
		m.life.closed = true
		m.life.mu.Unlock()
		m.life.cancel()
		if m.deps.Feed != nil {
			m.deps.Feed.Stop()
		}
		if m.deps.Recorder != nil {
			if err := m.deps.Recorder.Close(); err != nil {
				m.logger.Warn("close recorder", zap.Error(err))
			}
		}
		m.logger.Info("notes panel closed", zap.String("task", m.TaskID))
	})
}

func (m Model) close() (tea.Model, tea.Cmd) {
	m.Close()
	m.Quitting = true
	return m, tea.Quit
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	overlay := ""
	switch {
	case m.HelpVisible:
		overlay = m.renderHelpView()
	case m.VideoModal:
		overlay = m.renderVideoModal()
	}

	composerView := m.renderComposer()
	if m.Palette.Active {
		composerView = views.RenderCommandPalette(true, m.commandInput.View())
	}

	banner := ""
	if m.bannerVisible() {
		banner = views.RenderErrorBanner(m.Feed.Err.Error())
	}

	notification := ""
	if m.Alert != nil {
		notification = views.RenderNotification("alert", m.Alert.Title+": "+m.Alert.Body)
	}

	return views.RenderPanel(views.PanelData{
		Width: m.width,
		Header: views.RenderHeader(views.TaskHeaderData{
			TaskID:    m.TaskID,
			Task:      m.Task,
			NoteCount: len(m.Feed.Notes),
			Now:       m.now(),
		}),
		Banner:       banner,
		Body:         m.notesView.View(),
		Composer:     composerView,
		StatusLine:   m.Status.Text,
		StatusError:  m.Status.IsError,
		Footer:       m.helpModel.View(m.keys),
		Notification: notification,
		Overlay:      overlay,
	})
}
