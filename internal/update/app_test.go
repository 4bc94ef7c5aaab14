package update

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/tasknotes/internal/composer"
	"github.com/sandeepkv93/tasknotes/internal/model"
	"github.com/sandeepkv93/tasknotes/internal/poller"
	"github.com/sandeepkv93/tasknotes/internal/recorder"
	"github.com/sandeepkv93/tasknotes/internal/views"
)

type fakeNotes struct {
	mu     sync.Mutex
	drafts []composer.Draft
	err    error
	echo   *model.Note
}

func (f *fakeNotes) CreateNote(_ context.Context, _ string, d composer.Draft) (*model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, d)
	if f.err != nil {
		return nil, f.err
	}
	return f.echo, nil
}

func (f *fakeNotes) GetTask(_ context.Context, id string) (model.Task, error) {
	return model.Task{ID: id, Title: "Ship v2"}, nil
}

type fakeFeed struct {
	mu        sync.Mutex
	started   []string
	stops     int
	refreshes int
	ch        chan poller.Result
}

func newFakeFeed() *fakeFeed { return &fakeFeed{ch: make(chan poller.Result, 4)} }

func (f *fakeFeed) Start(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, id)
}

func (f *fakeFeed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeFeed) Refresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

func (f *fakeFeed) C() <-chan poller.Result { return f.ch }

type fakeRecorder struct {
	mu       sync.Mutex
	startErr error
	kinds    []recorder.Kind
	stops    int
	cancels  int
	resets   int
	closes   int
	events   chan recorder.Event
}

func newFakeRecorder() *fakeRecorder { return &fakeRecorder{events: make(chan recorder.Event, 1)} }

func (f *fakeRecorder) Start(_ context.Context, k recorder.Kind) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, k)
	return f.startErr
}

func (f *fakeRecorder) Stop() (recorder.Recording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return recorder.Recording{}, nil
}

func (f *fakeRecorder) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	return nil
}

func (f *fakeRecorder) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeRecorder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeRecorder) State() recorder.State         { return recorder.StateIdle }
func (f *fakeRecorder) Elapsed() time.Duration        { return 1500 * time.Millisecond }
func (f *fakeRecorder) MaxDuration() time.Duration    { return recorder.DefaultMaxDuration }
func (f *fakeRecorder) Events() <-chan recorder.Event { return f.events }

type fakeLocator struct {
	loc model.Location
	err error
}

func (f fakeLocator) Acquire(context.Context) (model.Location, error) { return f.loc, f.err }

type harness struct {
	notes *fakeNotes
	feed  *fakeFeed
	rec   *fakeRecorder
}

func newHarness() (Model, *harness) {
	h := &harness{notes: &fakeNotes{}, feed: newFakeFeed(), rec: newFakeRecorder()}
	m := NewModel(Deps{
		Notes:    h.notes,
		Feed:     h.feed,
		Recorder: h.rec,
		Locator:  fakeLocator{loc: model.Location{Lat: 48.85, Lng: 2.35, Address: "Paris, France"}},
	}, Options{
		TaskID:        "t1",
		CurrentUserID: "u1",
		Now:           func() time.Time { return time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC) },
	})
	return m, h
}

// runCmd executes cmd and any batch it expands to, returning every message.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func findMsg[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if typed, ok := msg.(T); ok {
			return typed, true
		}
	}
	var zero T
	return zero, false
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	next, ok := updated.(Model)
	if !ok {
		t.Fatalf("unexpected model type %T", updated)
	}
	return next, cmd
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	next, _ := step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next
}

func notesFor(ids ...string) []model.Note {
	out := make([]model.Note, 0, len(ids))
	for i, id := range ids {
		out = append(out, model.Note{
			ID:        id,
			Author:    model.User{ID: "u2", Name: "Bob"},
			Text:      "note " + id,
			CreatedAt: time.Date(2026, 2, 9, 11, i*10, 0, 0, time.UTC),
		})
	}
	return out
}

func TestNewModelDefaults(t *testing.T) {
	m, _ := newHarness()
	if !m.Feed.Loading || m.Feed.Loaded {
		t.Fatalf("expected initial loading feed, got %+v", m.Feed)
	}
	if m.Closed() || m.Alert != nil || m.Recording.Active {
		t.Fatalf("unexpected initial state: %+v", m)
	}
	if !strings.Contains(m.View(), "Loading notes") {
		t.Fatalf("expected loading view, got %q", m.View())
	}
}

func TestInitStartsFeedForTask(t *testing.T) {
	m, h := newHarness()
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("expected init commands")
	}
	// Run only the feed start; the wait commands block on channels.
	startFeedCmd(h.feed, m.TaskID)()
	if len(h.feed.started) != 1 || h.feed.started[0] != "t1" {
		t.Fatalf("expected feed started for t1, got %v", h.feed.started)
	}
}

func TestSubmitHelloClearsComposerAndRefreshes(t *testing.T) {
	m, h := newHarness()
	h.notes.echo = &model.Note{ID: "n9", Author: model.User{ID: "u1", Name: "Ann"}, Text: "hello"}
	m = typeText(t, m, "hello")
	if m.Composer.Text() != "hello" {
		t.Fatalf("composer text = %q", m.Composer.Text())
	}

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Sending {
		t.Fatal("expected sending state after enter")
	}
	submitted, ok := findMsg[NoteSubmittedMsg](runCmd(cmd))
	if !ok {
		t.Fatal("expected submit command")
	}
	if len(h.notes.drafts) != 1 || h.notes.drafts[0].Text != "hello" {
		t.Fatalf("unexpected drafts: %+v", h.notes.drafts)
	}

	m, cmd = step(t, m, submitted)
	if m.Sending || m.Composer.Text() != "" || m.input.Value() != "" {
		t.Fatalf("expected cleared composer, got text=%q input=%q", m.Composer.Text(), m.input.Value())
	}
	if len(m.Feed.Notes) != 1 || m.Feed.Notes[0].ID != "n9" {
		t.Fatalf("expected echoed note appended, got %+v", m.Feed.Notes)
	}
	runCmd(cmd)
	if h.feed.refreshes != 1 {
		t.Fatalf("expected one manual refresh after submit, got %d", h.feed.refreshes)
	}
}

func TestSubmitSuccessKeepsContentAddedWhileSending(t *testing.T) {
	m, h := newHarness()
	m = typeText(t, m, "hello")
	m, _ = step(t, m, FilesSelectedMsg{Files: []composer.File{composer.FileFromBytes("a.txt", "text/plain", []byte("a"))}})

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	submitted, ok := findMsg[NoteSubmittedMsg](runCmd(cmd))
	if !ok {
		t.Fatal("expected submit command")
	}

	// The recording cap is reached and a location resolves before the
	// backend answers.
	m, _ = step(t, m, RecorderEventMsg{Event: recorder.Event{Auto: true, Recording: recorder.Recording{
		Kind: recorder.KindAudio, MIMEType: "audio/webm", Data: []byte("opus"), Duration: recorder.DefaultMaxDuration,
		CreatedAt: time.Date(2026, 2, 9, 12, 5, 0, 0, time.UTC),
	}}})
	m, _ = step(t, m, LocationMsg{Location: model.Location{Lat: 1, Lng: 2}})
	if len(m.Composer.Files()) != 2 {
		t.Fatalf("expected recording attached while sending, got %+v", m.Composer.Files())
	}

	m, _ = step(t, m, submitted)
	if m.Sending || m.Composer.Text() != "" || m.input.Value() != "" {
		t.Fatalf("sent text should be cleared, got text=%q input=%q", m.Composer.Text(), m.input.Value())
	}
	files := m.Composer.Files()
	if len(files) != 1 || files[0].Name != "voice-note-2026-02-09_12-05-00.webm" {
		t.Fatalf("recording attached while sending was lost: %+v", files)
	}
	if _, ok := m.Composer.Location(); !ok {
		t.Fatal("location attached while sending was lost")
	}
	if sent := h.notes.drafts[0]; len(sent.Files) != 1 || sent.Files[0].Name != "a.txt" || sent.Location != nil {
		t.Fatalf("unexpected sent draft: %+v", sent)
	}
	if !m.Composer.CanSubmit() {
		t.Fatal("kept content should be ready for the next note")
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	m, h := newHarness()
	h.notes.err = errors.New("api: POST /api/tasks/t1/notes: 500: upload failed")
	m = typeText(t, m, "hello")
	m, _ = step(t, m, FilesSelectedMsg{Files: []composer.File{composer.FileFromBytes("a.txt", "text/plain", []byte("a"))}})

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	submitted, _ := findMsg[NoteSubmittedMsg](runCmd(cmd))
	m, _ = step(t, m, submitted)

	if m.Alert == nil || !strings.Contains(m.Alert.Body, "upload failed") {
		t.Fatalf("expected failure alert, got %+v", m.Alert)
	}
	if m.Composer.Text() != "hello" || len(m.Composer.Files()) != 1 || m.input.Value() != "hello" {
		t.Fatalf("draft not preserved: text=%q files=%d", m.Composer.Text(), len(m.Composer.Files()))
	}
	if h.feed.refreshes != 0 {
		t.Fatal("failed submit must not refresh")
	}

	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if m.Alert != nil {
		t.Fatal("any key should dismiss the alert")
	}
	if m.input.Value() != "hello" {
		t.Fatalf("dismissing key should not reach the input, got %q", m.input.Value())
	}
}

func TestEnterOnEmptyComposerDoesNothing(t *testing.T) {
	m, h := newHarness()
	m = typeText(t, m, "   ")
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.Sending || len(h.notes.drafts) != 0 {
		t.Fatal("blank composer must not submit")
	}
}

func TestAltEnterInsertsNewline(t *testing.T) {
	m, h := newHarness()
	m = typeText(t, m, "a")
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	m = typeText(t, m, "b")
	if m.input.Value() != "a\nb" {
		t.Fatalf("input = %q, want a newline between", m.input.Value())
	}
	if len(h.notes.drafts) != 0 {
		t.Fatal("alt+enter must not submit")
	}
}

func TestFetchFailureKeepsNotesAndRetryClearsBanner(t *testing.T) {
	m, h := newHarness()
	m, _ = step(t, m, NotesResultMsg{Result: poller.Result{TaskID: "t1", Seq: 1, Notes: notesFor("a", "b", "c")}})
	if len(m.Feed.Notes) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(m.Feed.Notes))
	}

	m, _ = step(t, m, NotesResultMsg{Result: poller.Result{TaskID: "t1", Seq: 2, Err: errors.New("503 service unavailable")}})
	if len(m.Feed.Notes) != 3 {
		t.Fatalf("failed fetch must keep notes, got %d", len(m.Feed.Notes))
	}
	view := m.View()
	if !strings.Contains(view, "Failed to load notes") || !strings.Contains(view, "note c") {
		t.Fatalf("expected banner and notes in view: %q", view)
	}

	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})
	runCmd(cmd)
	if h.feed.refreshes != 1 {
		t.Fatalf("retry should refresh once, got %d", h.feed.refreshes)
	}

	m, _ = step(t, m, NotesResultMsg{Result: poller.Result{TaskID: "t1", Seq: 3, Source: poller.SourceManual, Notes: notesFor("a", "b", "c")}})
	if m.bannerVisible() || strings.Contains(m.View(), "Failed to load notes") {
		t.Fatal("successful fetch should clear the banner")
	}
}

func TestDismissBanner(t *testing.T) {
	m, _ := newHarness()
	m, _ = step(t, m, NotesResultMsg{Result: poller.Result{TaskID: "t1", Err: errors.New("timeout")}})
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlD})
	if m.bannerVisible() {
		t.Fatal("ctrl+d should dismiss the banner")
	}
	m, _ = step(t, m, NotesResultMsg{Result: poller.Result{TaskID: "t1", Err: errors.New("timeout")}})
	if !m.bannerVisible() {
		t.Fatal("a new failure should show the banner again")
	}
}

func TestEmptyStateAfterFirstFetch(t *testing.T) {
	m, _ := newHarness()
	m, _ = step(t, m, NotesResultMsg{Result: poller.Result{TaskID: "t1", Seq: 1, Notes: []model.Note{}}})
	view := m.View()
	if !strings.Contains(view, views.EmptyNotesText) {
		t.Fatalf("expected empty state, got %q", view)
	}
	if strings.Contains(view, "Failed") {
		t.Fatalf("empty list is not an error: %q", view)
	}
}

func TestResultForOtherTaskIgnored(t *testing.T) {
	m, _ := newHarness()
	m, _ = step(t, m, NotesResultMsg{Result: poller.Result{TaskID: "other", Notes: notesFor("x")}})
	if len(m.Feed.Notes) != 0 || m.Feed.Loaded {
		t.Fatalf("result for another task should be ignored: %+v", m.Feed)
	}
}

func TestSetTaskRestartsFeed(t *testing.T) {
	m, h := newHarness()
	m, _ = step(t, m, NotesResultMsg{Result: poller.Result{TaskID: "t1", Notes: notesFor("a")}})
	m, cmd := step(t, m, SetTaskMsg{TaskID: "t2"})
	msgs := runCmd(cmd)
	if m.TaskID != "t2" || len(m.Feed.Notes) != 0 || !m.Feed.Loading {
		t.Fatalf("expected fresh feed for t2: %+v", m.Feed)
	}
	if len(h.feed.started) != 1 || h.feed.started[0] != "t2" {
		t.Fatalf("expected feed restarted for t2, got %v", h.feed.started)
	}
	loaded, ok := findMsg[TaskLoadedMsg](msgs)
	if !ok {
		t.Fatal("expected task fetch")
	}
	m, _ = step(t, m, loaded)
	if m.Task == nil || m.Task.Title != "Ship v2" {
		t.Fatalf("expected task snapshot, got %+v", m.Task)
	}

	m, cmd = step(t, m, SetTaskMsg{TaskID: ""})
	runCmd(cmd)
	if h.feed.started[len(h.feed.started)-1] != "" || m.Feed.Loading {
		t.Fatal("clearing the task should deactivate the feed")
	}
}

func TestOversizedFilesRaiseAlert(t *testing.T) {
	m, _ := newHarness()
	big := composer.File{Name: "big.mov", MIMEType: "video/quicktime", Size: 15 << 20}
	small := composer.File{Name: "small.png", MIMEType: "image/png", Size: 2 << 20}
	m, _ = step(t, m, FilesSelectedMsg{Files: []composer.File{big, small}})

	if m.Alert == nil || !strings.Contains(m.Alert.Body, "big.mov") || !strings.Contains(m.Alert.Body, "15.00 MB") {
		t.Fatalf("expected rejection alert naming big.mov, got %+v", m.Alert)
	}
	files := m.Composer.Files()
	if len(files) != 1 || files[0].Name != "small.png" {
		t.Fatalf("expected only small.png attached, got %+v", files)
	}
	if !strings.Contains(m.View(), "small.png") {
		t.Fatal("attached file should be listed in the composer")
	}
}

func TestAudioRecordingAttachesFile(t *testing.T) {
	m, h := newHarness()
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	if !m.Recording.Starting {
		t.Fatal("expected starting state")
	}
	started, ok := findMsg[RecordingStartedMsg](runCmd(cmd))
	if !ok || started.Kind != recorder.KindAudio {
		t.Fatalf("expected audio start, got %+v", started)
	}
	m, cmd = step(t, m, started)
	if !m.Recording.Active || cmd == nil {
		t.Fatal("expected active recording with tick scheduled")
	}
	m, _ = step(t, m, RecordingTickMsg{})
	if m.Recording.Elapsed != 1500*time.Millisecond {
		t.Fatalf("elapsed = %v", m.Recording.Elapsed)
	}
	if !strings.Contains(m.View(), "REC") {
		t.Fatal("recording indicator missing")
	}

	m, cmd = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	runCmd(cmd)
	if h.rec.stops != 1 {
		t.Fatalf("expected stop, got %d", h.rec.stops)
	}

	created := time.Date(2026, 2, 9, 12, 0, 5, 0, time.UTC)
	m, _ = step(t, m, RecorderEventMsg{Event: recorder.Event{Recording: recorder.Recording{
		Kind: recorder.KindAudio, MIMEType: "audio/webm", Data: []byte("opus"), Duration: 4 * time.Second, CreatedAt: created,
	}}})
	if m.Recording.Active {
		t.Fatal("recording should be inactive after the stop event")
	}
	files := m.Composer.Files()
	if len(files) != 1 || files[0].Name != "voice-note-2026-02-09_12-00-05.webm" || files[0].MIMEType != "audio/webm" {
		t.Fatalf("unexpected files: %+v", files)
	}
	if !m.Composer.CanSubmit() {
		t.Fatal("a recording alone should be submittable")
	}
}

func TestRecordingStartFailureAlerts(t *testing.T) {
	m, h := newHarness()
	h.rec.startErr = recorder.ErrDeviceUnavailable
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	started, _ := findMsg[RecordingStartedMsg](runCmd(cmd))
	m, _ = step(t, m, started)
	if m.Recording.Active || m.Recording.Starting {
		t.Fatalf("expected rollback to idle, got %+v", m.Recording)
	}
	if m.Alert == nil || !strings.Contains(m.Alert.Title, "microphone") {
		t.Fatalf("expected device alert, got %+v", m.Alert)
	}
}

func TestDiscardWhileStartingCancelsAfterOpen(t *testing.T) {
	m, h := newHarness()
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	started, _ := findMsg[RecordingStartedMsg](runCmd(cmd))

	m, cmd = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	if cmd != nil || !m.Recording.Stopping {
		t.Fatal("discard during start should be deferred")
	}
	m, cmd = step(t, m, started)
	cancelled, ok := findMsg[RecordingCancelledMsg](runCmd(cmd))
	if !ok || h.rec.cancels != 1 {
		t.Fatalf("expected cancel after device opened, cancels=%d", h.rec.cancels)
	}
	m, _ = step(t, m, cancelled)
	if m.Recording.Active || m.Recording.Stopping {
		t.Fatalf("expected idle recording state, got %+v", m.Recording)
	}
}

func TestVideoModalHandsOffAndResets(t *testing.T) {
	m, h := newHarness()
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	if !m.VideoModal {
		t.Fatal("expected video modal")
	}
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeySpace})
	started, _ := findMsg[RecordingStartedMsg](runCmd(cmd))
	if started.Kind != recorder.KindVideo {
		t.Fatalf("expected video start, got %q", started.Kind)
	}
	m, _ = step(t, m, started)

	m, _ = step(t, m, RecorderEventMsg{Event: recorder.Event{Recording: recorder.Recording{
		Kind: recorder.KindVideo, MIMEType: "video/webm", Data: []byte("vp8"), CreatedAt: time.Now(),
	}}})
	if m.VideoModal {
		t.Fatal("modal should close after hand-off")
	}
	if h.rec.resets != 1 {
		t.Fatalf("expected recorder reset, got %d", h.rec.resets)
	}
	files := m.Composer.Files()
	if len(files) != 1 || !strings.HasPrefix(files[0].Name, "video-note-") {
		t.Fatalf("unexpected files: %+v", files)
	}
}

func TestVideoModalEscDiscards(t *testing.T) {
	m, h := newHarness()
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyCtrlG})
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeySpace})
	started, _ := findMsg[RecordingStartedMsg](runCmd(cmd))
	m, _ = step(t, m, started)

	m, cmd = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.VideoModal || m.Closed() {
		t.Fatal("esc in the modal should close only the modal")
	}
	runCmd(cmd)
	if h.rec.cancels != 1 {
		t.Fatalf("expected cancel, got %d", h.rec.cancels)
	}
}

func TestShareLocation(t *testing.T) {
	m, _ := newHarness()
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	if !m.Locating {
		t.Fatal("expected locating state")
	}
	loc, ok := findMsg[LocationMsg](runCmd(cmd))
	if !ok {
		t.Fatal("expected location message")
	}
	m, _ = step(t, m, loc)
	got, ok := m.Composer.Location()
	if !ok || got.Address != "Paris, France" || m.Locating {
		t.Fatalf("unexpected location state: %+v ok=%v", got, ok)
	}
	if !m.Composer.CanSubmit() {
		t.Fatal("a location alone should be submittable")
	}
}

func TestShareLocationFailureAlerts(t *testing.T) {
	m, _ := newHarness()
	m.deps.Locator = fakeLocator{err: errors.New("position unavailable: timeout")}
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	loc, _ := findMsg[LocationMsg](runCmd(cmd))
	m, _ = step(t, m, loc)
	if _, ok := m.Composer.Location(); ok {
		t.Fatal("no location should be attached on failure")
	}
	if m.Alert == nil || !strings.Contains(m.Alert.Body, "timeout") {
		t.Fatalf("expected location alert, got %+v", m.Alert)
	}
}

func TestPaletteRemoveAndClearLocation(t *testing.T) {
	m, _ := newHarness()
	m, _ = step(t, m, FilesSelectedMsg{Files: []composer.File{
		composer.FileFromBytes("a.txt", "text/plain", []byte("a")),
		composer.FileFromBytes("b.txt", "text/plain", []byte("b")),
	}})

	m = typeText(t, m, "/")
	if !m.Palette.Active {
		t.Fatal("slash on an empty composer should open the palette")
	}
	m = typeText(t, m, "remove 1")
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Palette.Active {
		t.Fatal("palette should close after running a command")
	}
	files := m.Composer.Files()
	if len(files) != 1 || files[0].Name != "b.txt" {
		t.Fatalf("unexpected files after remove: %+v", files)
	}
	if m.Status.Text != "removed a.txt" {
		t.Fatalf("unexpected status: %+v", m.Status)
	}

	m = typeText(t, m, "/")
	m = typeText(t, m, "remove 7")
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Status.IsError {
		t.Fatalf("expected error for missing attachment, got %+v", m.Status)
	}
}

func TestSlashInsideTextIsTyped(t *testing.T) {
	m, _ := newHarness()
	m = typeText(t, m, "a")
	m = typeText(t, m, "/")
	if m.Palette.Active || m.input.Value() != "a/" {
		t.Fatalf("slash after text should be typed, palette=%v input=%q", m.Palette.Active, m.input.Value())
	}
}

func TestHelpToggle(t *testing.T) {
	m, _ := newHarness()
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyF1})
	if !m.HelpVisible || !strings.Contains(m.View(), "/attach") {
		t.Fatal("expected help overlay")
	}
	m, _ = step(t, m, tea.KeyMsg{Type: tea.KeyF1})
	if m.HelpVisible {
		t.Fatal("expected help hidden")
	}
}

func TestCloseTearsDownOnce(t *testing.T) {
	m, h := newHarness()
	m, cmd := step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil || !m.Quitting || !m.Closed() {
		t.Fatal("esc should close the panel and quit")
	}
	m.Close()
	m.Close()
	if h.feed.stops != 1 || h.rec.closes != 1 {
		t.Fatalf("teardown should run once, stops=%d closes=%d", h.feed.stops, h.rec.closes)
	}

	m, cmd = step(t, m, NotesResultMsg{Result: poller.Result{TaskID: "t1", Notes: notesFor("late")}})
	if cmd != nil || len(m.Feed.Notes) != 0 {
		t.Fatal("results after close must be ignored")
	}
	if m.ctx.Err() == nil {
		t.Fatal("in-flight requests should see a cancelled context")
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m, _ := newHarness()
	m, _ = step(t, m, SetStatusMsg{Text: "ready"})
	if m.Status.Text != "ready" || m.Status.IsError {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
	m, _ = step(t, m, AppErrorMsg{Err: errors.New("boom")})
	if m.LastError == nil || !m.Status.IsError || m.Status.Text != "boom" {
		t.Fatalf("unexpected error status: %+v", m.Status)
	}
	m, _ = step(t, m, ClearStatusMsg{})
	if m.Status.Text != "" || m.Status.IsError {
		t.Fatalf("expected cleared status, got: %+v", m.Status)
	}
}
