package update

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"go.uber.org/zap"

	"github.com/sandeepkv93/tasknotes/internal/composer"
	"github.com/sandeepkv93/tasknotes/internal/model"
	"github.com/sandeepkv93/tasknotes/internal/poller"
	"github.com/sandeepkv93/tasknotes/internal/recorder"
)

// NotesService is the backend surface the panel writes through.
type NotesService interface {
	CreateNote(ctx context.Context, taskID string, draft composer.Draft) (*model.Note, error)
	GetTask(ctx context.Context, taskID string) (model.Task, error)
}

// NotesFeed delivers fetched note lists for the active task.
type NotesFeed interface {
	Start(taskID string)
	Stop()
	Refresh()
	C() <-chan poller.Result
}

type Recorder interface {
	Start(ctx context.Context, kind recorder.Kind) error
	Stop() (recorder.Recording, error)
	Cancel() error
	Reset() error
	Close() error
	State() recorder.State
	Elapsed() time.Duration
	MaxDuration() time.Duration
	Events() <-chan recorder.Event
}

type Locator interface {
	Acquire(ctx context.Context) (model.Location, error)
}

type Deps struct {
	Notes    NotesService
	Feed     NotesFeed
	Recorder Recorder
	Locator  Locator
	Logger   *zap.Logger
}

type Options struct {
	TaskID        string
	Task          *model.Task
	CurrentUserID string
	// Markdown renders note bodies through glamour.
	Markdown bool
	Now      func() time.Time
}

type StatusBar struct {
	Text    string
	IsError bool
}

// Alert blocks the panel until the user dismisses it.
type Alert struct {
	Title string
	Body  string
}

type RecordingState struct {
	Active   bool
	Starting bool
	Stopping bool
	Kind     recorder.Kind
	Elapsed  time.Duration
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

// lifecycle is shared by every copy of the Model so teardown runs once.
type lifecycle struct {
	once   sync.Once
	mu     sync.Mutex
	closed bool
	cancel context.CancelFunc
}

func (l *lifecycle) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

type Model struct {
	TaskID          string
	Task            *model.Task
	CurrentUserID   string
	Feed            poller.Feed
	Composer        composer.Composer
	Status          StatusBar
	Alert           *Alert
	BannerDismissed bool
	Sending         bool
	Locating        bool
	Recording       RecordingState
	VideoModal      bool
	Palette         CommandPaletteState
	HelpVisible     bool
	LastError       error
	Quitting        bool

	// inFlight is the draft being sent; only its content is cleared on success.
	inFlight *composer.Draft

	deps     Deps
	logger   *zap.Logger
	ctx      context.Context
	life     *lifecycle
	now      func() time.Time
	markdown bool
	width    int
	height   int
	keys     keyMap

	input        textarea.Model
	commandInput textinput.Model
	notesView    viewport.Model
	spin         spinner.Model
	recProgress  progress.Model
	helpModel    help.Model
}

// Messages.

type NotesResultMsg struct {
	Result poller.Result
}

type TaskLoadedMsg struct {
	Task model.Task
	Err  error
}

type SetTaskMsg struct {
	TaskID string
	Task   *model.Task
}

type NoteSubmittedMsg struct {
	Note *model.Note
	Err  error
}

type FilesSelectedMsg struct {
	Files []composer.File
}

type RecordingStartedMsg struct {
	Kind recorder.Kind
	Err  error
}

type RecordingTickMsg struct{}

type RecorderEventMsg struct {
	Event recorder.Event
}

type RecordingCancelledMsg struct {
	Err error
}

type RecorderErrorMsg struct {
	Op  string
	Err error
}

type LocationMsg struct {
	Location model.Location
	Err      error
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type AlertMsg struct {
	Title string
	Body  string
}

func NewModel(deps Deps, opts Options) Model {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		TaskID:        opts.TaskID,
		Task:          opts.Task,
		CurrentUserID: opts.CurrentUserID,
		Feed:          poller.Feed{Loading: opts.TaskID != "" && deps.Feed != nil},
		deps:          deps,
		logger:        logger,
		ctx:           ctx,
		life:          &lifecycle{cancel: cancel},
		now:           now,
		markdown:      opts.Markdown,
		width:         80,
		height:        24,
		keys:          defaultKeyMap(),
	}
	m.initBubbleComponents()
	m.layout()
	m.refreshNotesView()
	return m
}

func (m *Model) initBubbleComponents() {
	m.input = textarea.New()
	m.input.Placeholder = "Write a note... (enter to send, alt+enter for newline)"
	m.input.ShowLineNumbers = false
	m.input.CharLimit = 0
	m.input.SetHeight(3)
	m.input.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	m.input.Focus()

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.notesView = viewport.New(76, 12)

	m.spin = spinner.New()
	m.spin.Spinner = spinner.Dot

	m.recProgress = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	m.recProgress.Width = 24

	m.helpModel = help.New()
}

// layout distributes the terminal height between the note list and the
// fixed sections around it.
func (m *Model) layout() {
	inner := m.width - 4
	if inner < 20 {
		inner = 20
	}
	m.input.SetWidth(inner - 2)
	m.commandInput.Width = inner - 4

	reserved := 1 + 2 + 2 + m.input.Height() + 1 + 1
	if m.bannerVisible() {
		reserved++
	}
	reserved += len(m.Composer.Files())
	if _, ok := m.Composer.Location(); ok || m.Locating {
		reserved++
	}
	if m.Recording.Active {
		reserved++
	}
	h := m.height - reserved
	if h < 3 {
		h = 3
	}
	m.notesView.Width = inner
	m.notesView.Height = h
}

func (m Model) Closed() bool {
	return m.life.isClosed()
}
