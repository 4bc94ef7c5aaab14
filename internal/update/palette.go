package update

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/tasknotes/internal/commands"
	"github.com/sandeepkv93/tasknotes/internal/composer"
	"github.com/sandeepkv93/tasknotes/internal/recorder"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.closePalette()
		m.Status = StatusBar{Text: "command palette closed"}
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, cmd
}

func (m Model) closePalette() Model {
	m.Palette = CommandPaletteState{}
	m.commandInput.SetValue("")
	m.commandInput.Blur()
	m.input.Focus()
	return m
}

func (m Model) executePaletteCommand() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m = m.closePalette()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}

	var next tea.Cmd
	// follow runs a panel action and keeps its model and command.
	follow := func(tm tea.Model, c tea.Cmd) {
		m = tm.(Model)
		next = c
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Attach: func(a commands.AttachArgs) (commands.Result, error) {
			paths, err := composer.ExpandPatterns(a.Patterns)
			if err != nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: err.Error()}
			}
			files := make([]composer.File, 0, len(paths))
			var failed []string
			for _, p := range paths {
				f, err := composer.FileFromPath(p)
				if err != nil {
					failed = append(failed, p)
					continue
				}
				files = append(files, f)
			}
			if len(files) == 0 {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no readable files matched"}
			}
			before := len(m.Composer.Files())
			m.addFiles(files...)
			msg := fmt.Sprintf("attached %d file(s)", len(m.Composer.Files())-before)
			if len(failed) > 0 {
				msg += fmt.Sprintf("; skipped %s", strings.Join(failed, ", "))
			}
			return commands.Result{Message: msg}, nil
		},
		Remove: func(r commands.RemoveArgs) (commands.Result, error) {
			files := m.Composer.Files()
			if r.Index >= len(files) {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no attachment %d", r.Index+1)}
			}
			name := files[r.Index].Name
			m.Composer.RemoveFile(r.Index)
			m.layout()
			return commands.Result{Message: "removed " + name}, nil
		},
		Record: func(r commands.RecordArgs) (commands.Result, error) {
			if m.Recording.Active || m.Recording.Starting {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "already recording"}
			}
			kind := recorder.Kind(r.Kind)
			if kind == recorder.KindVideo {
				m.VideoModal = true
			}
			follow(m.toggleRecording(kind))
			return commands.Result{Message: m.Status.Text}, nil
		},
		Stop: func() (commands.Result, error) {
			if !m.Recording.Active {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "not recording"}
			}
			follow(m.toggleRecording(m.Recording.Kind))
			return commands.Result{Message: "stopping recording"}, nil
		},
		Cancel: func() (commands.Result, error) {
			if !m.Recording.Active && !m.Recording.Starting {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "not recording"}
			}
			m.VideoModal = false
			follow(m.discardRecording())
			return commands.Result{Message: "discarding recording"}, nil
		},
		Location: func() (commands.Result, error) {
			follow(m.shareLocation())
			return commands.Result{Message: "locating"}, nil
		},
		ClearLocation: func() (commands.Result, error) {
			m.Composer.ClearLocation()
			m.layout()
			return commands.Result{Message: "location removed"}, nil
		},
		Refresh: func() (commands.Result, error) {
			follow(m.refresh())
			return commands.Result{Message: "refreshing notes"}, nil
		},
		Help: func() (commands.Result, error) {
			m.HelpVisible = true
			return commands.Result{Message: "help shown"}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		var ce *commands.CommandError
		if !errors.As(err, &ce) {
			m.LastError = err
		}
		return m, next
	}
	// An alert raised by the action already explains the outcome.
	if m.Alert == nil {
		m.Status = StatusBar{Text: res.Message}
	}
	return m, next
}
