package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/tasknotes/internal/views"
)

type keyMap struct {
	Send          key.Binding
	Newline       key.Binding
	Refresh       key.Binding
	DismissBanner key.Binding
	Record        key.Binding
	Discard       key.Binding
	Video         key.Binding
	Location      key.Binding
	Palette       key.Binding
	ScrollUp      key.Binding
	ScrollDown    key.Binding
	Help          key.Binding
	Close         key.Binding
	ForceQuit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Send:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send note")),
		Newline:       key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"), key.WithHelp("alt+enter", "new line")),
		Refresh:       key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "refresh / retry")),
		DismissBanner: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "dismiss error")),
		Record:        key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "record voice / stop")),
		Discard:       key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "discard recording")),
		Video:         key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "video note")),
		Location:      key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "share location")),
		Palette:       key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "commands")),
		ScrollUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown:    key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		Help:          key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "help")),
		Close:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close panel")),
		ForceQuit:     key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Send, k.Record, k.Location, k.Palette, k.Help, k.Close}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Send, k.Newline, k.Palette},
		{k.Record, k.Discard, k.Video, k.Location},
		{k.Refresh, k.DismissBanner, k.ScrollUp, k.ScrollDown},
		{k.Help, k.Close},
	}
}

func (m Model) renderHelpView() string {
	var plain []string
	for _, group := range m.keys.FullHelp() {
		for _, b := range group {
			h := b.Help()
			plain = append(plain, fmt.Sprintf("- %s: %s", h.Key, h.Desc))
		}
	}
	hm := m.helpModel
	hm.ShowAll = true
	return views.RenderHelpPanel(views.HelpPanelData{
		Bindings: plain,
		HelpView: hm.View(m.keys),
	})
}
