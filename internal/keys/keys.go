// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// PreviewKeyMap holds the keybindings of the simulated panel.
type PreviewKeyMap struct {
	Quit       key.Binding
	ToggleLogs key.Binding
	ClearLogs  key.Binding
	Help       key.Binding
}

// Preview is the active keymap of the preview.
var Preview = DefaultPreviewKeyMap()

// DefaultPreviewKeyMap returns the default preview keybindings.
func DefaultPreviewKeyMap() PreviewKeyMap {
	return PreviewKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "toggle log"),
		),
		ClearLogs: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k PreviewKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// FullHelp returns keybindings for the full help view.
func (k PreviewKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Help},
		{k.ToggleLogs, k.ClearLogs},
	}
}
