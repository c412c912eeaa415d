package app

import (
	"charm.land/bubbles/v2/key"

	"github.com/zhubert/claudectl/internal/keys"
	"github.com/zhubert/claudectl/internal/ui"
)

// keyMap holds the dashboard's bindings.
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	New    key.Binding
	Start  key.Binding
	Stop   key.Binding
	Delete key.Binding
	Output key.Binding
	Copy   key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:     key.NewBinding(key.WithKeys(keys.Up, "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys(keys.Down, "j"), key.WithHelp("↓/j", "down")),
		New:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Start:  key.NewBinding(key.WithKeys("r", keys.Enter), key.WithHelp("r", "start")),
		Stop:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Delete: key.NewBinding(key.WithKeys("d", keys.Delete), key.WithHelp("d", "delete")),
		Output: key.NewBinding(key.WithKeys("o", keys.Tab), key.WithHelp("o", "output")),
		Copy:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy output")),
		Quit:   key.NewBinding(key.WithKeys("q", keys.CtrlC), key.WithHelp("q", "quit")),
	}
}

// footer converts the bindings to footer entries.
func (k keyMap) footer() []ui.KeyBinding {
	all := []key.Binding{k.Up, k.Down, k.New, k.Start, k.Stop, k.Delete, k.Output, k.Copy, k.Quit}
	out := make([]ui.KeyBinding, 0, len(all))
	for _, b := range all {
		h := b.Help()
		out = append(out, ui.KeyBinding{Key: h.Key, Desc: h.Desc})
	}
	return out
}
