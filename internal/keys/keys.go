// Package keys provides string constants for Bubble Tea v2 key press events.
//
// The values are derived from tea.KeyPressMsg{Code: tea.KeyXxx}.String() so
// they always match what the runtime reports. Single-character keys are
// not included.
package keys

import tea "charm.land/bubbletea/v2"

// Navigation keys
var (
	Up     = tea.KeyPressMsg{Code: tea.KeyUp}.String()     // "up"
	Down   = tea.KeyPressMsg{Code: tea.KeyDown}.String()   // "down"
	PgUp   = tea.KeyPressMsg{Code: tea.KeyPgUp}.String()   // "pgup"
	PgDown = tea.KeyPressMsg{Code: tea.KeyPgDown}.String() // "pgdown"
)

// Action keys
var (
	Enter  = tea.KeyPressMsg{Code: tea.KeyEnter}.String()  // "enter"
	Tab    = tea.KeyPressMsg{Code: tea.KeyTab}.String()    // "tab"
	Delete = tea.KeyPressMsg{Code: tea.KeyDelete}.String() // "delete"
	Escape = tea.KeyPressMsg{Code: tea.KeyEscape}.String() // "esc"
)

// Ctrl combinations
var (
	CtrlC = (tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}).String() // "ctrl+c"
)
