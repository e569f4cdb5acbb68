// Package tui provides the interactive board for boardsync.
package tui

// Mode represents the current UI mode.
type Mode int

const (
	ModeNormal       Mode = iota // Default navigation mode
	ModeDrag                     // A card is picked up and follows the column cursor
	ModeInputTitle               // Title input mode (for new task)
	ModeInputComment             // Comment input mode
	ModeConfirm                  // Confirmation dialog mode
	ModeDetail                   // Task detail view mode
	ModeActivity                 // Activity log view mode
	ModeHelp                     // Help overlay mode
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeDrag:
		return "drag"
	case ModeInputTitle:
		return "input_title"
	case ModeInputComment:
		return "input_comment"
	case ModeConfirm:
		return "confirm"
	case ModeDetail:
		return "detail"
	case ModeActivity:
		return "activity"
	case ModeHelp:
		return "help"
	default:
		return "unknown"
	}
}

// IsInputMode returns true if the mode accepts text input.
func (m Mode) IsInputMode() bool {
	switch m {
	case ModeInputTitle, ModeInputComment:
		return true
	case ModeNormal, ModeDrag, ModeConfirm, ModeDetail, ModeActivity, ModeHelp:
		return false
	}
	return false
}

// ConfirmAction represents the type of action requiring confirmation.
type ConfirmAction int

const (
	ConfirmNone   ConfirmAction = iota
	ConfirmDelete               // Delete task
)

// String returns a human-readable description of the action.
func (a ConfirmAction) String() string {
	switch a {
	case ConfirmNone:
		return ""
	case ConfirmDelete:
		return "delete"
	}
	return ""
}
