package tui

// Screen represents different TUI screens
type Screen string

const (
	// ScreenOverview shows system facts, capacity and a summary of every probe
	ScreenOverview Screen = "overview"
	// ScreenAccelerators shows CUDA, nvidia-smi and ROCm details
	ScreenAccelerators Screen = "accelerators"
	// ScreenFrameworks shows the framework import results
	ScreenFrameworks Screen = "frameworks"
	// ScreenHelp shows help overlay
	ScreenHelp Screen = "help"
)

// MenuItem represents a tab in the header bar
type MenuItem struct {
	Key    string // Number key or letter
	Label  string // Display label
	Screen Screen // Target screen
}

// DefaultMenuItems returns the header tabs in display order
func DefaultMenuItems() []MenuItem {
	return []MenuItem{
		{Key: "1", Label: "Overview", Screen: ScreenOverview},
		{Key: "2", Label: "Accelerators", Screen: ScreenAccelerators},
		{Key: "3", Label: "Frameworks", Screen: ScreenFrameworks},
		{Key: "?", Label: "Help", Screen: ScreenHelp},
	}
}
