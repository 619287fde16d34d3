package tui

// Color constants for the timer theme
const (
	ColorBorder = "#3A3F55" // Grey-blue

	// Text Colors
	ColorPrimaryText   = "#E6EAF2" // Primary text (labels, titles)
	ColorSecondaryText = "#B1B8C7" // Secondary text
	ColorDisabledText  = "#6D7383" // Muted text
	ColorHelpText      = "240"     // Dark grey for help text

	// Accent Colors
	ColorAccentMain   = "#7C3AED" // Accent elements, active borders
	ColorAccentBright = "#A78BFA" // Highlights, running clock

	// State Colors
	ColorError   = "#EF4444" // Commit failures
	ColorSuccess = "#22C55E" // Committed entries
	ColorWarning = "#F59E0B" // Paused clock, idle dialog
)
