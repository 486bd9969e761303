package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
// - Default (white/black): Primary text
// - Accent (soft purple #A78BFA): Document ids, paths
// - Muted (gray): Type labels, line numbers, hints
// - Zombie: references whose target does not exist

var (
	// Accent style for document ids and paths
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))

	// Muted style for secondary info, hints, line numbers
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	// AccentBold marks index documents in the tree
	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)

	// ZombieStyle dims references to missing documents
	ZombieStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")).Italic(true)
)
