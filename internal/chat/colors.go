package chat

import "github.com/charmbracelet/lipgloss"

var (
	textColor   = lipgloss.Color("252")
	blurText    = lipgloss.Color("244")
	dimColor    = lipgloss.Color("240")
	caretColor  = lipgloss.Color("111")
	inputBg     = lipgloss.Color("235")
	userColor   = lipgloss.Color("157")
	botColor    = lipgloss.Color("111")
	anchorBg    = lipgloss.Color("58")
	anchorMulti = lipgloss.Color("94")
	branchColor = lipgloss.Color("216")
	forkColor   = lipgloss.Color("183")
	errorColor  = lipgloss.Color("196")
	statusColor = lipgloss.Color("245")
	overlayEdge = lipgloss.Color("216")
	selectedBg  = lipgloss.Color("237")
)

const sidebarWidth = 28

var (
	userStyle      = lipgloss.NewStyle().Foreground(userColor).Bold(true)
	botStyle       = lipgloss.NewStyle().Foreground(botColor).Bold(true)
	bodyStyle      = lipgloss.NewStyle().Foreground(textColor)
	dimStyle       = lipgloss.NewStyle().Foreground(dimColor)
	errorStyle     = lipgloss.NewStyle().Foreground(errorColor)
	anchorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(anchorBg).Underline(true)
	overlapStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(anchorMulti).Underline(true)
	branchStyle    = lipgloss.NewStyle().Foreground(branchColor)
	forkStyle      = lipgloss.NewStyle().Foreground(forkColor)
	spinnerStyle   = lipgloss.NewStyle().Foreground(botColor)
	breadcrumbSep  = dimStyle.Render(" › ")
	sidebarStyle   = lipgloss.NewStyle().Width(sidebarWidth).PaddingRight(1).BorderStyle(lipgloss.NormalBorder()).BorderRight(true).BorderForeground(dimColor)
	selectedRow    = lipgloss.NewStyle().Background(selectedBg).Foreground(textColor)
	overlayStyle   = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(overlayEdge).Padding(0, 1)
	menuStyle      = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(branchColor).Padding(0, 1)
	confirmStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	dividerStyle   = lipgloss.NewStyle().Foreground(forkColor).Italic(true)
	statusBarStyle = lipgloss.NewStyle().Foreground(statusColor)
)
