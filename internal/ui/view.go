package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leddt/bwtui/internal/appstate"
	"github.com/leddt/bwtui/pkg/vaultentry"
)

// tabs lists every tab in display order.
var tabs = []appstate.Tab{
	appstate.TabAll,
	appstate.TabLogin,
	appstate.TabNote,
	appstate.TabCard,
	appstate.TabIdentity,
}

// detailsWidth is the fixed width of the details side panel when the
// terminal is wide enough to show it alongside the list.
const detailsWidth = 42

// View renders the full frame for s at the given terminal size. The
// blocking modes (password dialog, save-token prompt, not-logged-in and
// error screens) take over the entire area, per spec.md §7; every other
// mode renders the tab bar, list, optional details panel, filter line
// and status bar.
func View(s *appstate.State, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}

	switch s.Mode {
	case appstate.ModeNotLoggedIn, appstate.ModeError:
		return renderTerminalScreen(s, width, height)
	case appstate.ModePasswordInput:
		return renderCentered(width, height, renderPasswordDialog(s))
	case appstate.ModeSaveTokenPrompt:
		return renderCentered(width, height, renderSaveTokenPrompt())
	}

	statusLine := renderStatusBar(s, width)
	filterLine := renderFilterLine(s, width)

	bodyHeight := height - lipgloss.Height(statusLine) - lipgloss.Height(filterLine) - 1 // tab bar
	if bodyHeight < 1 {
		bodyHeight = 1
	}

	tabBar := renderTabBar(s, width)

	var body string
	if s.DetailsVisible && width >= detailsWidth*2 {
		listWidth := width - detailsWidth - 1
		list := renderList(s, listWidth, bodyHeight)
		details := renderDetails(s, detailsWidth, bodyHeight)
		body = lipgloss.JoinHorizontal(lipgloss.Top, list, details)
	} else {
		body = renderList(s, width, bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, body, filterLine, statusLine)
}

func renderCentered(width, height int, box string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func renderTabBar(s *appstate.State, width int) string {
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		label := t.String()
		if t == s.Tab {
			parts = append(parts, tabActiveStyle.Render(label))
		} else {
			parts = append(parts, tabInactiveStyle.Render(label))
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	return lipgloss.NewStyle().Width(width).Render(bar)
}

func renderList(s *appstate.State, width, height int) string {
	if len(s.Filtered) == 0 {
		return lipgloss.NewStyle().Width(width).Height(height).Render(mutedStyle.Render("no entries"))
	}

	start, end := visibleWindow(s, height)
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		row := s.Rows[s.Filtered[i]]
		line := renderRow(row, width)
		if i == s.Selected {
			line = rowSelectedStyle.Width(width).Render(stripTrailing(line))
		} else {
			line = rowStyle.Width(width).Render(line)
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().Width(width).Height(height).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// visibleWindow reports the [start, end) slice of s.Filtered to render
// given a viewport of height rows, keeping Selected in view.
func visibleWindow(s *appstate.State, height int) (int, int) {
	n := len(s.Filtered)
	if height <= 0 || n == 0 {
		return 0, 0
	}
	start := s.Viewport
	if s.Selected < start {
		start = s.Selected
	}
	if s.Selected >= start+height {
		start = s.Selected - height + 1
	}
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > n {
		end = n
		start = end - height
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

func stripTrailing(s string) string {
	return strings.TrimRight(s, " ")
}

func renderRow(row vaultentry.Metadata, width int) string {
	marker := " "
	if row.Favorite {
		marker = "*"
	}
	kind := row.Kind.String()
	name := row.Name
	sub := row.Username
	if sub == "" && len(row.URIs) > 0 {
		sub = row.URIs[0]
	}
	flags := ""
	if row.HasTOTP {
		flags += " [totp]"
	}
	return fmt.Sprintf("%s %-9s %s%s  %s", marker, kind, name, flags, mutedStyle.Render(sub))
}

func renderDetails(s *appstate.State, width, height int) string {
	sel := s.SelectedMetadata()
	if sel == nil {
		return detailsBoxStyle.Width(width - 2).Height(height - 2).Render("")
	}

	lines := []string{
		dialogTitleStyle.Render(sel.Name),
		"",
		labelRow("kind", sel.Kind.String()),
	}
	if sel.Username != "" {
		lines = append(lines, labelRow("username", sel.Username))
	}
	if sel.HasPassword {
		lines = append(lines, labelRow("password", "********  (ctrl+p to copy)"))
	}
	if sel.HasTOTP {
		lines = append(lines, labelRow("totp", renderTOTPPreview(s)))
	}
	for i, uri := range sel.URIs {
		if i == 0 {
			lines = append(lines, labelRow("uri", uri))
		} else {
			lines = append(lines, labelRow("", uri))
		}
	}
	if sel.FolderID != "" {
		lines = append(lines, labelRow("folder", sel.FolderID))
	}
	if !sel.Revision.IsZero() {
		lines = append(lines, labelRow("updated", sel.Revision.Format("2006-01-02 15:04")))
	}

	visible := lines
	if s.DetailsScroll > 0 && s.DetailsScroll < len(lines) {
		visible = lines[s.DetailsScroll:]
	}

	return detailsBoxStyle.Width(width - 2).Height(height - 2).Render(lipgloss.JoinVertical(lipgloss.Left, visible...))
}

func labelRow(label, value string) string {
	if label == "" {
		return "         " + value
	}
	return labelStyle.Render(fmt.Sprintf("%-8s", label)) + value
}

func renderTOTPPreview(s *appstate.State) string {
	if !s.TOTPPreviewAvailable {
		return mutedStyle.Render("loading…")
	}
	if !s.TOTPPreview.Valid {
		return errorTextStyle.Render("invalid seed")
	}
	return fmt.Sprintf("%s  (%ds)", s.TOTPPreview.Value, s.TOTPPreview.SecondsRemaining)
}

func renderFilterLine(s *appstate.State, width int) string {
	if s.Mode != appstate.ModeFiltering && s.Filter == "" {
		return lipgloss.NewStyle().Width(width).Render("")
	}
	prompt := filterPromptStyle.Render("/")
	return lipgloss.NewStyle().Width(width).Render(prompt + s.Filter)
}

func renderStatusBar(s *appstate.State, width int) string {
	var left string
	if s.Status.Text != "" {
		left = statusStyle(s.Status.Level).Render(s.Status.Text)
	}

	right := renderSyncIndicator(s)
	if !s.SecretsAvailable {
		if right != "" {
			right += "  "
		}
		right += mutedStyle.Render("loading secrets…")
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().Width(width).Render(line)
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func renderSyncIndicator(s *appstate.State) string {
	switch s.Sync.Phase {
	case appstate.SyncSyncing:
		frame := spinnerFrames[s.Sync.SpinnerFrame%len(spinnerFrames)]
		return mutedStyle.Render(frame + " syncing")
	case appstate.SyncFailed:
		return errorTextStyle.Render("sync failed: " + s.Sync.FailMsg)
	default:
		return ""
	}
}

func renderPasswordDialog(s *appstate.State) string {
	mask := strings.Repeat("*", len([]rune(s.UnlockBuffer)))
	lines := []string{
		dialogTitleStyle.Render("Vault is locked"),
		"",
		"master password: " + mask,
	}
	if s.UnlockError != "" {
		lines = append(lines, "", errorTextStyle.Render(s.UnlockError))
	}
	lines = append(lines, "", mutedStyle.Render("enter to unlock · ctrl+c to cancel"))
	return dialogBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderSaveTokenPrompt() string {
	lines := []string{
		dialogTitleStyle.Render("Save session?"),
		"",
		"keep this unlock for next launch? (y/n)",
	}
	return dialogBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderTerminalScreen(s *appstate.State, width, height int) string {
	title := "Error"
	style := errorTextStyle
	if s.Mode == appstate.ModeNotLoggedIn {
		title = "Not logged in"
		style = mutedStyle
	}
	box := dialogBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		dialogTitleStyle.Render(title),
		"",
		style.Render(s.TerminalMessage),
		"",
		mutedStyle.Render("esc to exit"),
	))
	return renderCentered(width, height, box)
}
