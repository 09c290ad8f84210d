package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/leddt/bwtui/internal/appstate"
	"github.com/leddt/bwtui/pkg/totp"
	"github.com/leddt/bwtui/pkg/vaultentry"
)

func sampleState() *appstate.State {
	s := appstate.New()
	rows := []vaultentry.Metadata{
		{ID: "a", Name: "GitHub", Kind: vaultentry.KindLogin, Username: "alice", HasPassword: true, HasTOTP: true},
		{ID: "b", Name: "Bank", Kind: vaultentry.KindLogin, Username: "alice"},
	}
	s.SetRows(rows, appstate.FilterOptions{Mode: appstate.MatchFuzzy})
	s.SecretsAvailable = true
	return s
}

func TestViewRendersRowsAndSelection(t *testing.T) {
	s := sampleState()
	out := View(s, 100, 30)
	assert.Contains(t, out, "GitHub")
	assert.Contains(t, out, "Bank")
}

func TestViewNotLoggedInIsTerminalScreen(t *testing.T) {
	s := appstate.New()
	s.Mode = appstate.ModeNotLoggedIn
	s.TerminalMessage = "not logged in to the host password manager"
	out := View(s, 80, 24)
	assert.Contains(t, out, "not logged in to the host password manager")
}

func TestViewPasswordDialogMasksBuffer(t *testing.T) {
	s := appstate.New()
	s.Mode = appstate.ModePasswordInput
	s.UnlockBuffer = "hunter2"
	out := View(s, 80, 24)
	assert.NotContains(t, out, "hunter2")
	assert.True(t, strings.Contains(out, "*******") || strings.Count(out, "*") >= 7)
}

func TestViewDetailsPanelShowsTOTPCountdown(t *testing.T) {
	s := sampleState()
	s.DetailsVisible = true
	s.TOTPPreviewAvailable = true
	s.TOTPPreview = totp.Code{Value: "287082", SecondsRemaining: 12, Valid: true}
	out := View(s, 140, 30)
	assert.Contains(t, out, "287082")
	assert.Contains(t, out, "(12s)")
}

func TestViewStatusBarShowsMessage(t *testing.T) {
	s := sampleState()
	s.SetStatus("copied password", appstate.StatusInfo, time.Now(), 3*time.Second)
	out := View(s, 100, 30)
	assert.Contains(t, out, "copied password")
}

func TestViewEmptyListDoesNotPanic(t *testing.T) {
	s := appstate.New()
	assert.NotPanics(t, func() { View(s, 80, 24) })
}
