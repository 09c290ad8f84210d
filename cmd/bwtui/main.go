// Command bwtui is a terminal front end to an external host
// password-manager CLI: it never stores or edits a vault record
// itself, only caches non-secret metadata on disk and secrets
// transiently in memory for the lifetime of the process.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leddt/bwtui/internal/dispatch"
	"github.com/leddt/bwtui/internal/obslog"
	"github.com/leddt/bwtui/pkg/clipboard"
	"github.com/leddt/bwtui/pkg/config"
	"github.com/leddt/bwtui/pkg/hostcli"
	"github.com/leddt/bwtui/pkg/memcache"
	"github.com/leddt/bwtui/pkg/metacache"
	"github.com/leddt/bwtui/pkg/prefetch"
	"github.com/leddt/bwtui/pkg/session"
)

var (
	logPath     string
	vaultDir    string
	hostCommand string
	noCache     bool
)

var rootCmd = &cobra.Command{
	Use:   "bwtui",
	Short: "bwtui is a terminal UI for your password manager's CLI",
	Long:  `A fast, read-mostly terminal front end to an external host password-manager CLI.`,
	RunE:  runTUI,
}

func init() {
	rootCmd.Flags().StringVar(&logPath, "log-file", "", "append diagnostic logging to this file instead of discarding it")
	rootCmd.Flags().StringVar(&vaultDir, "vault-dir", "", "override the directory used for the metadata cache and session marker")
	rootCmd.Flags().StringVar(&hostCommand, "host-command", "", "override the configured host CLI binary")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the on-disk metadata cache for this run")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(4)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	logWriter, closeLog, err := openLog(logPath)
	if err != nil {
		return err
	}
	defer closeLog()
	log := obslog.New(logWriter)

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return fmt.Errorf("resolve cache directory: %w", err)
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config directory: %w", err)
	}

	cfg, err := config.Load(filepath.Join(configDir, "bwtui"))
	if err != nil {
		log.Warnf("load config: %v", err)
		cfg = config.Default()
	}
	if hostCommand != "" {
		cfg.HostCommand = hostCommand
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	metaDir, sessionHome := filepath.Join(cacheDir, "bwtui"), home
	if vaultDir != "" {
		metaDir, sessionHome = vaultDir, vaultDir
	}

	adapter := hostcli.New(cfg.HostCommand, nil)
	metaStore := metacache.NewStore(metaDir)
	sessionStore := session.New(sessionHome)
	secrets := memcache.NewSecretCache()
	totpCache := memcache.NewTotpCache()
	clip := clipboard.New(clipboard.NewExecWriter(), cfg.ClipboardTimeoutDuration())

	pf := prefetch.New(adapter, secrets, log)
	pfCtx, stopPrefetch := context.WithCancel(context.Background())
	defer stopPrefetch()
	go pf.Run(pfCtx)
	defer pf.Stop()

	model := dispatch.New(adapter, metaStore, sessionStore, secrets, totpCache, clip, pf, cfg, log)

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}

	os.Exit(model.ExitCode())
	return nil
}

// openLog opens path for appending, or a discard writer if path is
// empty, so a bubbletea program in the alt screen is never interleaved
// with stray log output on the real terminal.
func openLog(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, func() {}, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
