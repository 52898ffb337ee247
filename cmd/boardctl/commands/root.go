package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kanboard/internal/api"
	"kanboard/internal/config"
	"kanboard/internal/move"
	"kanboard/internal/printer"
	"kanboard/internal/reconcile"
)

var (
	version string
	commit  string
	date    string
)

var (
	configPath string
	serverURL  string
	noColor    bool
	debug      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "boardctl",
	Short: "boardctl - Drive a kanban board from the terminal",
	Long: `boardctl talks to a kanboard server and edits boards, lists and cards.

Every change is shown optimistically and saved to the server. When the server
rejects a change the board is put back the way it was before.

The server is taken from --server, then BOARDCTL_SERVER, then the config file
(~/.config/boardctl/config.yml).`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/boardctl/config.yml)")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "Board server URL")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log mutation state transitions to stderr")
}

// session bundles what every command needs to reach the server.
type session struct {
	client  *api.Client
	printer *printer.Printer
	log     *logrus.Logger
}

func newSession(cmd *cobra.Command) (*session, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), noColor)
		return nil, p.Fail("Invalid configuration", err.Error(), []string{
			fmt.Sprintf("Fix or remove %s", path),
		})
	}

	if env := os.Getenv("BOARDCTL_SERVER"); env != "" {
		cfg.Server = env
	}
	if serverURL != "" {
		cfg.Server = serverURL
	}
	cfg.NoColor = cfg.NoColor || noColor

	p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.NoColor)
	if err := cfg.Validate(); err != nil {
		return nil, p.Fail("Invalid server", err.Error(), nil)
	}

	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(logrus.WarnLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	return &session{
		client:  api.New(cfg.Server, cfg.Timeout),
		printer: p,
		log:     logger,
	}, nil
}

// open loads a board into a fresh controller that reports through the printer.
func (s *session) open(ctx context.Context, boardID int64) (*reconcile.Controller, error) {
	c := reconcile.New(s.client, s.printer, s.log)
	if _, err := c.Open(ctx, boardID); err != nil {
		return nil, err
	}
	return c, nil
}

// report turns err into the command's result. Errors the controller has
// already surfaced through the printer are returned without printing again.
func (s *session) report(title string, err error) error {
	if err == nil {
		return nil
	}

	var merr *reconcile.MutationError
	switch {
	case errors.As(err, &merr),
		errors.Is(err, reconcile.ErrLoadFailed),
		errors.Is(err, reconcile.ErrBusy),
		errors.Is(err, reconcile.ErrBoardChanged),
		errors.Is(err, move.ErrStaleIndex):
		return err
	}

	return s.printer.Fail(title, err.Error(), nil)
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q: must be a non-negative integer", s)
	}
	return i, nil
}
