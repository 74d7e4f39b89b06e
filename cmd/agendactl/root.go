// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/infrastructure/messaging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/infrastructure/sqlstore"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/recurrence"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/constants"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// app is the state shared by every agendactl command. The store is opened in
// the root pre-run hook and closed in the post-run hook.
type app struct {
	dbPath   string
	output   string
	verbose  bool
	timezone string

	out    io.Writer
	errOut io.Writer
	now    func() time.Time

	repo   *sqlstore.SQLiteRepository
	agenda *service.AgendaService
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut, now: time.Now}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "agendactl",
		Short: "Manage recurring agenda series in a local database",
		Long: `agendactl drives the agenda engine against a SQLite database.

It creates series from YAML files, expands them into occurrences, applies
scoped edits and cancellations, records attendance and exports iCalendar.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.dbPath, "db", envOr("AGENDA_DB", "agenda.db"), "SQLite database path")
	flags.StringVarP(&a.output, "output", "o", outputText, "output format: text, json or yaml")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&a.timezone, "tz", "UTC", "time zone used to print and group occurrences")

	root.AddCommand(
		a.createCommand(),
		a.listCommand(),
		a.showCommand(),
		a.occurrencesCommand(),
		a.editCommand(),
		a.cancelCommand(),
		a.resetCommand(),
		a.attendCommand(),
		a.attendeeCommand(),
		a.exportICSCommand(),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	switch a.output {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q", a.output)
	}
	if _, err := a.location(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(logging.NewHandler(a.errOut, level, false)))

	repo, err := sqlstore.Open(cmd.Context(), a.dbPath)
	if err != nil {
		return err
	}
	a.repo = repo
	a.agenda = service.NewAgendaService(
		repo,
		messaging.NewLogSender(),
		recurrence.NewEvaluator(constants.DefaultMaxOccurrenceScan),
		service.ServiceConfig{MaxWindowDays: constants.DefaultMaxWindowDays, Now: a.now},
	)
	return nil
}

// close releases the store. It is safe to call more than once, and callers
// run it after Execute because cobra skips post-run hooks on errors.
func (a *app) close() error {
	if a.repo == nil {
		return nil
	}
	err := a.repo.Close()
	a.repo = nil
	return err
}

func (a *app) location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid --tz %q: %w", a.timezone, err)
	}
	return loc, nil
}

// render writes v in the selected output format. text is called for the
// text format only.
func (a *app) render(v any, text func(w io.Writer) error) error {
	switch a.output {
	case outputJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		// Go through JSON so YAML output uses the same field names.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(a.out)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
