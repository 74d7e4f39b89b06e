// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/samber/mo"
	"github.com/spf13/cobra"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/infrastructure/calendar"
)

// seriesOutput is a series aggregate with the token needed to edit it.
type seriesOutput struct {
	*models.SeriesAggregate
	VersionToken string `json:"version_token"`
}

func newSeriesOutput(agg *models.SeriesAggregate) seriesOutput {
	return seriesOutput{SeriesAggregate: agg, VersionToken: models.EncodeVersion(agg.Series.Version)}
}

func (o seriesOutput) writeText(w io.Writer) error {
	s := o.Series
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "uid:\t%s\n", s.UID)
	fmt.Fprintf(tw, "title:\t%s\n", s.Title)
	fmt.Fprintf(tw, "start:\t%s\n", s.StartTime.Format(time.RFC3339))
	fmt.Fprintf(tw, "end:\t%s\n", s.EndTime.Format(time.RFC3339))
	fmt.Fprintf(tw, "recurrence:\t%s every %d, ends %s\n", s.Recurrence.Type, s.Recurrence.Interval, s.Recurrence.End)
	if s.IsCancelled {
		fmt.Fprintf(tw, "cancelled:\t%s\n", s.CancellationReason)
	}
	if s.SplitFromUID != "" {
		fmt.Fprintf(tw, "split from:\t%s\n", s.SplitFromUID)
	}
	fmt.Fprintf(tw, "exceptions:\t%d\n", len(o.Exceptions))
	fmt.Fprintf(tw, "attendees:\t%d\n", len(o.Attendees))
	fmt.Fprintf(tw, "version:\t%s\n", o.VersionToken)
	return tw.Flush()
}

func writeEditResult(w io.Writer, res *models.EditResult) error {
	if _, err := fmt.Fprintf(w, "series %s version %s\n", res.SeriesUID, res.VersionToken); err != nil {
		return err
	}
	if res.NewSeriesUID != nil {
		_, err := fmt.Fprintf(w, "new series %s\n", *res.NewSeriesUID)
		return err
	}
	return nil
}

func (a *app) createCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "create -f series.yaml",
		Short: "Create a series from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := readSeriesFile(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			req, err := f.toRequest()
			if err != nil {
				return err
			}
			agg, err := a.agenda.CreateSeries(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := newSeriesOutput(agg)
			return a.render(out, out.writeText)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "series YAML file, - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all, err := a.agenda.ListSeries(cmd.Context())
			if err != nil {
				return err
			}
			if all == nil {
				all = []*models.Series{}
			}
			return a.render(all, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "UID\tSTART\tRECURRENCE\tSTATUS\tTITLE")
				for _, s := range all {
					status := "active"
					if s.IsCancelled {
						status = "cancelled"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						s.UID, s.StartTime.Format(time.RFC3339), s.Recurrence.Type, status, s.Title)
				}
				return tw.Flush()
			})
		},
	}
}

func (a *app) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show SERIES_UID",
		Short: "Show a series with its exceptions and attendees",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agg, err := a.agenda.GetSeries(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := newSeriesOutput(agg)
			return a.render(out, out.writeText)
		},
	}
}

// editFlags collects the patch flags of `agendactl edit`. Only flags set on
// the command line end up in the patch.
type editFlags struct {
	scope   string
	index   int
	version string

	title, description, location, url string
	start, end                         string
	allDay                             bool
	recurrence                         string
	interval, count                    int
	until                              string
	reminders                          []int
	cancel                             bool
	reason                             string
}

func (a *app) editCommand() *cobra.Command {
	var f editFlags
	cmd := &cobra.Command{
		Use:   "edit SERIES_UID",
		Short: "Edit a series, one occurrence, or an occurrence and every later one",
		Long: `Edit applies a patch at one of three scopes:

  this-only         patch a single occurrence (--index required)
  this-and-future   split the series at --index and patch the new series
  all               patch the series definition

Only the flags given on the command line are changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := models.DecodeVersion(f.version)
			if err != nil {
				return domain.NewValidationError("invalid --version token", err)
			}
			loc, err := a.location()
			if err != nil {
				return err
			}
			patch, err := f.patch(cmd, loc)
			if err != nil {
				return err
			}
			req := &models.EditSeriesRequest{
				SeriesUID:       args[0],
				Scope:           models.EditScope(f.scope),
				Patch:           patch,
				ExpectedVersion: version,
			}
			if cmd.Flags().Changed("index") {
				req.OccurrenceIndex = &f.index
			}
			res, err := a.agenda.EditSeries(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.render(res, func(w io.Writer) error { return writeEditResult(w, res) })
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.scope, "scope", string(models.EditScopeAll), "edit scope: this-only, this-and-future or all")
	flags.IntVar(&f.index, "index", 0, "target occurrence index")
	flags.StringVar(&f.version, "version", "", "version token from `agendactl show`")
	flags.StringVar(&f.title, "title", "", "new title")
	flags.StringVar(&f.description, "description", "", "new description")
	flags.StringVar(&f.location, "location", "", "new location")
	flags.StringVar(&f.url, "url", "", "new meeting URL")
	flags.StringVar(&f.start, "start", "", "new start time (RFC 3339, or local to --tz)")
	flags.StringVar(&f.end, "end", "", "new end time (RFC 3339, or local to --tz)")
	flags.BoolVar(&f.allDay, "all-day", false, "make the series all-day")
	flags.StringVar(&f.recurrence, "recurrence", "", "new recurrence type")
	flags.IntVar(&f.interval, "interval", 1, "recurrence interval, with --recurrence")
	flags.IntVar(&f.count, "count", 0, "end after this many occurrences, with --recurrence")
	flags.StringVar(&f.until, "until", "", "end on this date, with --recurrence")
	flags.IntSliceVar(&f.reminders, "reminders", nil, "reminder offsets in minutes before start")
	flags.BoolVar(&f.cancel, "cancel", false, "cancel the targeted occurrences")
	flags.StringVar(&f.reason, "reason", "", "cancellation reason")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func (f *editFlags) patch(cmd *cobra.Command, loc *time.Location) (models.SeriesPatch, error) {
	changed := cmd.Flags().Changed
	var p models.SeriesPatch

	stringOpt := func(name, value string) mo.Option[string] {
		if changed(name) {
			return mo.Some(value)
		}
		return mo.None[string]()
	}
	p.Title = stringOpt("title", f.title)
	p.Description = stringOpt("description", f.description)
	p.Location = stringOpt("location", f.location)
	p.URL = stringOpt("url", f.url)
	p.CancellationReason = stringOpt("reason", f.reason)

	if changed("start") {
		t, err := parseTime(f.start, loc)
		if err != nil {
			return p, fmt.Errorf("invalid --start: %w", err)
		}
		p.StartTime = mo.Some(t)
	}
	if changed("end") {
		t, err := parseTime(f.end, loc)
		if err != nil {
			return p, fmt.Errorf("invalid --end: %w", err)
		}
		p.EndTime = mo.Some(t)
	}
	if changed("all-day") {
		p.AllDay = mo.Some(f.allDay)
	}
	if changed("reminders") {
		p.ReminderOffsets = mo.Some(f.reminders)
	}
	if changed("cancel") {
		p.Cancelled = mo.Some(f.cancel)
	}

	if !changed("recurrence") {
		if changed("interval") || changed("count") || changed("until") {
			return p, fmt.Errorf("--interval, --count and --until require --recurrence")
		}
		return p, nil
	}
	rf := recurrenceFile{Type: models.RecurrenceType(f.recurrence), Interval: f.interval, Count: f.count}
	if changed("until") {
		t, err := parseTime(f.until, loc)
		if err != nil {
			return p, fmt.Errorf("invalid --until: %w", err)
		}
		rf.Until = &t
	}
	rule, err := rf.rule()
	if err != nil {
		return p, err
	}
	p.Recurrence = mo.Some(rule)
	return p, nil
}

func (a *app) cancelCommand() *cobra.Command {
	var (
		index   int
		reason  string
		version string
	)
	cmd := &cobra.Command{
		Use:   "cancel SERIES_UID",
		Short: "Cancel one occurrence (--index) or the whole series (--version)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				res *models.EditResult
				err error
			)
			if cmd.Flags().Changed("index") {
				res, err = a.agenda.CancelOccurrence(cmd.Context(), args[0], index, reason)
			} else {
				if version == "" {
					return domain.NewValidationError("--version is required to cancel a series")
				}
				v, decodeErr := models.DecodeVersion(version)
				if decodeErr != nil {
					return domain.NewValidationError("invalid --version token", decodeErr)
				}
				res, err = a.agenda.CancelSeries(cmd.Context(), args[0], reason, v)
			}
			if err != nil {
				return err
			}
			return a.render(res, func(w io.Writer) error { return writeEditResult(w, res) })
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "occurrence index to cancel")
	cmd.Flags().StringVar(&reason, "reason", "", "cancellation reason")
	cmd.Flags().StringVar(&version, "version", "", "version token, required to cancel the series")
	return cmd
}

func (a *app) resetCommand() *cobra.Command {
	var (
		index   int
		version string
	)
	cmd := &cobra.Command{
		Use:   "reset SERIES_UID",
		Short: "Drop the exception of one occurrence, restoring the series values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := models.DecodeVersion(version)
			if err != nil {
				return domain.NewValidationError("invalid --version token", err)
			}
			res, err := a.agenda.ResetOccurrence(cmd.Context(), args[0], index, v)
			if err != nil {
				return err
			}
			return a.render(res, func(w io.Writer) error { return writeEditResult(w, res) })
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "occurrence index to reset")
	cmd.Flags().StringVar(&version, "version", "", "version token from `agendactl show`")
	_ = cmd.MarkFlagRequired("index")
	_ = cmd.MarkFlagRequired("version")
	return cmd
}

func (a *app) exportICSCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "export-ics SERIES_UID",
		Short: "Export a series as an iCalendar document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agg, err := a.agenda.GetSeries(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			exporter := calendar.NewExporter()
			exporter.Now = a.now
			ics, err := exporter.Export(agg)
			if err != nil {
				return err
			}
			if file == "" || file == "-" {
				_, err = io.WriteString(a.out, ics)
				return err
			}
			return os.WriteFile(file, []byte(ics), 0o644)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "write the calendar to this file instead of stdout")
	return cmd
}

// parseTime accepts RFC 3339 instants, or a date or minute-precision local
// time interpreted in loc.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02 15:04", time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a time", s)
}
