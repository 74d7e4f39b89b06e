// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/timeline"
)

func (a *app) occurrencesCommand() *cobra.Command {
	var (
		from, to string
		days     int
		user     string
		byDay    bool
	)
	cmd := &cobra.Command{
		Use:   "occurrences SERIES_UID",
		Short: "List the effective occurrences of a series in a window",
		Long: `List the occurrences of a series after exceptions and attendance are
applied. The window defaults to --days days from now.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := a.location()
			if err != nil {
				return err
			}
			now := a.now()
			start, end := now, now.AddDate(0, 0, days)
			if from != "" {
				if start, err = parseTime(from, loc); err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
				end = start.AddDate(0, 0, days)
			}
			if to != "" {
				if end, err = parseTime(to, loc); err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
			}

			occs, err := a.agenda.GetOccurrences(cmd.Context(), models.GetOccurrencesRequest{
				SeriesUID:        args[0],
				WindowStart:      start,
				WindowEnd:        end,
				RequestingUserID: user,
			})
			if err != nil {
				return err
			}
			if occs == nil {
				occs = []models.EffectiveOccurrence{}
			}

			if byDay {
				groups := timeline.GroupByDay(occs, now, loc)
				return a.render(groups, func(w io.Writer) error { return writeDays(w, groups, loc) })
			}
			return a.render(occs, func(w io.Writer) error { return writeOccurrences(w, occs, loc) })
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&from, "from", "", "window start (RFC 3339, or local to --tz); defaults to now")
	flags.StringVar(&to, "to", "", "window end; defaults to --days after the start")
	flags.IntVar(&days, "days", 30, "window length in days when --to is not given")
	flags.StringVar(&user, "user", "", "resolve this user's attendance status")
	flags.BoolVar(&byDay, "by-day", false, "group occurrences by local day")
	return cmd
}

func occurrenceLine(o models.EffectiveOccurrence, loc *time.Location) string {
	var when string
	if o.AllDay {
		when = o.Start.In(loc).Format("Mon Jan 2") + "  all day"
	} else {
		when = o.Start.In(loc).Format("Mon Jan 2 15:04") + "-" + o.End.In(loc).Format("15:04")
	}

	var flags []string
	if o.IsCancelled {
		flags = append(flags, "cancelled")
	}
	if o.IsModified {
		flags = append(flags, "modified")
	}
	if o.AttendanceStatus != "" {
		flags = append(flags, strings.ToLower(string(o.AttendanceStatus)))
	}
	return fmt.Sprintf("#%d\t%s\t%s\t%s", o.OccurrenceIndex, when, o.Title, strings.Join(flags, ","))
}

func writeOccurrences(w io.Writer, occs []models.EffectiveOccurrence, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, o := range occs {
		fmt.Fprintln(tw, occurrenceLine(o, loc))
	}
	return tw.Flush()
}

func writeDays(w io.Writer, days []timeline.Day, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, d := range days {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\n", d.Label)
		for _, o := range d.Occurrences {
			fmt.Fprintln(tw, "  "+occurrenceLine(o, loc))
		}
	}
	return tw.Flush()
}

func (a *app) attendCommand() *cobra.Command {
	var (
		user   string
		status string
		scope  string
		index  int
		reset  bool
	)
	cmd := &cobra.Command{
		Use:   "attend SERIES_UID",
		Short: "Record a user's attendance answer",
		Long: `Record a user's answer (Pending, Accepted, Tentative or Declined) for one
occurrence (--scope this), an occurrence and every later one
(--scope thisAndFuture), or as the series default (--scope series).

With --reset the user's per-occurrence answers are dropped instead: the one
at --index, or all of them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var idx *int
			if cmd.Flags().Changed("index") {
				idx = &index
			}
			if reset {
				if err := a.agenda.ResetAttendance(cmd.Context(), args[0], user, idx); err != nil {
					return err
				}
				_, err := fmt.Fprintf(a.errOut, "attendance of %s reset\n", user)
				return err
			}

			req := &models.SetAttendanceRequest{
				SeriesUID:       args[0],
				UserID:          user,
				Scope:           models.AttendanceScope(scope),
				OccurrenceIndex: idx,
				Status:          models.AttendanceStatus(status),
			}
			if err := a.agenda.SetAttendance(cmd.Context(), req); err != nil {
				return err
			}
			_, err := fmt.Fprintf(a.errOut, "%s is %s\n", user, status)
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&user, "user", "", "attendee user ID")
	flags.StringVar(&status, "status", string(models.AttendanceAccepted), "Pending, Accepted, Tentative or Declined")
	flags.StringVar(&scope, "scope", string(models.AttendanceScopeThis), "this, thisAndFuture or series")
	flags.IntVar(&index, "index", 0, "target occurrence index")
	flags.BoolVar(&reset, "reset", false, "drop per-occurrence answers instead of recording one")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (a *app) attendeeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendee",
		Short: "Manage the attendees of a series",
	}

	list := &cobra.Command{
		Use:   "list SERIES_UID",
		Short: "List the attendees of a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attendees, err := a.agenda.GetAttendees(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if attendees == nil {
				attendees = []*models.Attendee{}
			}
			return a.render(attendees, func(w io.Writer) error { return writeAttendees(w, attendees) })
		},
	}

	var at models.Attendee
	add := &cobra.Command{
		Use:   "add SERIES_UID",
		Short: "Add a user to a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			added, err := a.agenda.AddAttendees(cmd.Context(), args[0], []*models.Attendee{&at})
			if err != nil {
				return err
			}
			if added == nil {
				added = []*models.Attendee{}
			}
			return a.render(added, func(w io.Writer) error { return writeAttendees(w, added) })
		},
	}
	add.Flags().StringVar(&at.UserID, "user", "", "user ID")
	add.Flags().StringVar(&at.Email, "email", "", "email address")
	add.Flags().StringVar(&at.Name, "name", "", "display name")
	add.Flags().BoolVar(&at.IsOptional, "optional", false, "mark the attendee optional")
	_ = add.MarkFlagRequired("user")

	var removeUser string
	remove := &cobra.Command{
		Use:   "remove SERIES_UID",
		Short: "Remove a user and their answers from a series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.agenda.RemoveAttendee(cmd.Context(), args[0], removeUser); err != nil {
				return err
			}
			_, err := fmt.Fprintf(a.errOut, "removed %s\n", removeUser)
			return err
		},
	}
	remove.Flags().StringVar(&removeUser, "user", "", "user ID")
	_ = remove.MarkFlagRequired("user")

	cmd.AddCommand(list, add, remove)
	return cmd
}

func writeAttendees(w io.Writer, attendees []*models.Attendee) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tEMAIL\tSTATUS\tOPTIONAL")
	for _, at := range attendees {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", at.UserID, at.Email, at.Status, at.IsOptional)
	}
	return tw.Flush()
}
