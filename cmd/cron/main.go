// Command cron runs the notifier jobs and admin tasks from the command line.
//
// Usage:
//
//	ramadhan-cron prayer run
//	ramadhan-cron agenda run
//	ramadhan-cron agenda add --user u1 --task "Tadarus" --at 2026-03-01T20:00:00+07:00
//	ramadhan-cron agenda list --user u1
//	ramadhan-cron timings --lat -6.2 --lng 106.85
//	ramadhan-cron hijri get
//	ramadhan-cron hijri set -- -1
//	ramadhan-cron users add --id u1 --lat -6.2 --lng 106.85 --city Jakarta
//	ramadhan-cron ledger purge --older-than 720h
//	ramadhan-cron migrate
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ramadhantime/notifier/internal/app"
	"github.com/ramadhantime/notifier/internal/config"
	"github.com/ramadhantime/notifier/internal/logging"
	"github.com/ramadhantime/notifier/internal/prayer"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "ramadhan-cron",
		Short:        "Ramadhan Time notifier jobs and admin tasks",
		SilenceUsage: true,
	}

	root.AddCommand(prayerCmd())
	root.AddCommand(agendaCmd())
	root.AddCommand(timingsCmd())
	root.AddCommand(hijriCmd())
	root.AddCommand(usersCmd())
	root.AddCommand(ledgerCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp loads configuration, builds the services and runs fn.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if l, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat); err == nil {
		logger = l
	}
	slog.SetDefault(logger)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer a.Close()

	return fn(ctx, a)
}

// --------------------------------------------------------------------------
// prayer command
// --------------------------------------------------------------------------

func prayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prayer",
		Short: "Pre-adhan prayer reminders",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run one reminder pass now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				res, err := a.Prayer.Run(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, res.Message())
				for _, d := range res.Details {
					fmt.Fprintln(out, "  "+d)
				}
				logger.Info("Prayer run finished", "summary", res.Summary())
				return nil
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// agenda command
// --------------------------------------------------------------------------

func agendaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Agenda deadline reminders",
	}
	cmd.AddCommand(agendaRunCmd())
	cmd.AddCommand(agendaAddCmd())
	cmd.AddCommand(agendaListCmd())
	return cmd
}

func agendaRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Send reminders for items due in the last minute",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				res, err := a.Agenda.Run(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				return nil
			})
		},
	}
}

func agendaAddCmd() *cobra.Command {
	var user, task, at string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an agenda item",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("--at must be RFC3339: %w", err)
			}
			return withApp(func(ctx context.Context, a *app.App) error {
				it, err := a.Agenda.Add(ctx, user, task, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s for %s at %s\n", it.ID, it.UserID, it.TargetTime.Format(time.RFC3339))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User ID")
	cmd.Flags().StringVar(&task, "task", "", "Task name")
	cmd.Flags().StringVar(&at, "at", "", "Target time (RFC3339)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func agendaListCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a user's agenda items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				items, err := a.Agenda.List(ctx, user)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTARGET\tNOTIFIED\tTASK")
				for _, it := range items {
					fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", it.ID, it.TargetTime.Format(time.RFC3339), it.IsNotified, it.TaskName)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// --------------------------------------------------------------------------
// timings command
// --------------------------------------------------------------------------

func timingsCmd() *cobra.Command {
	var lat, lng float64
	var date string
	cmd := &cobra.Command{
		Use:   "timings",
		Short: "Show the prayer schedule for a coordinate",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().UTC()
			if date != "" {
				d, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
				day = d
			}
			return withApp(func(ctx context.Context, a *app.App) error {
				tt, err := a.Aladhan.Timings(ctx, prayer.Round2(lat), prayer.Round2(lng), day)
				if err != nil {
					return err
				}
				sched, err := prayer.BuildSchedule(tt, int(a.Config.PrayerLead/time.Minute))
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s) %s, hijri adjustment %+d\n",
					sched.Date, sched.HijriDate, sched.Timezone, a.Hijri.Adjustment(ctx))
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PRAYER\tTIME\tREMINDER")
				for _, p := range sched.Prayers {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Label, p.Time, p.PreAdhanTime)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if next := sched.Next(time.Now()); next != nil {
					fmt.Fprintf(out, "Next: %s in %s\n", next.Label, prayer.Countdown(next.At, time.Now()))
				}
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "Longitude")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD), defaults to today in UTC")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

// --------------------------------------------------------------------------
// hijri command
// --------------------------------------------------------------------------

func hijriCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hijri",
		Short: "Read or set the hijri date adjustment",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the current adjustment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				fmt.Fprintln(cmd.OutOrStdout(), a.Hijri.Adjustment(ctx))
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <days>",
		Short: "Set the adjustment (-2..2)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("adjustment must be an integer: %w", err)
			}
			return withApp(func(ctx context.Context, a *app.App) error {
				if err := a.Hijri.SetAdjustment(ctx, n); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated hijri adjustment to %d\n", n)
				return nil
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// users command
// --------------------------------------------------------------------------

// profileWriter is implemented by stores that own the profiles table locally.
type profileWriter interface {
	UpsertProfile(ctx context.Context, id, username string, loc *prayer.LocationData) error
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage local user profiles (sqlite store)",
	}

	var id, username, city, country string
	var lat, lng float64
	add := &cobra.Command{
		Use:   "add",
		Short: "Add or update a user with a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				w, ok := a.Backend.Store.(profileWriter)
				if !ok {
					return fmt.Errorf("store driver %q does not manage profiles", a.Config.StoreDriver)
				}
				loc := &prayer.LocationData{Latitude: &lat, Longitude: &lng, City: city, Country: country}
				if err := w.UpsertProfile(ctx, id, username, loc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s at %s\n", id, prayer.BucketKey(lat, lng))
				return nil
			})
		},
	}
	add.Flags().StringVar(&id, "id", "", "User ID")
	add.Flags().StringVar(&username, "username", "", "Display name")
	add.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	add.Flags().Float64Var(&lng, "lng", 0, "Longitude")
	add.Flags().StringVar(&city, "city", "", "City")
	add.Flags().StringVar(&country, "country", "", "Country")
	_ = add.MarkFlagRequired("id")
	_ = add.MarkFlagRequired("lat")
	_ = add.MarkFlagRequired("lng")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users with a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				users, err := a.Backend.Locations(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tBUCKET\tCITY")
				for _, u := range users {
					bucket := "-"
					if u.Location != nil {
						bucket = prayer.BucketKey(u.Location.Lat(), u.Location.Lon())
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", u.UserID, bucket, u.City)
				}
				return tw.Flush()
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// ledger command
// --------------------------------------------------------------------------

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Notification ledger maintenance",
	}
	var olderThan time.Duration
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete ledger rows older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				retention := olderThan
				if retention <= 0 {
					retention = a.Config.LedgerRetention
				}
				n, err := a.Backend.Purge(ctx, time.Now().Add(-retention))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d ledger rows older than %s\n", n, retention)
				return nil
			})
		},
	}
	purge.Flags().DurationVar(&olderThan, "older-than", 0, "Retention (defaults to LEDGER_RETENTION_DAYS)")
	cmd.AddCommand(purge)
	return cmd
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the store applies pending migrations.
			return withApp(func(ctx context.Context, a *app.App) error {
				if err := a.Backend.HealthCheck(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema up to date")
				return nil
			})
		},
	}
}
