package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	peripheral "github.com/oyamada/tradeperipheral"
	"github.com/oyamada/tradeperipheral/gcal"
	"github.com/oyamada/tradeperipheral/gmail"
)

type scheduleCmd struct {
	notify bool
}

func (*scheduleCmd) Name() string { return "schedule" }
func (*scheduleCmd) Synopsis() string {
	return "put the published maintenance windows on the calendar"
}
func (*scheduleCmd) Usage() string {
	return `tp schedule [-notify]

  Fetches the brokerage's published maintenance schedule, parses the
  windows for the configured service and upserts one calendar event per
  window. Re-running updates existing events instead of duplicating them.
  With -notify, the windows are also mailed to the configured recipient.
`
}

func (c *scheduleCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.notify, "notify", false, "Also mail the windows to the configured recipient.")
}

func (c *scheduleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log := newLogger()
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	service := cfg.Get(peripheral.SectionCalendar, peripheral.OptService)
	timezone := cfg.Get(peripheral.SectionCalendar, peripheral.OptTimezone)
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad timezone %q: %v\n", timezone, err)
		return subcommands.ExitFailure
	}

	page, err := peripheral.FetchPage(
		cfg.Get(peripheral.SectionCalendar, peripheral.OptMaintURL),
		cfg.Get(peripheral.SectionCalendar, peripheral.OptPageCharset))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	tables, err := peripheral.ExtractTables(page, service)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	// the schedule is the last matching table on the page
	ranges, err := peripheral.MaintenanceRanges(tables[len(tables)-1], service,
		cfg.Get(peripheral.SectionCalendar, peripheral.OptTimeHeader))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	windows := peripheral.ParseMaintenanceWindows(ranges, service, time.Now(), loc, log)
	if len(windows) == 0 {
		fmt.Println("No upcoming maintenance windows found.")
		return subcommands.ExitSuccess
	}

	client, err := googleClient(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	calendarSvc, err := gcal.NewService(ctx, client)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	calendarID := cfg.Get(peripheral.SectionCalendar, peripheral.OptCalendarID)
	created, updated := 0, 0
	for _, w := range windows {
		isNew, err := gcal.UpsertEvent(ctx, calendarSvc, calendarID, gcal.Event{
			Key:         w.Key(),
			Summary:     fmt.Sprintf("%s maintenance", w.Service),
			Description: "Scheduled maintenance window published by the brokerage.",
			Start:       w.Start,
			End:         w.End,
			TimeZone:    timezone,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}

	if c.notify {
		mailSvc, err := gmail.NewService(ctx, client)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		to := cfg.Get(peripheral.SectionMail, peripheral.OptMailTo)
		subject := fmt.Sprintf("%s maintenance schedule", service)
		if err := gmail.Send(ctx, mailSvc, to, subject, peripheral.MaintenanceMailBody(windows)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Mailed %d window(s) to %s\n", len(windows), to)
	}

	printMarkdown(peripheral.MaintenanceMarkdown(windows))
	fmt.Printf("%d event(s) created, %d updated.\n", created, updated)
	return subcommands.ExitSuccess
}
