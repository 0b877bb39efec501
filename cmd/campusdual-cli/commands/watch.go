package commands

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"campusdual-backend/internal/components/chrono"
	"campusdual-backend/internal/components/telemetry"
	"campusdual-backend/internal/gradestore"
	"campusdual-backend/internal/scrapers/campusdual"
	"campusdual-backend/lib/serviceutil"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

func init() {
	rootCmd.AddCommand(watchCmd, historyCmd)
}

func openStore(ctx context.Context, config Config) gradestore.Store {
	db, err := config.Store.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open grade store", err)
	}
	store := gradestore.NewStore(db)
	err = store.Migrate(ctx)
	if err != nil {
		serviceutil.Fatal("failed to migrate grade store", err)
	}
	return store
}

type watcher struct {
	client *campusdual.Client
	store  gradestore.Store
	time   chrono.API
	user   string
	mail   MailConfig
	// running is held for the duration of a poll, the initial poll and cron ticks share it.
	running *sync.Mutex
}

// poll fetches the grades once and logs every attempt that was not seen before. A poll
// that starts while another one is running returns immediately.
func (w watcher) poll(ctx context.Context) {
	if !w.running.TryLock() {
		slog.WarnContext(ctx, "previous grade poll still running, skipping")
		return
	}
	defer w.running.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	grades, err := w.client.Grades(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch grades", "err", err)
		return
	}
	created, err := w.store.Push(ctx, gradestore.PushRequest{
		Time:   w.time.Now(),
		User:   w.user,
		Grades: grades,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to store grades", "err", err)
		return
	}

	for _, attempt := range created {
		slog.InfoContext(
			ctx, "new grade",
			"module", attempt.Module,
			"attempt", attempt.Name,
			"grade", attempt.Grade,
			"passed", attempt.Passed.String(),
			"announced", attempt.AnnouncedOn,
		)
	}
	if len(created) > 0 && w.mail.enabled() {
		err = sendGradeMail(ctx, w.mail, w.user, created)
		if err != nil {
			slog.ErrorContext(ctx, "failed to mail new grades", "err", err)
		}
	}
	slog.DebugContext(ctx, "polled grades", "modules", len(grades), "new", len(created))
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically fetches the grades and logs newly announced ones.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		config, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		providers, err := telemetry.SetupOtel(ctx, "campusdual-cli", config.Telemetry, telemetry.SlogAPI{})
		if err != nil {
			serviceutil.Fatal("failed to setup opentelemetry", err)
		}
		defer providers.Shutdown(context.Background())

		// reports are exported as metrics when an otlp endpoint is configured
		meterAPI, err := telemetry.NewMeterAPI(otel.Meter("campusdual-cli"))
		if err != nil {
			serviceutil.Fatal("failed to create report metrics", err)
		}
		tel := telemetry.Fanout{telemetry.SlogAPI{}, meterAPI}
		telemetry.InstrumentPerfStats(ctx, tel, 30*time.Second)

		client, err := newPortalClient(config, tel)
		if err != nil {
			serviceutil.Fatal("failed to create portal client", err)
		}
		clock, err := chrono.NewStandardImpl()
		if err != nil {
			serviceutil.Fatal("failed to load time zone", err)
		}

		w := watcher{
			client:  client,
			store:   openStore(ctx, config),
			time:    clock,
			user:    config.Watch.User,
			mail:    config.Watch.Mail,
			running: &sync.Mutex{},
		}

		cron := chrono.NewStandardCron(clock, tel)
		err = cron.Cron(config.Watch.Schedule, func() { w.poll(ctx) })
		if err != nil {
			serviceutil.Fatal("failed to schedule grade polling", err)
		}
		next, err := cron.Next(config.Watch.Schedule)
		if err != nil {
			serviceutil.Fatal("failed to schedule grade polling", err)
		}
		slog.Info(
			"watching grades",
			"schedule", config.Watch.Schedule,
			"user", config.Watch.User,
			"next", next.Format(time.DateTime),
		)

		w.poll(ctx)
		<-ctx.Done()
		cron.Stop()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Lists the grade attempts recorded by watch, most recently seen first.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		clock, err := chrono.NewStandardImpl()
		if err != nil {
			serviceutil.Fatal("failed to load time zone", err)
		}

		attempts, err := openStore(ctx, config).Pull(ctx, config.Watch.User)
		if err != nil {
			serviceutil.Fatal("failed to read grade history", err)
		}
		writeHistory(cmd.OutOrStdout(), clock.Location(), attempts)
	},
}
