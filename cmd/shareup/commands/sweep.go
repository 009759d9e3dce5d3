package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jessiellen/shareup-app/internal/application"
	"github.com/Jessiellen/shareup-app/internal/printer"
)

func newSweepCmd(opts *globalOptions) *cobra.Command {
	var retentionFlag string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire stale requests and purge old records once",
		Long: `sweep runs one maintenance pass: pending requests past their deadline are
marked expired and, when a retention is set, resolved requests and inactive
appointments older than the retention are deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			env, err := loadEnvironment(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("retention") {
				retention, err := parseRetention(retentionFlag)
				if err != nil {
					return err
				}
				env.cfg.Retention = retention
			}

			ctx := cmd.Context()
			store, err := openStore(ctx, env.cfg, env.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			var publisher application.EventPublisher
			if env.cfg.RedisAddr != "" {
				bus, closeBus, err := openBus(ctx, env.cfg, env.logger)
				if err != nil {
					return err
				}
				defer closeBus()
				publisher = bus
			}

			svc := newServices(store, env.cfg, env.logger, publisher)
			sweeper := application.NewSweeper(svc.requests, svc.appointments, 0, env.cfg.Retention, env.logger)

			result, err := sweeper.Sweep(ctx)
			p.Field("expired requests", result.Expired)
			p.Field("purged requests", result.PurgedRequests)
			p.Field("purged appointments", result.PurgedAppointments)
			if err != nil {
				return err
			}
			if env.cfg.Retention <= 0 {
				p.Warning("retention is 0, resolved records are kept")
			}
			p.Success("sweep finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&retentionFlag, "retention", "", "override SHAREUP_RETENTION for this pass, e.g. 720h")
	return cmd
}

func parseRetention(value string) (time.Duration, error) {
	retention, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid --retention %q: %w", value, err)
	}
	if retention < 0 {
		return 0, fmt.Errorf("invalid --retention %q: must not be negative", value)
	}
	return retention, nil
}
