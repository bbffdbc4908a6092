// Command admin holds operator tasks that run against the production
// database outside the API process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lostfound/internal/app"
	"lostfound/internal/core/config"
	"lostfound/internal/core/logger"
	"lostfound/internal/service"
	"lostfound/internal/transport/http/validate"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          "admin",
		Short:        "Lost & Found operator tasks",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default $CONFIG_PATH or ./configs/config.local.yaml)")

	withApp := func(run func(ctx context.Context, a *app.App, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			log, cleanup := logger.New(cfg.Log)
			defer cleanup()
			a, err := app.New(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()
			return run(cmd.Context(), a, args)
		}
	}

	root.AddCommand(createAdminCmd(withApp), purgeCmd(withApp), drainCmd(withApp))
	return root
}

type runner = func(run func(ctx context.Context, a *app.App, args []string) error) func(*cobra.Command, []string) error

func createAdminCmd(with runner) *cobra.Command {
	in := service.RegisterInput{}
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a verified admin account if the email is unused",
		RunE: with(func(ctx context.Context, a *app.App, _ []string) error {
			if err := validate.Struct(&in); err != nil {
				if fields, ok := validate.Fields(err); ok {
					return fmt.Errorf("invalid admin: %v", fields)
				}
				return err
			}
			u, created, err := a.Services.Auth.EnsureAdmin(ctx, in)
			if err != nil {
				return err
			}
			if !created {
				a.Log.Info("admin user already exists", zap.String("email", u.Email), zap.String("role", string(u.Role)))
				return nil
			}
			a.Log.Info("admin user created", zap.String("id", u.ID), zap.String("email", u.Email))
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "admin@example.com", "admin email")
	f.StringVar(&in.Password, "password", "", "admin password (lower, upper and digit, 6+ chars)")
	f.StringVar(&in.Name, "name", "Admin User", "display name")
	f.StringVar(&in.Phone, "phone", "+1234567890", "contact phone")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func purgeCmd(with runner) *cobra.Command {
	return &cobra.Command{
		Use:   "purge-notifications",
		Short: "Delete notifications past their expiry",
		RunE: with(func(ctx context.Context, a *app.App, _ []string) error {
			n, err := a.Sweeper.RunOnce(ctx)
			if err != nil {
				return err
			}
			a.Log.Info("notifications purged", zap.Int64("count", n))
			return nil
		}),
	}
}

func drainCmd(with runner) *cobra.Command {
	var batches int
	cmd := &cobra.Command{
		Use:   "drain-outbox",
		Short: "Deliver due outbox messages until none are left",
		RunE: with(func(ctx context.Context, a *app.App, _ []string) error {
			total := 0
			for i := 0; i < batches; i++ {
				n, err := a.Dispatcher.RunOnce(ctx)
				if err != nil {
					return err
				}
				total += n
				if n == 0 {
					break
				}
			}
			a.Log.Info("outbox drained", zap.Int("sent", total))
			return nil
		}),
	}
	cmd.Flags().IntVar(&batches, "max-batches", 50, "stop after this many batches")
	return cmd
}
