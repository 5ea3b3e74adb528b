package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/config"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/persistence"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	"github.com/helpdesk-io/helpdesk/internal/service"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	keyDSN        = "postgres_dsn"
	keyAPIURL     = "api_url"
	keySLASecret  = "sla_secret"
	keyBcryptCost = "bcrypt_cost"
	keyLogLevel   = "log_level"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("HELPDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(keyAPIURL, "http://localhost:8080")
	v.SetDefault(keyBcryptCost, 12)
	v.SetDefault(keyLogLevel, "warn")

	root := &cobra.Command{
		Use:           "helpdeskctl",
		Short:         "Administer a helpdesk deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("dsn", "", "Postgres DSN (env HELPDESK_POSTGRES_DSN)")
	root.PersistentFlags().String("log-level", "", "log level (env HELPDESK_LOG_LEVEL)")
	_ = v.BindPFlag(keyDSN, root.PersistentFlags().Lookup("dsn"))
	_ = v.BindPFlag(keyLogLevel, root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(migrateCmd(v), createUserCmd(v), slaCmd(v), versionCmd())
	return root
}

func newLogger(v *viper.Viper) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(v.GetString(keyLogLevel))); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func connect(ctx context.Context, v *viper.Viper, logger *zap.Logger) (*persistence.Postgres, error) {
	dsn := v.GetString(keyDSN)
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN required: pass --dsn or set HELPDESK_POSTGRES_DSN")
	}
	return persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn, MaxConns: 2}, logger)
}

func migrateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := newLogger(v)
			defer logger.Sync() //nolint:errcheck

			pg, err := connect(cmd.Context(), v, logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			if err := persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), logger); err != nil {
				return err
			}
			names, err := persistence.MigrationNames()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%d migrations known)\n", len(names))
			return nil
		},
	}
}

func createUserCmd(v *viper.Viper) *cobra.Command {
	var (
		name       string
		email      string
		password   string
		role       string
		department string
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account directly in the database",
		Long: `Create an account directly in the database, bypassing the API.
Use it to seed the first super administrator of a fresh deployment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := domain.Role(role)
			if !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			if name == "" || email == "" {
				return fmt.Errorf("--name and --email are required")
			}
			if len(password) < 8 {
				return fmt.Errorf("--password must be at least 8 characters")
			}

			logger := newLogger(v)
			defer logger.Sync() //nolint:errcheck

			pg, err := connect(cmd.Context(), v, logger)
			if err != nil {
				return err
			}
			defer pg.Close()

			hash, err := auth.HashPassword(password, v.GetInt(keyBcryptCost))
			if err != nil {
				return err
			}
			user := &domain.User{
				Name:         name,
				Email:        strings.ToLower(strings.TrimSpace(email)),
				PasswordHash: hash,
				Role:         r,
				Department:   department,
				Active:       true,
			}
			if err := repository.NewUserRepository(pg.PoolHandle()).Create(cmd.Context(), user); err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleSuperAdmin), "user, agent, admin or super_admin")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.Flags().Int("bcrypt-cost", 0, "bcrypt cost (env HELPDESK_BCRYPT_COST)")
	_ = v.BindPFlag(keyBcryptCost, cmd.Flags().Lookup("bcrypt-cost"))
	return cmd
}

func slaCmd(v *viper.Viper) *cobra.Command {
	sla := &cobra.Command{
		Use:   "sla",
		Short: "SLA maintenance",
	}
	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Ask the API to flag overdue tickets and notify staff",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := v.GetString(keySLASecret)
			if secret == "" {
				return fmt.Errorf("sla secret required: pass --secret or set HELPDESK_SLA_SECRET")
			}
			result, err := triggerSweep(v.GetString(keyAPIURL), secret, 30*time.Second)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "flagged %d tickets, sent %d notifications\n", result.Tickets, result.Notifications)
			return nil
		},
	}
	sweep.Flags().String("api-url", "", "base URL of the API (env HELPDESK_API_URL)")
	sweep.Flags().String("secret", "", "shared sweep secret (env HELPDESK_SLA_SECRET)")
	_ = v.BindPFlag(keyAPIURL, sweep.Flags().Lookup("api-url"))
	_ = v.BindPFlag(keySLASecret, sweep.Flags().Lookup("secret"))
	sla.AddCommand(sweep)
	return sla
}

// triggerSweep calls POST /sla/sweep and decodes the summary.
func triggerSweep(baseURL, secret string, timeout time.Duration) (service.SweepResult, error) {
	agent := fiber.Post(strings.TrimRight(baseURL, "/") + "/sla/sweep")
	agent.Set("X-SLA-Secret", secret)
	agent.Timeout(timeout)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return service.SweepResult{}, fmt.Errorf("sla sweep request: %w", errs[0])
	}
	if status != fiber.StatusOK {
		return service.SweepResult{}, fmt.Errorf("sla sweep failed with status %d: %s", status, strings.TrimSpace(string(body)))
	}
	var envelope struct {
		Data service.SweepResult `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return service.SweepResult{}, fmt.Errorf("decode sweep response: %w", err)
	}
	return envelope.Data, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
