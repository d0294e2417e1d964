package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/James-CPE/API-NCD/internal/config"
	"github.com/James-CPE/API-NCD/internal/domain/user"
	"github.com/James-CPE/API-NCD/internal/platform/auth"
	"github.com/James-CPE/API-NCD/internal/platform/db"
	"github.com/James-CPE/API-NCD/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ncd-server",
		Short: "NCD patient tracking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the NCD API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// openPool loads the config and connects. Callers close the pool.
func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		ApplicationName: "ncd-server",
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

// migrationFiles returns the embedded migrations, or dir when set.
func migrationFiles(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, migrationFiles(dir))
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", db.DefaultSchema, "Target schema for migrations")
	upCmd.Flags().String("dir", "", "Migrations directory (defaults to the embedded set)")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
			dir, _ := cmd.Flags().GetString("dir")

			ctx := context.Background()
			_, pool, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, migrationFiles(dir))
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", db.DefaultSchema, "Target schema for migrations")
	statusCmd.Flags().String("dir", "", "Migrations directory (defaults to the embedded set)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage login accounts",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a login account with a bcrypt password",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			fullname, _ := cmd.Flags().GetString("fullname")
			hospital, _ := cmd.Flags().GetString("hospital")
			role, _ := cmd.Flags().GetString("role")
			if username == "" || password == "" {
				return fmt.Errorf("--username and --password are required")
			}

			ctx := context.Background()
			svc, pool, err := openUserService(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			u := &user.User{Username: username, Role: role}
			if fullname != "" {
				u.Fullname = &fullname
			}
			if hospital != "" {
				u.Hospital = &hospital
			}
			if err := svc.CreateUser(ctx, u, password); err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Printf("Created user %s (id %d, role %s)\n", u.Username, u.ID, u.Role)
			return nil
		},
	}
	createCmd.Flags().String("username", "", "Login name (hospital accounts use the hospital code)")
	createCmd.Flags().String("password", "", "Initial password")
	createCmd.Flags().String("fullname", "", "Display name")
	createCmd.Flags().String("hospital", "", "Hospital code the account belongs to")
	createCmd.Flags().String("role", "user", "Role: user or admin")
	cmd.AddCommand(createCmd)

	passwdCmd := &cobra.Command{
		Use:   "passwd",
		Short: "Set a new password for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")

			ctx := context.Background()
			svc, pool, err := openUserService(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := svc.SetPassword(ctx, username, password); err != nil {
				return fmt.Errorf("set password: %w", err)
			}
			fmt.Printf("Password updated for %s\n", username)
			return nil
		},
	}
	passwdCmd.Flags().String("username", "", "Login name")
	passwdCmd.Flags().String("password", "", "New password")
	cmd.AddCommand(passwdCmd)

	return cmd
}

func openUserService(ctx context.Context) (*user.Service, *pgxpool.Pool, error) {
	cfg, pool, err := openPool(ctx)
	if err != nil {
		return nil, nil, err
	}
	issuer := auth.NewTokenIssuer(cfg.SigningKey(), cfg.JWTTTL)
	return user.NewService(user.NewRepoPG(pool), issuer), pool, nil
}
