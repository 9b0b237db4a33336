package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"herdsnap/internal/blob"
	"herdsnap/internal/census"
	"herdsnap/internal/classifier"
	"herdsnap/internal/config"
	"herdsnap/internal/database"
	"herdsnap/internal/middleware"
	"herdsnap/internal/models"
	"herdsnap/internal/services"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "herdctl",
		Short:         "Operate a Herdsnap deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newIngestCmd(), newTokenCmd())
	return root
}

// --- migrate ---

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withManager(func(m *database.Manager) error {
					if err := m.RunMigrations(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied successfully")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down [N]",
			Short: "Roll back N migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					n, err := strconv.Atoi(args[0])
					if err != nil || n < 1 {
						return fmt.Errorf("invalid step count %q", args[0])
					}
					steps = n
				}
				return withManager(func(m *database.Manager) error {
					if err := m.MigrateDown(steps); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", steps)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withManager(func(m *database.Manager) error {
					version, dirty, err := m.MigrationVersion()
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Version: %d, Dirty: %v\n", version, dirty)
					return nil
				})
			},
		},
	)
	return migrateCmd
}

func withManager(fn func(*database.Manager) error) error {
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}
	m, err := database.NewManager(dbConfig)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}

// --- ingest ---

func newIngestCmd() *cobra.Command {
	var owner, name, date string

	cmd := &cobra.Command{
		Use:   "ingest FILE",
		Short: "Ingest a census file as a new snapshot",
		Long: `Runs a CSV or XLSX census through the same pipeline as the upload
endpoint, against the configured database, archive and classifier.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshotDate := models.NewDate(time.Now())
			if date != "" {
				d, err := models.ParseDate(date)
				if err != nil {
					return err
				}
				snapshotDate = d
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(args[0])
			}

			return withManager(func(m *database.Manager) error {
				if err := m.RunMigrations(); err != nil {
					return err
				}
				ingest, err := buildIngestService(cmd, m)
				if err != nil {
					return err
				}
				result, err := ingest.IngestFile(cmd.Context(), services.FileUpload{
					SnapshotHeader: services.SnapshotHeader{OwnerID: owner, Name: name, SnapshotDate: snapshotDate},
					Filename:       filepath.Base(args[0]),
					Content:        content,
				})
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner user ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "snapshot name (default: file name)")
	cmd.Flags().StringVar(&date, "date", "", "census date YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func buildIngestService(cmd *cobra.Command, m *database.Manager) (services.IngestServicer, error) {
	appConfig, err := config.Load()
	if err != nil {
		return nil, err
	}
	archive, err := blob.Open(cmd.Context(), appConfig.Blob())
	if err != nil {
		return nil, err
	}
	profile, err := census.LoadProfile(appConfig.CensusProfile)
	if err != nil {
		return nil, err
	}
	var model classifier.Classifier
	if appConfig.ClassifierURL != "" {
		model = classifier.NewHTTPClassifier(appConfig.ClassifierURL, appConfig.ClassifierTimeout)
	}

	snapshots := services.NewSnapshotService(m.DB(), archive, appConfig.RowBatchSize)
	return services.NewIngestService(snapshots, classifier.NewGateway(model, appConfig.Classifier()), archive,
		services.IngestOptions{Profile: profile, RejectionPreview: appConfig.RejectionPreview}), nil
}

// --- token ---

func newTokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development access token with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appConfig, err := config.Load()
			if err != nil {
				return err
			}
			token, err := middleware.IssueToken([]byte(appConfig.JWTSecret), appConfig.JWTIssuer, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "user", "", "user ID placed in the sub claim (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
