package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"exam-prep-service/internal/app"
	"exam-prep-service/internal/config"
	"exam-prep-service/internal/domain"
	"exam-prep-service/internal/identity"
	"exam-prep-service/internal/ingest"
)

// NewImportCmd imports MCQ/PYQ files and schedule JSON from disk.
func NewImportCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import questions or a program schedule",
	}
	cmd.AddCommand(newQuestionImportCmd(configPath, app.KindMCQ))
	cmd.AddCommand(newQuestionImportCmd(configPath, app.KindPYQ))
	cmd.AddCommand(newScheduleImportCmd(configPath))
	return cmd
}

func newQuestionImportCmd(configPath *string, kind string) *cobra.Command {
	var exam, year, subject, test string
	var verbose bool
	cmd := &cobra.Command{
		Use:   strings.ToLower(kind) + " <file>",
		Short: "Import " + kind + "s from a JSON, PDF or text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withServices(cmd.Context(), *configPath, func(ctx context.Context, svc *services, _ config.Config) error {
				defaults := ingest.ResolveDefaults(exam, year, subject, test, time.Now())
				var progress app.ProgressFunc
				if verbose {
					progress = func(p domain.ImportProgress) {
						status := "ok"
						if !p.OK {
							status = p.Error
						}
						fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s\n", p.Index, p.Total, status)
					}
				}
				result, err := svc.questions.ImportFile(ctx, kind, filepath.Base(args[0]), content, defaults, progress)
				if err != nil {
					return err
				}
				return printJSON(cmd, result.Capped(domain.MaxReportedErrors))
			})
		},
	}
	cmd.Flags().StringVar(&exam, "exam", "", "default exam for PDF/text uploads")
	cmd.Flags().StringVar(&year, "year", "", "default year for PDF/text uploads")
	cmd.Flags().StringVar(&subject, "subject", "", "default subject for PDF/text uploads")
	cmd.Flags().StringVar(&test, "test", "", "default test for PDF/text uploads")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print per-item progress")
	return cmd
}

func newScheduleImportCmd(configPath *string) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "schedule <file>",
		Short: "Validate and upsert a program schedule JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if dryRun {
				normalized, err := app.NewScheduleService(nil).Validate(string(raw))
				if err != nil {
					return err
				}
				return printJSON(cmd, normalized)
			}
			return withServices(cmd.Context(), *configPath, func(ctx context.Context, svc *services, cfg config.Config) error {
				caller := domain.Identity{UID: cfg.CLIIdentity.UID, Email: cfg.CLIIdentity.Email}
				result, err := svc.schedules.Import(identity.WithIdentity(ctx, caller), string(raw))
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and print the normalized schedule without writing")
	return cmd
}

// NewDeleteMCQsCmd deletes MCQs by id in chunks.
func NewDeleteMCQsCmd(configPath *string) *cobra.Command {
	var fromFile string
	cmd := &cobra.Command{
		Use:   "delete-mcqs [id...]",
		Short: "Delete MCQs by id, in atomic chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := append([]string(nil), args...)
			if fromFile != "" {
				raw, err := os.ReadFile(fromFile)
				if err != nil {
					return err
				}
				ids = append(ids, strings.Fields(string(raw))...)
			}
			return withServices(cmd.Context(), *configPath, func(ctx context.Context, svc *services, _ config.Config) error {
				result, err := svc.questions.DeleteMCQs(ctx, ids)
				if perr := printJSON(cmd, result); perr != nil {
					return perr
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&fromFile, "from-file", "", "file with whitespace-separated ids")
	return cmd
}

// NewBackfillCmd fills missing exam/year/test placement on stored questions.
func NewBackfillCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Fill missing exam, year and test fields on stored questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd.Context(), *configPath, func(ctx context.Context, svc *services, _ config.Config) error {
				results, err := svc.questions.BackfillPlacement(ctx)
				if perr := printJSON(cmd, results); perr != nil {
					return perr
				}
				return err
			})
		},
	}
}

func withServices(ctx context.Context, configPath string, fn func(context.Context, *services, config.Config) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(ctx, svc, cfg)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
