package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/attempt"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/exam"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/report"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/user"
)

func openDB(cmd *cobra.Command) (*db.DB, error) {
	v := viperForCmd(cmd)
	setupLogging(v)
	d, err := db.Open(cmd.Context(), db.Driver(v.GetString("db-driver")), v.GetString("db-dsn"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return d, nil
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the results of an exam as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			examID, _ := cmd.Flags().GetInt64("exam-id")
			out, _ := cmd.Flags().GetString("out")

			d, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer d.Close()
			return exportResults(cmd.Context(), d, examID, out, cmd.OutOrStdout())
		},
	}
	addStoreFlags(cmd)
	cmd.Flags().Int64("exam-id", 0, "exam to export")
	cmd.Flags().String("out", "", "output file (exam_<id>_results.csv when \"auto\", stdout when empty)")
	_ = cmd.MarkFlagRequired("exam-id")
	return cmd
}

func exportResults(ctx context.Context, d *db.DB, examID int64, out string, stdout io.Writer) error {
	if _, err := exam.Get(ctx, d, examID); err != nil {
		return err
	}
	list, err := attempt.ListByExam(ctx, d, examID)
	if err != nil {
		return err
	}
	var w io.Writer = stdout
	if out != "" {
		if out == "auto" {
			out = report.Filename(examID)
		}
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := report.WriteCSV(w, list); err != nil {
		return err
	}
	if out != "" {
		slog.Info("exported results", "exam_id", examID, "attempts", len(list), "path", out)
	}
	return nil
}

func useraddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "useradd",
		Short: "Create a student or teacher account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("username")
			pw, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")

			d, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer d.Close()
			u, err := user.NewStore(d).Create(cmd.Context(), name, pw, user.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %q (id %d)\n", u.Role, u.Username, u.ID)
			return nil
		},
	}
	addStoreFlags(cmd)
	cmd.Flags().String("username", "", "account name")
	cmd.Flags().String("password", "", "account password")
	cmd.Flags().String("role", string(user.RoleStudent), "student or teacher")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := openDB(cmd)
			if err != nil {
				return err
			}
			defer d.Close()
			slog.Info("schema ready", "driver", d.Dialect().Name())
			return nil
		},
	}
	addStoreFlags(cmd)
	return cmd
}
