// Package main provides the gridbook CLI: an interactive terminal grid
// over local CSV/XLSX files or a remote workbook, plus conversion and
// sync commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/javajack/gridbook"
)

var (
	serverURL string
	logLevel  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridbook",
		Short: "View, edit, and sync spreadsheet workbooks",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			lvl := slog.LevelInfo
			switch strings.ToLower(logLevel) {
			case "debug":
				lvl = slog.LevelDebug
			case "warn":
				lvl = slog.LevelWarn
			case "error":
				lvl = slog.LevelError
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
		},
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "workbook service base URL")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug|info|warn|error")

	rootCmd.AddCommand(viewCmd(), convertCmd(), pullCmd(), pushCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func viewCmd() *cobra.Command {
	var workbookID string
	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Open an interactive grid over a local file or a remote workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				wb     gridbook.Workbook
				client *gridbook.Client
				err    error
			)
			switch {
			case workbookID != "":
				if serverURL == "" {
					return fmt.Errorf("--workbook requires --server")
				}
				client = gridbook.NewClient(serverURL)
				ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
				defer cancel()
				wb, err = client.Refresh(ctx, workbookID)
				if err != nil {
					return err
				}
			case len(args) == 1:
				wb, err = loadWorkbook(args[0])
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("pass a file or --workbook")
			}

			m := newGridModel(gridbook.NewStore(wb), client, workbookID)
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&workbookID, "workbook", "", "remote workbook id to view")
	return cmd
}

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert between CSV and XLSX by file extension",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := loadWorkbook(args[0])
			if err != nil {
				return err
			}
			return saveWorkbook(wb, args[1])
		},
	}
}

func pullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull <workbook-id> <out>",
		Short: "Fetch a remote workbook and write it to a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL == "" {
				return fmt.Errorf("pull requires --server")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			wb, err := gridbook.NewClient(serverURL).Refresh(ctx, args[0])
			if err != nil {
				return err
			}
			slog.Info("pulled workbook", "id", args[0], "sheets", len(wb.Sheets))
			return saveWorkbook(wb, args[1])
		},
	}
}

func pushCmd() *cobra.Command {
	var sheet, formula string
	cmd := &cobra.Command{
		Use:   "push <workbook-id> <address> [value]",
		Short: "Persist a single cell edit to a remote workbook",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL == "" {
				return fmt.Errorf("push requires --server")
			}
			edit := gridbook.CellEdit{Address: args[1], Formula: formula}
			if len(args) == 3 {
				edit.Value = args[2]
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			cell, err := gridbook.NewClient(serverURL).PersistCell(ctx, args[0], sheet, edit)
			if err != nil {
				return err
			}
			slog.Info("cell persisted", "sheet", sheet, "address", cell.Address)
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "Sheet1", "target sheet name")
	cmd.Flags().StringVar(&formula, "formula", "", "formula to store instead of a value")
	return cmd
}

func loadWorkbook(path string) (gridbook.Workbook, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		raw, err := os.ReadFile(path)
		if err != nil {
			return gridbook.Workbook{}, err
		}
		return gridbook.NewWorkbookFromCSV(name, string(raw)), nil
	case ".xlsx":
		f, err := os.Open(path)
		if err != nil {
			return gridbook.Workbook{}, err
		}
		defer f.Close()
		return gridbook.ReadXLSX(name, f)
	default:
		return gridbook.Workbook{}, fmt.Errorf("unsupported input %q: want .csv or .xlsx", path)
	}
}

func saveWorkbook(wb gridbook.Workbook, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		sheet := wb.ActiveSheet()
		if sheet == nil {
			return fmt.Errorf("workbook has no active sheet")
		}
		return os.WriteFile(path, []byte(sheet.CSV()), 0o644)
	case ".xlsx":
		out, err := os.Create(path)
		if err != nil {
			return err
		}
		defer out.Close()
		return gridbook.WriteXLSX(wb, out)
	default:
		return fmt.Errorf("unsupported output %q: want .csv or .xlsx", path)
	}
}
