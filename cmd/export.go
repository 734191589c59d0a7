package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/discovery"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/export"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/server"
	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/table"
)

var (
	exportInput string
	exportFile  string
	exportLimit int
	exportOut   string
	exportQuery string
)

// exportKinds lists the export subjects accepted on the command line.
var exportKinds = []string{"hashtag", "reels", "tagged", "profiles", "keywords"}

var exportCmd = &cobra.Command{
	Use:       "export {hashtag|reels|tagged|profiles|keywords}",
	Short:     "Run one export and write the CSV to a file or stdout",
	ValidArgs: exportKinds,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Long: `Runs the same pipelines as the HTTP server without starting it.

Examples:
  # Posts for two hashtags
  reels-discovery export hashtag --input "travel, #food" --limit 50

  # Collaborations for brand pages listed in a spreadsheet
  reels-discovery export reels --file pages.xlsx --out reels.csv

  # Enrich the usernames of an earlier export
  reels-discovery export profiles --file hashtag_export.csv --query summer`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, err := initService(ctx, cfg, "export")
		if err != nil {
			return err
		}

		var tbl *table.Table
		if exportFile != "" {
			tbl, err = readTableFile(exportFile)
			if err != nil {
				return err
			}
		}

		res, err := runExport(ctx, svc, args[0], exportInput, tbl, exportLimit, exportQuery)
		if err != nil {
			return err
		}

		if exportOut == "" {
			err = writeResult(cmd.OutOrStdout(), res)
		} else {
			err = writeResultFile(exportOut, res)
		}
		if err != nil {
			return err
		}

		zap.L().Info("export written",
			zap.String("export_id", res.ID),
			zap.String("domain", string(res.Domain)),
			zap.Int("rows", len(res.Rows)),
			zap.Int("failed_tasks", res.Failed()),
			zap.Bool("truncated", res.Truncated),
		)
		return nil
	},
}

// runExport dispatches one export by kind.
func runExport(ctx context.Context, svc server.Exporter, kind, text string, tbl *table.Table, limit int, query string) (*model.ExportResult, error) {
	req := discovery.Request{Text: text, Table: tbl, Limit: limit}
	switch kind {
	case "hashtag":
		return svc.Hashtags(ctx, req)
	case "reels":
		return svc.BrandpageReels(ctx, req)
	case "tagged":
		return svc.BrandpageTagged(ctx, req)
	case "keywords":
		return svc.Keywords(ctx, req)
	case "profiles":
		if tbl == nil {
			return nil, model.Invalid("Upload a CSV")
		}
		return svc.Profiles(ctx, discovery.ProfileRequest{Table: tbl, Query: query})
	default:
		return nil, eris.Errorf("export: unknown kind %q", kind)
	}
}

func readTableFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	tbl, err := table.Parse(filepath.Base(path), f)
	if err != nil {
		return nil, eris.Wrapf(err, "export: parse %s", path)
	}
	return tbl, nil
}

func writeResult(w io.Writer, res *model.ExportResult) error {
	schema, err := export.SchemaFor(res.Domain)
	if err != nil {
		return err
	}
	return export.Write(w, schema, res.Rows)
}

// writeResultFile writes the CSV to path. A failed close is an error.
func writeResultFile(path string, res *model.ExportResult) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "export: close %s", path)
		}
	}()

	return writeResult(f, res)
}

func init() {
	exportCmd.Flags().StringVar(&exportInput, "input", "", "comma or newline separated identifiers")
	exportCmd.Flags().StringVar(&exportFile, "file", "", "CSV or XLSX file with an identifier column (required for profiles)")
	exportCmd.Flags().IntVar(&exportLimit, "limit", 0, "results per actor call (default from config)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output CSV path (default stdout)")
	exportCmd.Flags().StringVar(&exportQuery, "query", "", "query label for profiles that cannot be traced to a source row")
	rootCmd.AddCommand(exportCmd)
}
