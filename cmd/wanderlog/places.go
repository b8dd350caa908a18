package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wanderlog/internal/extract"
	"wanderlog/internal/storage"
	"wanderlog/internal/store"
)

func newIngestCmd(rt *runtime) *cobra.Command {
	var (
		sourceType string
		fromBucket string
		upload     bool
	)

	cmd := &cobra.Command{
		Use:   "ingest <export.json | object-key>",
		Short: "Merge a timeline export into the place store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			if err := a.Config.ValidateGeocoder(); err != nil {
				return err
			}
			ctx := cmd.Context()

			if fromBucket != "" {
				if a.S3 == nil {
					return fmt.Errorf("--bucket requires MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
				}
				export, err := a.S3.GetExport(ctx, fromBucket, args[0])
				if err != nil {
					return err
				}
				report, err := a.Catalog.Ingest(ctx, export, sourceType)
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			report, err := a.Catalog.IngestReader(ctx, f, sourceType)
			if err != nil {
				return err
			}
			if upload && a.S3 != nil {
				key, err := a.S3.UploadExport(ctx, a.Config.ExportBucket, args[0])
				if err != nil {
					a.Log.Warn("Failed to archive export", zap.String("path", args[0]), zap.Error(err))
				} else {
					fmt.Fprintln(cmd.ErrOrStderr(), "archived export as", key)
				}
			}
			return printJSON(cmd, report)
		},
	}

	cmd.Flags().StringVar(&sourceType, "source", "google_timeline", "Source type recorded on new places")
	cmd.Flags().StringVar(&fromBucket, "bucket", "", "Read the export from this bucket instead of the local disk")
	cmd.Flags().BoolVar(&upload, "upload", false, "Also archive the local export in EXPORT_BUCKET")
	return cmd
}

func newAddCmd(rt *runtime) *cobra.Command {
	var in store.ManualPlace

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a place by hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			p, err := a.Catalog.AddManual(in)
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		},
	}

	cmd.Flags().StringVar(&in.Latitude, "lat", "", "Latitude (required)")
	cmd.Flags().StringVar(&in.Longitude, "lon", "", "Longitude (required)")
	cmd.Flags().StringVar(&in.Label, "label", "", "Display label")
	cmd.Flags().StringVar(&in.VisitDate, "date", "", "Visit date, YYYY-MM-DD")
	cmd.Flags().StringVar(&in.SourceType, "source", "manual", "Source type")
	cmd.Flags().StringVar(&in.Alias, "alias", "", "Alias")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func newArchiveCmd(rt *runtime, archived bool) *cobra.Command {
	use, short := "archive", "Hide places from default listings"
	if !archived {
		use, short = "unarchive", "Show archived places again"
	}

	return &cobra.Command{
		Use:   use + " <key>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := a.Catalog.SetArchived(args[0], archived); err != nil {
					return err
				}
				return printJSON(cmd, map[string]int{"updated": 1})
			}
			n, err := a.Catalog.BulkSetArchived(args, archived)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int{"updated": n})
		},
	}
}

func newAliasCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "alias <key> [alias]",
		Short: "Set or clear the alias of a place",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			alias := ""
			if len(args) == 2 {
				alias = args[1]
			}
			if err := a.Catalog.SetAlias(args[0], alias); err != nil {
				return err
			}
			p, err := a.Catalog.GetPlace(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		},
	}
}

func newDescribeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <key> [text]",
		Short: "Set or clear the description of a place",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			text := ""
			if len(args) == 2 {
				text = args[1]
			}
			if err := a.Catalog.SetDescription(args[0], text); err != nil {
				return err
			}
			p, err := a.Catalog.GetPlace(args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, p)
		},
	}
}

func newDeleteCmd(rt *runtime) *cobra.Command {
	var cascade bool

	cmd := &cobra.Command{
		Use:   "delete <key>...",
		Short: "Delete places",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errNoArgs
			}
			a, err := rt.load()
			if err != nil {
				return err
			}
			report, err := a.Catalog.DeletePlaces(args, cascade)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "Also remove the places from every trip")
	return cmd
}

func newListCmd(rt *runtime) *cobra.Command {
	var (
		sources         []string
		from, to        string
		includeArchived bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored places",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := store.Filter{SourceTypes: sources, IncludeArchived: includeArchived}
			var err error
			if filter.From, err = parseDateFlag("from", from); err != nil {
				return err
			}
			if filter.To, err = parseDateFlag("to", to); err != nil {
				return err
			}

			a, err := rt.load()
			if err != nil {
				return err
			}
			return printJSON(cmd, a.Catalog.Query(filter))
		},
	}

	cmd.Flags().StringSliceVar(&sources, "source", nil, "Only these source types")
	cmd.Flags().StringVar(&from, "from", "", "Earliest visit date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Latest visit date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&includeArchived, "all", false, "Include archived places")
	return cmd
}

func parseDateFlag(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return d, nil
}

func newBackupCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Write a timestamped copy of the place store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			path, err := a.Catalog.Backup(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"backup": path})
		},
	}
}

func newResetCmd(rt *runtime) *cobra.Command {
	var noBackup bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Empty the place store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			path, err := a.Catalog.Reset(cmd.Context(), !noBackup)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]string{"backup": path})
		},
	}
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Skip the snapshot taken before resetting")
	return cmd
}

func newExportPGCmd(rt *runtime) *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "export-pg",
		Short: "Copy the place store into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.load()
			if err != nil {
				return err
			}
			if databaseURL == "" {
				databaseURL = a.Config.PostgresURL
			}
			if databaseURL == "" {
				return fmt.Errorf("POSTGRES_URL or --database-url is required")
			}

			ctx := cmd.Context()
			exporter, err := storage.NewPlaceExporter(ctx, databaseURL, a.Log.Named("postgres"))
			if err != nil {
				return err
			}
			defer exporter.Close()

			n, err := exporter.Export(ctx, a.Catalog.Places())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]int64{"rows": n})
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (default: POSTGRES_URL)")
	return cmd
}

func newVisitsCmd() *cobra.Command {
	var from, to, placeID string

	cmd := &cobra.Command{
		Use:   "visits <export.json>",
		Short: "List the raw top-candidate visits of an export without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if placeID == "" && (from == "" || to == "") {
				return fmt.Errorf("either --place or both --from and --to are required")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			export, err := extract.Decode(f)
			if err != nil {
				return err
			}

			if placeID != "" {
				return printJSON(cmd, extract.ByPlaceID(export, placeID))
			}
			fromDay, err := parseDateFlag("from", from)
			if err != nil {
				return err
			}
			toDay, err := parseDateFlag("to", to)
			if err != nil {
				return err
			}
			return printJSON(cmd, extract.ByDateRange(export, fromDay, toDay))
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "Last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&placeID, "place", "", "Only visits to this place key")
	return cmd
}
