package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gigbook/internal/domain"
	"gigbook/internal/export"

	"github.com/spf13/cobra"
)

func newExportBookingsCmd(opts *globalOptions) *cobra.Command {
	var (
		venueSlug string
		from, to  string
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "export-bookings",
		Short: "Write a venue's bookings to an Excel workbook",
		Example: `  gigbookctl export-bookings --venue blue-note --from 2025-09-01 --to 2025-10-01
  gigbookctl export-bookings --venue blue-note --out /tmp/exports`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromTime, err := parseDay(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			toTime, err := parseDay(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			_, db, _, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			venue, err := db.GetVenueBySlug(cmd.Context(), venueSlug)
			if err != nil {
				return fmt.Errorf("venue %q: %w", venueSlug, err)
			}
			list, err := db.ListBookings(cmd.Context(), domain.BookingFilter{VenueID: venue.ID, From: fromTime, To: toTime})
			if err != nil {
				return err
			}

			f, err := export.Bookings(venue.Name, fromTime, toTime, list)
			if err != nil {
				return err
			}
			defer f.Close()

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create export directory: %w", err)
			}
			path := filepath.Join(outDir, export.FileName(venue.Slug, time.Now()))
			if err := f.SaveAs(path); err != nil {
				return fmt.Errorf("save workbook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d bookings to %s\n", len(list), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&venueSlug, "venue", "", "venue slug (required)")
	cmd.Flags().StringVar(&from, "from", "", "first day to include, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "day after the last day to include, YYYY-MM-DD")
	cmd.Flags().StringVar(&outDir, "out", "exports", "output directory")
	_ = cmd.MarkFlagRequired("venue")
	return cmd
}

func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
