package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mr1hm/go-club-map/internal/config"
	"github.com/mr1hm/go-club-map/internal/dataset"
	"github.com/mr1hm/go-club-map/internal/directory"
	"github.com/mr1hm/go-club-map/internal/geo"
	"github.com/mr1hm/go-club-map/internal/ingestion"
	"github.com/mr1hm/go-club-map/internal/links"
	"github.com/mr1hm/go-club-map/internal/logging"
	"github.com/mr1hm/go-club-map/internal/mapview"
	"github.com/mr1hm/go-club-map/internal/marker"
	"github.com/mr1hm/go-club-map/internal/models"
)

type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

var errNoLocation = errors.New("no location")

type rootOptions struct {
	datasetPath string
	cfg         *config.Config
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "clubctl",
		Short: "Inspect the club directory",
		Long: `clubctl browses the club directory without starting the server:
list and filter clubs, export map markers, and check the data for clubs
that cannot be placed on the map.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, "text"))
			opts.cfg = cfg
			if opts.datasetPath == "" {
				opts.datasetPath = cfg.Dataset.Path
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.datasetPath, "dataset", "", "Dataset JSON file (default: embedded data)")

	cmd.AddCommand(
		newListCmd(opts),
		newMarkersCmd(opts),
		newCheckCmd(opts),
		newNormalizeCmd(),
		newLinkCmd(opts),
	)
	return cmd
}

func (o *rootOptions) load(ctx context.Context) (*dataset.Dataset, error) {
	var src ingestion.Source = ingestion.EmbeddedSource{}
	if o.datasetPath != "" {
		src = ingestion.FileSource{Path: o.datasetPath}
	}
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	return ds, nil
}

func (o *rootOptions) resolver() *links.Resolver {
	return links.NewResolver(o.cfg.Links.SearchURL, o.cfg.Links.SearchPhrase)
}

func addQueryFlags(cmd *cobra.Command, text, category *string) {
	cmd.Flags().StringVarP(text, "query", "q", "", "Free-text search over name, subject, location and description")
	cmd.Flags().StringVarP(category, "category", "c", "all", "Category: all, sports, culture or other")
}

func buildQuery(text, category string) (directory.Query, error) {
	cat, ok := models.ParseCategory(category)
	if !ok {
		return directory.Query{}, fmt.Errorf("invalid category: %s", category)
	}
	return directory.Query{Text: text, Category: cat}, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var text, category, format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clubs ordered by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := OutputFormat(strings.ToLower(format))
			if f != FormatText && f != FormatJSON {
				return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", format)
			}
			q, err := buildQuery(text, category)
			if err != nil {
				return err
			}
			ds, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}

			clubs := directory.Search(ds.Clubs, q)
			if f == FormatJSON {
				return writeClubsJSON(cmd.OutOrStdout(), clubs)
			}
			return writeClubsText(cmd.OutOrStdout(), clubs)
		},
	}

	addQueryFlags(cmd, &text, &category)
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	return cmd
}

type clubLine struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Subject  string        `json:"subject"`
	Location string        `json:"location"`
	Category string        `json:"category"`
	Status   string        `json:"status"`
	Point    *models.Point `json:"point"`
}

func writeClubsJSON(w io.Writer, clubs []models.Club) error {
	out := make([]clubLine, 0, len(clubs))
	for _, c := range clubs {
		line := clubLine{
			ID:       c.ID,
			Name:     c.Name,
			Subject:  c.Subject,
			Location: c.Location,
			Category: string(c.Category),
			Status:   string(c.Status),
		}
		if p, ok := geo.Locate(c.Coordinates); ok {
			line.Point = &p
		}
		out = append(out, line)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeClubsText(w io.Writer, clubs []models.Club) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tNAME\tSUBJECT\tLOCATION\tMAP")
	for _, c := range clubs {
		mapped := "-"
		if _, ok := geo.Locate(c.Coordinates); ok {
			mapped = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Status.Label(), c.Name, c.Subject, c.Location, mapped)
	}
	return tw.Flush()
}

func newMarkersCmd(opts *rootOptions) *cobra.Command {
	var text, category string

	cmd := &cobra.Command{
		Use:   "markers",
		Short: "Print map markers as GeoJSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := buildQuery(text, category)
			if err != nil {
				return err
			}
			ds, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}

			proj := mapview.Project(directory.Search(ds.Clubs, q), ds.Schools, marker.Default())
			surface := mapview.NewGeoJSON()
			mapview.Render(surface, proj, nil)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(surface.Collection())
		},
	}

	addQueryFlags(cmd, &text, &category)
	return cmd
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report clubs that stay off the map or have no usable link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			byID := make(map[string]models.Club, len(ds.Clubs))
			for _, c := range ds.Clubs {
				byID[c.ID] = c
			}

			proj := mapview.Project(ds.Clubs, ds.Schools, marker.Default())
			fmt.Fprintf(w, "list-only clubs: %d\n", len(proj.ListOnly))
			for _, id := range proj.ListOnly {
				fmt.Fprintf(w, "  %s%s\n", id, schoolSuffix(ds, byID[id]))
			}

			var fallback []models.Club
			for _, c := range ds.Clubs {
				if c.URL != "" && !links.Usable(c.URL) {
					fallback = append(fallback, c)
				}
			}
			fmt.Fprintf(w, "links falling back to search: %d\n", len(fallback))
			for _, c := range fallback {
				fmt.Fprintf(w, "  %s%s\t%q\n", c.ID, schoolSuffix(ds, c), c.URL)
			}

			for _, s := range ds.Schools {
				if _, ok := geo.Locate(s.Coordinates); !ok {
					fmt.Fprintf(w, "school without location: %s\n", s.ID)
				}
			}
			return nil
		},
	}
}

// schoolSuffix names the club's school, or is empty when the club has
// none or references an unknown school.
func schoolSuffix(ds *dataset.Dataset, c models.Club) string {
	if c.SchoolID == "" {
		return ""
	}
	school, ok := ds.School(c.SchoolID)
	if !ok {
		return " (unknown school " + c.SchoolID + ")"
	}
	return " (" + school.Name + ")"
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <raw>",
		Short: "Normalize a raw coordinate value",
		Long: `Normalize runs the coordinate normalizer on one raw value. JSON arrays
and objects are decoded as pair and keyed coordinates; anything else is
treated as "lat, lng" text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := geo.Locate(parseRaw(args[0]))
			if !ok {
				return fmt.Errorf("%w: %q", errNoLocation, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%g,%g\n", p.Lat, p.Lng)
			return nil
		},
	}
}

func parseRaw(raw string) models.Coordinate {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") || (strings.HasPrefix(trimmed, "[") && json.Valid([]byte(trimmed))) {
		var c models.Coordinate
		_ = json.Unmarshal([]byte(trimmed), &c)
		return c
	}
	return models.Text(raw)
}

func newLinkCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "link <club-id>",
		Short: "Print where a club's website button leads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range ds.Clubs {
				if c.ID == args[0] {
					res := opts.resolver().Resolve(c)
					fmt.Fprintln(cmd.OutOrStdout(), res.URL)
					return nil
				}
			}
			return fmt.Errorf("club not found: %s", args[0])
		},
	}
}
