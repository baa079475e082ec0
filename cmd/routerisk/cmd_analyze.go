package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"freshlogic/internal/aggregator"
	"freshlogic/internal/engine"
	"freshlogic/internal/ensemble"
	"freshlogic/internal/geo"
	"freshlogic/internal/models"
	"freshlogic/internal/reference"
)

// routeFile is the on-disk route description. JSON files parse as YAML.
type routeFile struct {
	Crop        string            `yaml:"crop"`
	Origin      string            `yaml:"origin"`
	Destination string            `yaml:"destination"`
	Waypoints   []models.Waypoint `yaml:"waypoints"`
}

type analyzeFlags struct {
	crop      string
	route     string
	asJSON    bool
	tolerance float64
}

func newAnalyzeCmd(root *rootFlags) *cobra.Command {
	flags := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a route file for a crop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, root, flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.route, "route", "", "Route file, YAML or JSON (required)")
	f.StringVar(&flags.crop, "crop", "", "Crop type (overrides the route file)")
	f.BoolVar(&flags.asJSON, "json", false, "Print the full summary as JSON")
	f.Float64Var(&flags.tolerance, "tolerance", aggregator.DefaultParams().TemperatureToleranceC, "Temperature tolerance around the optimal band in °C")
	_ = cmd.MarkFlagRequired("route")
	return cmd
}

func loadRoute(path string) (*routeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rf routeFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	rf.Waypoints = models.NumberWaypoints(rf.Waypoints)
	return &rf, nil
}

func runAnalyze(cmd *cobra.Command, root *rootFlags, flags *analyzeFlags) error {
	rf, err := loadRoute(flags.route)
	if err != nil {
		return fmt.Errorf("load route: %w", err)
	}
	crop := rf.Crop
	if flags.crop != "" {
		crop = flags.crop
	}
	if crop == "" {
		return fmt.Errorf("no crop given: use --crop or set crop in the route file")
	}

	store, err := root.store()
	if err != nil {
		return fmt.Errorf("load crops: %w", err)
	}
	ref := reference.New(store, 0)
	params := aggregator.DefaultParams()
	params.TemperatureToleranceC = flags.tolerance
	eng, err := engine.New(store,
		ensemble.NewPredictor(store, ensemble.NewRegressionSignal(ref), ensemble.NewClassificationSignal(ref)),
		params, 0, zap.NewNop())
	if err != nil {
		return err
	}

	summary, err := eng.AnalyzeRoute(cmd.Context(), crop, geo.FillDistances(rf.Waypoints))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return printSummary(out, rf, summary)
}

func printSummary(out io.Writer, rf *routeFile, s *models.RouteRiskSummary) error {
	if rf.Origin != "" || rf.Destination != "" {
		fmt.Fprintf(out, "Route:        %s -> %s\n", rf.Origin, rf.Destination)
	}
	fmt.Fprintf(out, "Crop:         %s\n", s.CropType)
	fmt.Fprintf(out, "Status:       %s\n", s.Status)
	fmt.Fprintf(out, "Overall risk: %.4f\n", s.OverallRisk)
	fmt.Fprintf(out, "Days left:    %.1f\n", s.DaysRemaining)
	fmt.Fprintf(out, "Distance:     %.1f km over %.1f h\n", s.DistanceKm, s.DurationHours)
	fmt.Fprintf(out, "Danger zones: %d (%.1f h)\n", s.DangerZoneCount, s.DangerHours)
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tHOURS\tTEMP\tRH\tVPD\tINSTANT\tCUMULATIVE\tDANGER")
	for _, wr := range s.Waypoints {
		fmt.Fprintf(w, "%d\t%.1f\t%.1f\t%.0f\t%.3f\t%.3f\t%.3f\t%s\n",
			wr.Waypoint.Index, wr.Waypoint.ElapsedHours, wr.Waypoint.TemperatureC, wr.Waypoint.HumidityPct,
			wr.VPDkPa, wr.Instant.EnsembleRisk, wr.CumulativeRisk, strings.Join(wr.DangerReasons, ","))
	}
	return w.Flush()
}
