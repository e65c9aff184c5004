package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cie-limit/Celestium"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const dateFormat = "2006-01-02 15:04:05"

// app holds what the subcommands share once the configuration is loaded.
type app struct {
	configFile  string
	metricsFile string
	trace       bool
	verbose     bool

	logger   log.Logger
	conf     celestium.Config
	vehicles *celestium.VehicleRegistry
	registry *prometheus.Registry
	planner  *celestium.Planner
	shutdown func(context.Context) error
}

// BuildCLI returns the root command and its subcommands.
func BuildCLI() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "celestium",
		Short: "Translunar transfer synthesizer",
		Long: `Celestium computes the state of the Moon at a launch epoch and synthesizes
five translunar transfers (fast, balanced, fuel optimized, Hohmann and free return)
with their Δv budget, transit time and propellant mass for a launch vehicle.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "configuration file (default $"+celestium.ConfigEnv+"/conf.toml)")
	flags.String("ephemeris", celestium.SourceMeeus, "ephemeris source: meeus, horizons or circular")
	flags.Duration("timeout", celestium.DefaultLookupTimeout, "ephemeris lookup timeout")
	flags.BoolVar(&a.trace, "trace", false, "write the trace spans to stderr")
	flags.BoolVar(&a.verbose, "verbose", false, "log the loaded configuration")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write the metrics to this file in the Prometheus text format")

	root.AddCommand(a.stateCmd(), a.planCmd(), a.vehiclesCmd(), a.exportCmd())
	for _, cmd := range root.Commands() {
		if cmd.RunE != nil {
			cmd.RunE = a.withTeardown(cmd.RunE)
		}
	}
	return root
}

// withTeardown flushes the spans and the metrics whether or not the command failed.
func (a *app) withTeardown(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		return errors.Join(err, a.teardown(cmd, args))
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	a.logger = log.With(log.NewLogfmtLogger(log.NewSyncWriter(cmd.ErrOrStderr())), "ts", log.DefaultTimestampUTC)
	v, err := celestium.NewViper(a.configFile)
	if err != nil {
		return err
	}
	for key, name := range map[string]string{"ephemeris.source": "ephemeris", "ephemeris.timeout": "timeout"} {
		// Flags only override the configuration when set.
		if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
			if err := v.BindPFlag(key, flag); err != nil {
				return err
			}
		}
	}
	if a.conf, err = celestium.LoadConfig(v); err != nil {
		return err
	}
	if a.vehicles, err = a.conf.Registry(); err != nil {
		return err
	}
	eph, err := a.conf.Ephemeris()
	if err != nil {
		return err
	}
	a.registry = prometheus.NewRegistry()
	metrics, err := celestium.NewMetrics(a.registry)
	if err != nil {
		return err
	}
	if a.trace {
		if a.shutdown, err = celestium.InitTracing(cmd.Context(), cmd.ErrOrStderr()); err != nil {
			return err
		}
	}
	resolver := celestium.NewResolver(eph, a.conf.EphemerisTimeout, a.logger, metrics)
	a.planner = celestium.NewPlanner(resolver, a.logger, metrics)
	if a.verbose {
		a.logger.Log("level", "debug", "subsys", "cli", "config", v.ConfigFileUsed(), "ephemeris", eph.Name(), "timeout", a.conf.EphemerisTimeout, "vehicles", a.vehicles.Len())
	}
	return nil
}

func (a *app) teardown(cmd *cobra.Command, _ []string) error {
	if a.shutdown != nil {
		if err := a.shutdown(cmd.Context()); err != nil {
			return fmt.Errorf("flushing spans: %w", err)
		}
	}
	if a.metricsFile != "" {
		if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

func addEpochFlag(flags *pflag.FlagSet, epoch *string) {
	flags.StringVarP(epoch, "epoch", "e", "now", "launch epoch: RFC3339, \""+dateFormat+"\", a date or a Julian date")
}

func (a *app) stateCmd() *cobra.Command {
	var epoch string
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the state of the Moon at the epoch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dt, err := parseEpoch(epoch)
			if err != nil {
				return err
			}
			st := a.planner.State(cmd.Context(), dt)
			writeState(cmd.OutOrStdout(), st)
			return nil
		},
	}
	addEpochFlag(cmd.Flags(), &epoch)
	return cmd
}

func (a *app) planCmd() *cobra.Command {
	var epoch, vehicle, format string
	var paths bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Synthesize the transfers of a vehicle at the epoch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := a.plan(cmd.Context(), epoch, vehicle)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "table":
				writeState(out, plan.State)
				return writePlanTable(out, plan)
			case "yaml":
				return celestium.WriteYAML(out, plan, paths)
			case "csv":
				return celestium.WriteCSV(out, plan)
			default:
				return fmt.Errorf("unknown format '%s'", format)
			}
		},
	}
	addEpochFlag(cmd.Flags(), &epoch)
	cmd.Flags().StringVarP(&vehicle, "vehicle", "v", celestium.Starship.Name, "launch vehicle name")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, yaml or csv")
	cmd.Flags().BoolVar(&paths, "paths", false, "include the path samples in the YAML output")
	return cmd
}

func (a *app) vehiclesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vehicles",
		Short: "List the launch vehicles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDRY MASS (kg)\tISP (s)\tFUEL CAPACITY (kg)\tDESCRIPTION")
			for _, v := range a.vehicles.Vehicles() {
				fmt.Fprintf(w, "%s\t%.0f\t%.0f\t%.0f\t%s\n", v.Name, v.DryMass, v.Isp, v.FuelCapacity, v.Description)
			}
			return w.Flush()
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var epoch, vehicle, dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the transfers to Cosmographia files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := a.plan(cmd.Context(), epoch, vehicle)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = a.conf.OutputDir
			}
			files, err := celestium.ExportCosmographia(dir, plan)
			if err != nil {
				return err
			}
			for _, fname := range files {
				fmt.Fprintln(cmd.OutOrStdout(), fname)
			}
			return nil
		},
	}
	addEpochFlag(cmd.Flags(), &epoch)
	cmd.Flags().StringVarP(&vehicle, "vehicle", "v", celestium.Starship.Name, "launch vehicle name")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "output directory (default output.directory)")
	return cmd
}

func (a *app) plan(ctx context.Context, epoch, vehicle string) (celestium.Plan, error) {
	dt, err := parseEpoch(epoch)
	if err != nil {
		return celestium.Plan{}, err
	}
	v, err := a.vehicles.Lookup(vehicle)
	if err != nil {
		return celestium.Plan{}, err
	}
	return a.planner.Plan(ctx, dt, v)
}

func writeState(w io.Writer, st celestium.CelestialState) {
	fmt.Fprintln(w, st)
	fmt.Fprintf(w, "declination %.2f° window %s\n", st.Declination, st.WindowStatus())
	if Δv, tof, err := celestium.HohmannTLI(st.Distance); err == nil {
		fmt.Fprintf(w, "theoretical Hohmann TLI from %.0f km: %.1f m/s in %.1f h\n", celestium.ParkingAltitude, Δv, tof.Hours())
	}
	if st.Fallback {
		fmt.Fprintf(w, "WARNING: circular orbit approximation in use (%s)\n", st.Err)
	}
}

func writePlanTable(w io.Writer, plan celestium.Plan) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "%s\n", plan.Vehicle)
	fmt.Fprintln(tw, "MODE\tNAME\tΔv (m/s)\tPENALTY (m/s)\tTIME\tFUEL (kg)\tCAPACITY\t")
	for _, mode := range celestium.Modes() {
		tr, ok := plan.Trajectories[mode]
		if !ok {
			continue
		}
		capacity := fmt.Sprintf("%.0f%%", 100*tr.FuelFraction)
		if tr.OverCapacity {
			capacity += " OVER"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%s\t%s\t%s\t\n", mode.Label(), tr.Name, tr.DeltaVText(), tr.Penalty, tr.TimeText(), tr.PropellantText(), capacity)
	}
	return tw.Flush()
}

// parseEpoch reads either a Julian date or a time.
func parseEpoch(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "now") {
		return time.Now().UTC(), nil
	}
	if jde, err := strconv.ParseFloat(s, 64); err == nil {
		if jde <= 0 {
			return time.Time{}, fmt.Errorf("invalid Julian date %f", jde)
		}
		return julian.JDToTime(jde), nil
	}
	for _, layout := range []string{time.RFC3339, dateFormat, "2006-01-02"} {
		if dt, err := time.Parse(layout, s); err == nil {
			return dt.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid epoch '%s'", s)
}
