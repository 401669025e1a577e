package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/HerbHall/fortimap/internal/config"
	"github.com/HerbHall/fortimap/internal/fortigate"
	"github.com/HerbHall/fortimap/internal/probe"
	"github.com/HerbHall/fortimap/internal/topology"
	"github.com/HerbHall/fortimap/pkg/catalog"
	"github.com/HerbHall/fortimap/pkg/models"
)

// discoverFlags holds the discover subcommand's flag values.
type discoverFlags struct {
	configPath    *string
	host          *string
	port          *int
	token         *string
	username      *string
	password      *string
	noSSLVerify   *bool
	output        *string
	babylonOutput *string
	ping          *bool
}

func newDiscoverFlags(fs *flag.FlagSet) *discoverFlags {
	return &discoverFlags{
		configPath:    fs.String("config", "", "path to configuration file"),
		host:          fs.String("host", "", "FortiGate address"),
		port:          fs.Int("port", 0, "FortiGate HTTPS port"),
		token:         fs.String("token", "", "REST API token"),
		username:      fs.String("username", "", "admin username"),
		password:      fs.String("password", "", "admin password"),
		noSSLVerify:   fs.Bool("no-ssl-verify", false, "skip TLS certificate verification"),
		output:        fs.String("output", "", "topology output file"),
		babylonOutput: fs.String("babylon-output", "", "visualization output file"),
		ping:          fs.Bool("ping", false, "ICMP-probe the appliance before discovery"),
	}
}

func runDiscover(args []string) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	df := newDiscoverFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*df.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	applyConnectionFlags(fs, cfg, df)
	if *df.output != "" {
		cfg.Output.TopologyFile = *df.output
	}
	if *df.babylonOutput != "" {
		cfg.Output.BabylonFile = *df.babylonOutput
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	client := fortigate.NewClient(cfg.Fortigate, logger)

	if *df.ping || cfg.Probe.Enabled {
		reportPing(ctx, cfg.Probe, client.Host())
	}

	if err := client.Login(ctx); err != nil {
		if errors.Is(err, fortigate.ErrConnectivity) {
			fmt.Fprintf(os.Stderr, "cannot reach FortiGate at %s: %v\n", client.Host(), err)
		} else {
			fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		}
		os.Exit(1)
	}

	t := topology.NewBuilder(client, logger).Build(ctx)

	if err := writeJSONFile(cfg.Output.TopologyFile, t); err != nil {
		fmt.Fprintf(os.Stderr, "write topology: %v\n", err)
		os.Exit(1)
	}

	doc := topology.ExportViz(t)
	appearance, err := loadAppearance(cfg.CatalogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalog: %v\n", err)
		os.Exit(1)
	}
	appearance.Decorate(doc)
	if err := writeJSONFile(cfg.Output.BabylonFile, doc); err != nil {
		fmt.Fprintf(os.Stderr, "write visualization: %v\n", err)
		os.Exit(1)
	}

	printSummary(t, cfg.Output.TopologyFile, cfg.Output.BabylonFile)
}

// applyConnectionFlags overlays explicitly set connection flags on the
// loaded configuration. fs.Visit only reports flags the user passed, so
// zero values in the config file survive unset flags.
func applyConnectionFlags(fs *flag.FlagSet, cfg *config.Config, df *discoverFlags) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Fortigate.Host = *df.host
		case "port":
			cfg.Fortigate.Port = *df.port
		case "token":
			cfg.Fortigate.APIToken = *df.token
		case "username":
			cfg.Fortigate.Username = *df.username
		case "password":
			cfg.Fortigate.Password = *df.password
		case "no-ssl-verify":
			// -no-ssl-verify=false explicitly re-enables verification.
			cfg.Fortigate.VerifySSL = !*df.noSSLVerify
		}
	})
}

func loadAppearance(path string) (*catalog.Appearance, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(path)
}

func reportPing(ctx context.Context, cfg probe.Config, target string) {
	result, err := probe.New(cfg).Ping(ctx, target)
	if err != nil {
		fmt.Printf("Probe %s: error (%v)\n", target, err)
		return
	}
	if result.Reachable {
		fmt.Printf("Probe %s: reachable, %.1f ms, %.0f%% loss\n",
			target, result.LatencyMs, result.PacketLoss*100)
	} else {
		fmt.Printf("Probe %s: unreachable\n", target)
	}
}

func writeJSONFile(path string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(body, '\n'), 0o644)
}

func printSummary(t *models.Topology, topologyFile, babylonFile string) {
	fmt.Printf("Discovered %d devices, %d connections\n", len(t.Devices), len(t.Connections))
	for _, typ := range []models.DeviceType{
		models.DeviceTypeFirewall,
		models.DeviceTypeInterface,
		models.DeviceTypeSwitch,
		models.DeviceTypeAccessPoint,
		models.DeviceTypeEndpoint,
	} {
		if n, ok := t.Metadata.DeviceCounts[typ]; ok {
			fmt.Printf("  %-13s %d\n", string(typ)+":", n)
		}
	}
	fmt.Printf("Topology written to %s\n", topologyFile)
	fmt.Printf("Visualization written to %s\n", babylonFile)
}
