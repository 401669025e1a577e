// Package topology assembles the device/connection graph from appliance
// REST data. One Build call performs a full batch pass: fetch each endpoint
// in sequence, shape the records into devices rooted at the appliance, and
// stamp run metadata. Nothing is persisted or merged between runs.
package topology

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HerbHall/fortimap/pkg/models"
	"go.uber.org/zap"
)

// RootDeviceID is the fixed sentinel ID for the appliance itself. Downstream
// consumers key off this constant.
const RootDeviceID = "fortigate_main"

// Caps on how many entities of each kind one build admits. Longer lists are
// silently truncated; the raw lengths still show up in device_counts.
const (
	maxSwitches     = 10
	maxAccessPoints = 20
	maxEndpoints    = 50
)

// Fixed link bandwidths. Switch uplinks and endpoint connections always
// report these values regardless of what the appliance knows.
const (
	switchBandwidth   = 1000
	endpointBandwidth = 100
)

// Client is the capability surface the builder needs from an appliance API
// client. Every method degrades to an empty result on failure; the builder
// never sees an error mid-run.
type Client interface {
	SystemStatus(ctx context.Context) map[string]any
	SystemInfo(ctx context.Context) map[string]any
	Interfaces(ctx context.Context) []map[string]any
	ManagedSwitches(ctx context.Context) []map[string]any
	AccessPoints(ctx context.Context) []map[string]any
	UserDevices(ctx context.Context) []map[string]any
	Host() string
}

// Builder performs topology builds against a single appliance.
type Builder struct {
	client Client
	logger *zap.Logger
	now    func() time.Time
}

// NewBuilder creates a Builder. The wall clock is injectable for tests via
// WithClock.
func NewBuilder(client Client, logger *zap.Logger) *Builder {
	return &Builder{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the builder's clock and returns the builder.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// groupSpec parameterizes one fetch-cap-map-connect pass. Switches, access
// points, and endpoints share this shape and differ only in these knobs.
type groupSpec struct {
	connType   models.ConnectionType
	limit      int
	positionAt func(i int) models.Position
	bandwidth  func(rec map[string]any) int
	mapDevice  func(rec map[string]any, i int) models.Device
}

// Build runs one full aggregation pass. Endpoint failures have already been
// degraded to empty lists by the client, so a build always succeeds; the
// worst case is a topology containing only the root device.
func (b *Builder) Build(ctx context.Context) *models.Topology {
	t := &models.Topology{
		Devices:     []models.Device{},
		Connections: []models.Connection{},
	}

	root := b.buildRoot(ctx)
	t.Devices = append(t.Devices, root)
	rootInfo := root
	t.Metadata.FortigateInfo = &rootInfo

	upInterfaces := b.addInterfaces(ctx, t)

	switches := b.client.ManagedSwitches(ctx)
	b.addGroup(t, switches, groupSpec{
		connType:   models.ConnectionTypeNetwork,
		limit:      maxSwitches,
		positionAt: func(i int) models.Position { return models.Position{X: -3, Z: float64(i) * 2} },
		bandwidth:  func(map[string]any) int { return switchBandwidth },
		mapDevice:  mapSwitch,
	})

	accessPoints := b.client.AccessPoints(ctx)
	b.addGroup(t, accessPoints, groupSpec{
		connType:   models.ConnectionTypeWifi,
		limit:      maxAccessPoints,
		positionAt: func(i int) models.Position { return models.Position{X: 3, Z: float64(i) * 1.5} },
		bandwidth: func(rec map[string]any) int {
			return intOr(mapField(rec, "radio_1"), "max_bandwidth", 0)
		},
		mapDevice: mapAccessPoint,
	})

	userDevices := b.client.UserDevices(ctx)
	b.addGroup(t, userDevices, groupSpec{
		connType:   models.ConnectionTypeEndpoint,
		limit:      maxEndpoints,
		positionAt: func(i int) models.Position { return models.Position{X: 5, Z: float64(i) * 0.5} },
		bandwidth:  func(map[string]any) int { return endpointBandwidth },
		mapDevice:  mapEndpoint,
	})

	// Counts for capped categories deliberately reflect the raw fetched
	// lengths, not the truncated device lists. Consumers of the original
	// collector rely on this mismatch.
	t.Metadata.DeviceCounts = map[models.DeviceType]int{
		models.DeviceTypeFirewall:    1,
		models.DeviceTypeSwitch:      len(switches),
		models.DeviceTypeAccessPoint: len(accessPoints),
		models.DeviceTypeEndpoint:    len(userDevices),
		models.DeviceTypeInterface:   upInterfaces,
	}
	t.Metadata.LastUpdated = b.now().Format(time.RFC3339)

	b.logger.Info("topology built",
		zap.Int("devices", len(t.Devices)),
		zap.Int("connections", len(t.Connections)),
	)
	return t
}

// buildRoot constructs the appliance device from the system status and
// system info documents. Identity fields prefer the top-level envelope,
// then the nested results object, then the literal "Unknown" defaults that
// downstream consumers key off.
func (b *Builder) buildRoot(ctx context.Context) models.Device {
	status := b.client.SystemStatus(ctx)
	statusResults := firstResult(status["results"])

	info := b.client.SystemInfo(ctx)
	infoResults := firstResult(info["results"])

	model := stringOr(status, "model", stringField(statusResults, "model"))
	if model == "" {
		model = stringOr(infoResults, "platform_str", "Unknown")
	}

	hostname := stringOr(statusResults, "hostname", stringField(status, "hostname"))
	if hostname == "" {
		hostname = "FortiGate"
	}

	return models.Device{
		ID:      RootDeviceID,
		Name:    hostname,
		Type:    models.DeviceTypeFirewall,
		Model:   model,
		Serial:  stringOr(status, "serial", stringOr(statusResults, "serial", "Unknown")),
		Version: stringOr(status, "version", stringOr(statusResults, "version", "Unknown")),
		IP:      b.client.Host(),
		Metadata: map[string]any{
			// Only the top-level status field is consulted; the nested
			// results object is not a fallback tier for this one.
			"status":       stringOr(status, "status", "unknown"),
			"cpu_usage":    intOr(statusResults, "cpu_usage", 0),
			"memory_usage": intOr(statusResults, "mem_usage", 0),
			"uptime":       intOr(statusResults, "uptime", 0),
		},
	}
}

// addInterfaces adds one device per interface whose status is exactly "up"
// (the match is case-sensitive; "UP" is excluded) and returns the up count.
// All interface devices sit at the same fixed position.
func (b *Builder) addInterfaces(ctx context.Context, t *models.Topology) int {
	up := 0
	for _, rec := range b.client.Interfaces(ctx) {
		if stringField(rec, "status") != "up" {
			continue
		}
		up++

		d := models.Device{
			ID:          "interface_" + stringOr(rec, "name", "unknown"),
			Name:        stringOr(rec, "name", "Unknown Interface"),
			Type:        models.DeviceTypeInterface,
			IP:          stringField(rec, "ip"),
			Subnet:      stringField(rec, "subnet"),
			ConnectedTo: RootDeviceID,
			Position:    models.Position{X: 2},
			Metadata: map[string]any{
				"mac":   stringField(rec, "macaddr"),
				"mtu":   intOr(rec, "mtu", 1500),
				"speed": intOr(rec, "speed", 0),
			},
		}
		t.Devices = append(t.Devices, d)
		t.Connections = append(t.Connections, models.Connection{
			Source:    RootDeviceID,
			Target:    d.ID,
			Type:      models.ConnectionTypeNetwork,
			Bandwidth: intOr(rec, "speed", 0),
		})
	}
	return up
}

// addGroup is the shared fetch-list, cap, map, connect pass for switches,
// access points, and endpoints. Truncation past spec.limit is silent.
func (b *Builder) addGroup(t *models.Topology, records []map[string]any, spec groupSpec) {
	if len(records) > spec.limit {
		records = records[:spec.limit]
	}
	for i, rec := range records {
		d := spec.mapDevice(rec, i)
		d.ConnectedTo = RootDeviceID
		d.Position = spec.positionAt(i)
		t.Devices = append(t.Devices, d)
		t.Connections = append(t.Connections, models.Connection{
			Source:    RootDeviceID,
			Target:    d.ID,
			Type:      spec.connType,
			Bandwidth: spec.bandwidth(rec),
		})
	}
}

func mapSwitch(rec map[string]any, i int) models.Device {
	return models.Device{
		ID:     "switch_" + stringOr(rec, "name", fmt.Sprintf("switch_%d", i)),
		Name:   stringOr(rec, "name", fmt.Sprintf("Switch %d", i)),
		Type:   models.DeviceTypeSwitch,
		Model:  stringOr(rec, "model", "Unknown"),
		Serial: stringOr(rec, "serial", "Unknown"),
		IP:     stringField(rec, "ip"),
		Metadata: map[string]any{
			"status":   stringOr(rec, "status", "unknown"),
			"ports":    intOr(rec, "num_ports", 0),
			"firmware": stringOr(rec, "sw_version", "Unknown"),
		},
	}
}

func mapAccessPoint(rec map[string]any, i int) models.Device {
	return models.Device{
		ID:     "ap_" + stringOr(rec, "name", fmt.Sprintf("ap_%d", i)),
		Name:   stringOr(rec, "name", fmt.Sprintf("AP %d", i)),
		Type:   models.DeviceTypeAccessPoint,
		Model:  stringOr(rec, "model", "Unknown"),
		Serial: stringOr(rec, "serial", "Unknown"),
		IP:     stringField(rec, "ip"),
		Metadata: map[string]any{
			"status":       stringOr(rec, "status", "unknown"),
			"wifi_clients": intOr(rec, "wifi_clients", 0),
			"radio_1":      mapField(rec, "radio_1"),
			"radio_2":      mapField(rec, "radio_2"),
		},
	}
}

func mapEndpoint(rec map[string]any, i int) models.Device {
	mac := stringField(rec, "mac")
	// The index fallback applies only when the mac key is absent; a
	// record carrying an empty mac keeps the bare "device_" id.
	idPart := mac
	if _, present := rec["mac"]; !present {
		idPart = fmt.Sprintf("device_%d", i)
	}
	return models.Device{
		ID:   "device_" + strings.ReplaceAll(idPart, ":", "_"),
		Name: stringOr(rec, "hostname", fmt.Sprintf("Device %d", i)),
		Type: models.DeviceTypeEndpoint,
		IP:   stringField(rec, "ip"),
		MAC:  mac,
		Metadata: map[string]any{
			"os":          stringOr(rec, "os_type", "Unknown"),
			"user":        stringOr(rec, "user", "Unknown"),
			"last_seen":   stringField(rec, "last_seen"),
			"device_type": stringOr(rec, "devtype", "Unknown"),
		},
	}
}
