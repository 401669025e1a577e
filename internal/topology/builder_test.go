package topology_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/HerbHall/fortimap/internal/topology"
	"github.com/HerbHall/fortimap/pkg/models"
	"go.uber.org/zap"
)

// fakeClient satisfies topology.Client with canned records. Zero-value
// fields behave like failed endpoints (empty results), matching the real
// client's degradation contract.
type fakeClient struct {
	status      map[string]any
	info        map[string]any
	interfaces  []map[string]any
	switches    []map[string]any
	aps         []map[string]any
	userDevices []map[string]any
}

func (f *fakeClient) SystemStatus(context.Context) map[string]any {
	if f.status == nil {
		return map[string]any{}
	}
	return f.status
}

func (f *fakeClient) SystemInfo(context.Context) map[string]any {
	if f.info == nil {
		return map[string]any{}
	}
	return f.info
}

func (f *fakeClient) Interfaces(context.Context) []map[string]any      { return f.interfaces }
func (f *fakeClient) ManagedSwitches(context.Context) []map[string]any { return f.switches }
func (f *fakeClient) AccessPoints(context.Context) []map[string]any    { return f.aps }
func (f *fakeClient) UserDevices(context.Context) []map[string]any     { return f.userDevices }
func (f *fakeClient) Host() string                                     { return "192.0.2.1" }

func newBuilder(c topology.Client) *topology.Builder {
	return topology.NewBuilder(c, zap.NewNop())
}

func deviceByID(t *testing.T, topo *models.Topology, id string) *models.Device {
	t.Helper()
	for i := range topo.Devices {
		if topo.Devices[i].ID == id {
			return &topo.Devices[i]
		}
	}
	t.Fatalf("device %q not found", id)
	return nil
}

func TestBuild_AllEndpointsFailed(t *testing.T) {
	topo := newBuilder(&fakeClient{
		status: map[string]any{
			"serial":  "FG61F123",
			"version": "v7.6.4",
			"results": map[string]any{"hostname": "edge-fw"},
		},
	}).Build(context.Background())

	if len(topo.Devices) != 1 {
		t.Fatalf("devices = %d, want 1 (root only)", len(topo.Devices))
	}
	if len(topo.Connections) != 0 {
		t.Errorf("connections = %d, want 0", len(topo.Connections))
	}
	if topo.Devices[0].ID != topology.RootDeviceID {
		t.Errorf("root ID = %q, want %q", topo.Devices[0].ID, topology.RootDeviceID)
	}
	if topo.Devices[0].Name != "edge-fw" {
		t.Errorf("root Name = %q, want %q", topo.Devices[0].Name, "edge-fw")
	}
}

func TestBuild_RootFallbacks(t *testing.T) {
	t.Run("all sources empty", func(t *testing.T) {
		topo := newBuilder(&fakeClient{}).Build(context.Background())

		root := deviceByID(t, topo, topology.RootDeviceID)
		if root.Name != "FortiGate" {
			t.Errorf("Name = %q, want %q", root.Name, "FortiGate")
		}
		if root.Model != "Unknown" {
			t.Errorf("Model = %q, want %q", root.Model, "Unknown")
		}
		if root.Serial != "Unknown" {
			t.Errorf("Serial = %q, want %q", root.Serial, "Unknown")
		}
		if root.Version != "Unknown" {
			t.Errorf("Version = %q, want %q", root.Version, "Unknown")
		}
		if got := root.Metadata["status"]; got != "unknown" {
			t.Errorf("metadata.status = %v, want %q", got, "unknown")
		}
		if root.IP != "192.0.2.1" {
			t.Errorf("IP = %q, want client host", root.IP)
		}
	})

	t.Run("model falls back to system info platform_str", func(t *testing.T) {
		topo := newBuilder(&fakeClient{
			info: map[string]any{
				"results": map[string]any{"platform_str": "FortiGate-61F"},
			},
		}).Build(context.Background())

		root := deviceByID(t, topo, topology.RootDeviceID)
		if root.Model != "FortiGate-61F" {
			t.Errorf("Model = %q, want %q", root.Model, "FortiGate-61F")
		}
	})

	t.Run("top-level fields win over results", func(t *testing.T) {
		topo := newBuilder(&fakeClient{
			status: map[string]any{
				"serial":  "TOP-SERIAL",
				"results": map[string]any{"serial": "NESTED-SERIAL"},
			},
		}).Build(context.Background())

		root := deviceByID(t, topo, topology.RootDeviceID)
		if root.Serial != "TOP-SERIAL" {
			t.Errorf("Serial = %q, want %q", root.Serial, "TOP-SERIAL")
		}
	})

	t.Run("system info results as list", func(t *testing.T) {
		topo := newBuilder(&fakeClient{
			info: map[string]any{
				"results": []any{map[string]any{"platform_str": "FortiGate-101F"}},
			},
		}).Build(context.Background())

		root := deviceByID(t, topo, topology.RootDeviceID)
		if root.Model != "FortiGate-101F" {
			t.Errorf("Model = %q, want %q", root.Model, "FortiGate-101F")
		}
	})

	t.Run("status ignores nested results", func(t *testing.T) {
		topo := newBuilder(&fakeClient{
			status: map[string]any{
				"results": map[string]any{"status": "success"},
			},
		}).Build(context.Background())

		root := deviceByID(t, topo, topology.RootDeviceID)
		if got := root.Metadata["status"]; got != "unknown" {
			t.Errorf("metadata.status = %v, want %q when only nested", got, "unknown")
		}

		topo = newBuilder(&fakeClient{
			status: map[string]any{"status": "success"},
		}).Build(context.Background())
		root = deviceByID(t, topo, topology.RootDeviceID)
		if got := root.Metadata["status"]; got != "success" {
			t.Errorf("metadata.status = %v, want top-level %q", got, "success")
		}
	})

	t.Run("position is origin", func(t *testing.T) {
		topo := newBuilder(&fakeClient{}).Build(context.Background())
		root := deviceByID(t, topo, topology.RootDeviceID)
		if root.Position != (models.Position{}) {
			t.Errorf("Position = %+v, want origin", root.Position)
		}
	})
}

func TestBuild_InterfaceStatusMatchIsCaseSensitive(t *testing.T) {
	topo := newBuilder(&fakeClient{
		interfaces: []map[string]any{
			{"name": "wan1", "status": "up", "speed": float64(1000)},
			{"name": "wan2", "status": "down"},
			{"name": "lan1", "status": "UP"},
			{"name": "lan2", "status": "Up"},
			{"name": "mgmt"},
		},
	}).Build(context.Background())

	// Only wan1 qualifies: one interface device plus the root.
	if len(topo.Devices) != 2 {
		t.Fatalf("devices = %d, want 2", len(topo.Devices))
	}
	if len(topo.Connections) != 1 {
		t.Fatalf("connections = %d, want 1", len(topo.Connections))
	}

	iface := deviceByID(t, topo, "interface_wan1")
	if iface.Type != models.DeviceTypeInterface {
		t.Errorf("Type = %q, want interface", iface.Type)
	}
	if iface.Position != (models.Position{X: 2}) {
		t.Errorf("Position = %+v, want {2 0 0}", iface.Position)
	}

	conn := topo.Connections[0]
	if conn.Source != topology.RootDeviceID || conn.Target != "interface_wan1" {
		t.Errorf("connection = %s -> %s, want root -> interface_wan1", conn.Source, conn.Target)
	}
	if conn.Type != models.ConnectionTypeNetwork {
		t.Errorf("connection type = %q, want network", conn.Type)
	}
	if conn.Bandwidth != 1000 {
		t.Errorf("bandwidth = %d, want interface speed 1000", conn.Bandwidth)
	}

	if got := topo.Metadata.DeviceCounts[models.DeviceTypeInterface]; got != 1 {
		t.Errorf("device_counts.interface = %d, want post-filter up count 1", got)
	}
}

func TestBuild_SwitchCapAndRawCount(t *testing.T) {
	var switches []map[string]any
	for i := 0; i < 25; i++ {
		switches = append(switches, map[string]any{
			"name":   fmt.Sprintf("sw-%02d", i),
			"serial": fmt.Sprintf("FSW%02d", i),
		})
	}

	topo := newBuilder(&fakeClient{switches: switches}).Build(context.Background())

	got := topo.CountByType()[models.DeviceTypeSwitch]
	if got != 10 {
		t.Errorf("switch devices = %d, want cap of 10", got)
	}
	// The count metadata keeps the raw pre-truncation length.
	if raw := topo.Metadata.DeviceCounts[models.DeviceTypeSwitch]; raw != 25 {
		t.Errorf("device_counts.switch = %d, want raw length 25", raw)
	}

	for _, conn := range topo.Connections {
		if conn.Bandwidth != 1000 {
			t.Errorf("switch connection bandwidth = %d, want constant 1000", conn.Bandwidth)
		}
		if conn.Type != models.ConnectionTypeNetwork {
			t.Errorf("switch connection type = %q, want network", conn.Type)
		}
	}

	// Grid layout: x fixed at -3, z spread by index*2.
	sw3 := deviceByID(t, topo, "switch_sw-03")
	if sw3.Position != (models.Position{X: -3, Z: 6}) {
		t.Errorf("switch position = %+v, want {-3 0 6}", sw3.Position)
	}
}

func TestBuild_AccessPoints(t *testing.T) {
	var aps []map[string]any
	for i := 0; i < 22; i++ {
		aps = append(aps, map[string]any{"name": fmt.Sprintf("ap-%02d", i)})
	}
	aps[0]["radio_1"] = map[string]any{"max_bandwidth": float64(867)}

	topo := newBuilder(&fakeClient{aps: aps}).Build(context.Background())

	if got := topo.CountByType()[models.DeviceTypeAccessPoint]; got != 20 {
		t.Errorf("ap devices = %d, want cap of 20", got)
	}
	if raw := topo.Metadata.DeviceCounts[models.DeviceTypeAccessPoint]; raw != 22 {
		t.Errorf("device_counts.access_point = %d, want raw length 22", raw)
	}

	if topo.Connections[0].Type != models.ConnectionTypeWifi {
		t.Errorf("ap connection type = %q, want wifi", topo.Connections[0].Type)
	}
	if topo.Connections[0].Bandwidth != 867 {
		t.Errorf("ap bandwidth = %d, want radio_1.max_bandwidth 867", topo.Connections[0].Bandwidth)
	}
	// No radio data defaults to zero.
	if topo.Connections[1].Bandwidth != 0 {
		t.Errorf("ap bandwidth = %d, want default 0", topo.Connections[1].Bandwidth)
	}

	ap2 := deviceByID(t, topo, "ap_ap-02")
	if ap2.Position != (models.Position{X: 3, Z: 3}) {
		t.Errorf("ap position = %+v, want {3 0 3}", ap2.Position)
	}
}

func TestBuild_EndpointIDFromMAC(t *testing.T) {
	topo := newBuilder(&fakeClient{
		userDevices: []map[string]any{
			{"mac": "aa:bb:cc:dd:ee:ff", "hostname": "laptop", "ip": "10.0.0.9"},
			{"hostname": "ghost"}, // no MAC, falls back to index
		},
	}).Build(context.Background())

	laptop := deviceByID(t, topo, "device_aa_bb_cc_dd_ee_ff")
	if laptop.Name != "laptop" {
		t.Errorf("Name = %q, want %q", laptop.Name, "laptop")
	}
	if laptop.MAC != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("MAC = %q, want original colon form", laptop.MAC)
	}

	ghost := deviceByID(t, topo, "device_device_1")
	if ghost.Name != "ghost" {
		t.Errorf("fallback Name = %q, want %q", ghost.Name, "ghost")
	}

	for _, conn := range topo.Connections {
		if conn.Type != models.ConnectionTypeEndpoint {
			t.Errorf("connection type = %q, want endpoint", conn.Type)
		}
		if conn.Bandwidth != 100 {
			t.Errorf("endpoint bandwidth = %d, want constant 100", conn.Bandwidth)
		}
	}
}

func TestBuild_EndpointEmptyMACKeepsBareID(t *testing.T) {
	// The index fallback is for a missing mac key only; a present but
	// empty mac yields the bare prefix id.
	topo := newBuilder(&fakeClient{
		userDevices: []map[string]any{
			{"mac": "", "hostname": "blank"},
		},
	}).Build(context.Background())

	blank := deviceByID(t, topo, "device_")
	if blank.Name != "blank" {
		t.Errorf("Name = %q, want %q", blank.Name, "blank")
	}
	if blank.MAC != "" {
		t.Errorf("MAC = %q, want empty", blank.MAC)
	}
}

func TestBuild_EndpointCap(t *testing.T) {
	var devices []map[string]any
	for i := 0; i < 60; i++ {
		devices = append(devices, map[string]any{
			"mac": fmt.Sprintf("00:11:22:33:44:%02x", i),
		})
	}

	topo := newBuilder(&fakeClient{userDevices: devices}).Build(context.Background())

	if got := topo.CountByType()[models.DeviceTypeEndpoint]; got != 50 {
		t.Errorf("endpoint devices = %d, want cap of 50", got)
	}
	if raw := topo.Metadata.DeviceCounts[models.DeviceTypeEndpoint]; raw != 60 {
		t.Errorf("device_counts.endpoint = %d, want raw length 60", raw)
	}

	ep := deviceByID(t, topo, "device_00_11_22_33_44_04")
	if ep.Position != (models.Position{X: 5, Z: 2}) {
		t.Errorf("endpoint position = %+v, want {5 0 2}", ep.Position)
	}
}

func TestBuild_LastUpdatedUsesClock(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	topo := newBuilder(&fakeClient{}).
		WithClock(func() time.Time { return fixed }).
		Build(context.Background())

	if topo.Metadata.LastUpdated != "2026-03-14T09:26:53Z" {
		t.Errorf("last_updated = %q, want fixed RFC 3339 stamp", topo.Metadata.LastUpdated)
	}
}

func TestBuild_MetadataCarriesRootInfo(t *testing.T) {
	topo := newBuilder(&fakeClient{
		status: map[string]any{"results": map[string]any{"hostname": "edge-fw"}},
	}).Build(context.Background())

	if topo.Metadata.FortigateInfo == nil {
		t.Fatal("metadata.fortigate_info is nil")
	}
	if topo.Metadata.FortigateInfo.Name != "edge-fw" {
		t.Errorf("fortigate_info.name = %q, want %q", topo.Metadata.FortigateInfo.Name, "edge-fw")
	}
}

func TestBuild_ConnectionsAreNotDeduplicated(t *testing.T) {
	// Two switches with the same name produce two devices with the same ID
	// and two connections; the builder never merges.
	topo := newBuilder(&fakeClient{
		switches: []map[string]any{
			{"name": "core"},
			{"name": "core"},
		},
	}).Build(context.Background())

	if got := topo.CountByType()[models.DeviceTypeSwitch]; got != 2 {
		t.Errorf("switch devices = %d, want 2", got)
	}
	if len(topo.Connections) != 2 {
		t.Errorf("connections = %d, want 2", len(topo.Connections))
	}
}
