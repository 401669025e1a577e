package models

// DeviceType categorizes an entity discovered on the appliance.
type DeviceType string

const (
	DeviceTypeFirewall    DeviceType = "firewall"
	DeviceTypeSwitch      DeviceType = "switch"
	DeviceTypeAccessPoint DeviceType = "access_point"
	DeviceTypeEndpoint    DeviceType = "endpoint"
	DeviceTypeInterface   DeviceType = "interface"
)

// ConnectionType categorizes a link between two devices.
type ConnectionType string

const (
	ConnectionTypeNetwork  ConnectionType = "network"
	ConnectionTypeWifi     ConnectionType = "wifi"
	ConnectionTypeEndpoint ConnectionType = "endpoint"
)

// Position is a static 3D layout hint for the visualization tool.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Device represents one entity discovered during a topology build.
// Devices are rebuilt from scratch on every run; there is no update or
// delete lifecycle.
type Device struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        DeviceType     `json:"type"`
	Model       string         `json:"model,omitempty"`
	Serial      string         `json:"serial,omitempty"`
	Version     string         `json:"version,omitempty"`
	IP          string         `json:"ip"`
	Subnet      string         `json:"subnet,omitempty"`
	MAC         string         `json:"mac,omitempty"`
	ConnectedTo string         `json:"connected_to,omitempty"`
	Position    Position       `json:"position"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Connection is a directed link between two devices. Connections are not
// deduplicated; multiple links between the same pair are legal.
type Connection struct {
	Source    string         `json:"source"`
	Target    string         `json:"target"`
	Type      ConnectionType `json:"type"`
	Bandwidth int            `json:"bandwidth"`
}

// TopologyMetadata describes a single build run.
type TopologyMetadata struct {
	LastUpdated string             `json:"last_updated"`
	// DeviceCounts reflects the raw fetched lengths for switches, access
	// points, and endpoints, even when the device list itself was capped.
	// Preserved from the original collector; consumers depend on it.
	DeviceCounts  map[DeviceType]int `json:"device_counts,omitempty"`
	FortigateInfo *Device            `json:"fortigate_info,omitempty"`
}

// Topology is the full device/connection graph produced by one build run.
// Connection endpoints are not validated against the device list.
type Topology struct {
	Devices     []Device         `json:"devices"`
	Connections []Connection     `json:"connections"`
	Metadata    TopologyMetadata `json:"metadata"`
}

// CountByType tallies devices in the list by type. Unlike
// Metadata.DeviceCounts this reflects the devices actually present.
func (t *Topology) CountByType() map[DeviceType]int {
	counts := make(map[DeviceType]int, 5)
	for i := range t.Devices {
		counts[t.Devices[i].Type]++
	}
	return counts
}
