package models

// VizFormatVersion is the schema version stamped into exported documents.
// The browser viewer rejects documents with a version it does not know.
const VizFormatVersion = "2.0"

// VizProperties carries the identity fields the viewer shows in tooltips.
type VizProperties struct {
	IP     string `json:"ip"`
	Model  string `json:"model"`
	Serial string `json:"serial"`
}

// VizModel is the viewer-facing projection of a single Device.
type VizModel struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"displayName"`
	Category    DeviceType     `json:"category"`
	Position    Position       `json:"position"`
	Tags        []string       `json:"tags"`
	Metadata    map[string]any `json:"metadata"`
	Properties  VizProperties  `json:"properties"`
}

// VizDocument is the secondary JSON projection consumed by the browser-based
// 3D visualization tool. It is a stateless 1:1 re-projection of a Topology:
// one model per device, one connection per connection.
type VizDocument struct {
	Version     string           `json:"version"`
	Models      []VizModel       `json:"models"`
	Connections []Connection     `json:"connections"`
	Metadata    TopologyMetadata `json:"metadata"`
}
