package snapshot

import (
	"fmt"

	"github.com/HerbHall/fortimap/pkg/models"
)

// Diff describes what changed between two topology snapshots. Devices are
// matched by ID. Connections are matched as a multiset of their full value,
// since the aggregator never deduplicates parallel links.
type Diff struct {
	AddedDevices       []string            `json:"added_devices"`
	RemovedDevices     []string            `json:"removed_devices"`
	AddedConnections   []models.Connection `json:"added_connections"`
	RemovedConnections []models.Connection `json:"removed_connections"`
}

// Empty reports whether the two snapshots describe the same graph.
func (d *Diff) Empty() bool {
	return len(d.AddedDevices) == 0 && len(d.RemovedDevices) == 0 &&
		len(d.AddedConnections) == 0 && len(d.RemovedConnections) == 0
}

// Compute diffs two successive topology snapshots. Order within each result
// list follows the appearance order in the respective topology.
func Compute(prev, next *models.Topology) *Diff {
	d := &Diff{
		AddedDevices:       []string{},
		RemovedDevices:     []string{},
		AddedConnections:   []models.Connection{},
		RemovedConnections: []models.Connection{},
	}

	prevIDs := make(map[string]bool, len(prev.Devices))
	for i := range prev.Devices {
		prevIDs[prev.Devices[i].ID] = true
	}
	nextIDs := make(map[string]bool, len(next.Devices))
	for i := range next.Devices {
		nextIDs[next.Devices[i].ID] = true
	}

	for i := range next.Devices {
		if id := next.Devices[i].ID; !prevIDs[id] {
			d.AddedDevices = append(d.AddedDevices, id)
		}
	}
	for i := range prev.Devices {
		if id := prev.Devices[i].ID; !nextIDs[id] {
			d.RemovedDevices = append(d.RemovedDevices, id)
		}
	}

	prevConns := connMultiset(prev.Connections)
	for _, c := range next.Connections {
		key := connKey(c)
		if prevConns[key] > 0 {
			prevConns[key]--
			continue
		}
		d.AddedConnections = append(d.AddedConnections, c)
	}

	nextConns := connMultiset(next.Connections)
	for _, c := range prev.Connections {
		key := connKey(c)
		if nextConns[key] > 0 {
			nextConns[key]--
			continue
		}
		d.RemovedConnections = append(d.RemovedConnections, c)
	}

	return d
}

func connMultiset(conns []models.Connection) map[string]int {
	set := make(map[string]int, len(conns))
	for _, c := range conns {
		set[connKey(c)]++
	}
	return set
}

func connKey(c models.Connection) string {
	return fmt.Sprintf("%s\x00%s\x00%s\x00%d", c.Source, c.Target, c.Type, c.Bandwidth)
}
