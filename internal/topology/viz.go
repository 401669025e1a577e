package topology

import "github.com/HerbHall/fortimap/pkg/models"

// ExportViz re-projects a Topology into the viewer document format. The
// mapping is a stateless 1:1 transform: every device becomes exactly one
// model and every connection is carried over verbatim, so
// len(Models) == len(Devices) and len(Connections) == len(Connections) hold
// for any input.
func ExportViz(t *models.Topology) *models.VizDocument {
	doc := &models.VizDocument{
		Version:     models.VizFormatVersion,
		Models:      make([]models.VizModel, 0, len(t.Devices)),
		Connections: make([]models.Connection, 0, len(t.Connections)),
		Metadata:    t.Metadata,
	}

	for i := range t.Devices {
		d := &t.Devices[i]
		meta := d.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		doc.Models = append(doc.Models, models.VizModel{
			Name:        d.ID,
			DisplayName: d.Name,
			Category:    d.Type,
			Position:    d.Position,
			Tags:        []string{string(d.Type)},
			Metadata:    meta,
			Properties: models.VizProperties{
				IP:     d.IP,
				Model:  d.Model,
				Serial: d.Serial,
			},
		})
	}

	doc.Connections = append(doc.Connections, t.Connections...)
	return doc
}
