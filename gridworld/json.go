package gridworld

import "encoding/json"

// MarshalJSON renders a Cell in wire format: string direction keys and
// string enum values, the edges map covering only the four cardinal
// directions actually placed on the cell (missing entries are implicitly
// Passage).
func (c Cell) MarshalJSON() ([]byte, error) {
	edges := make(map[string]string, len(c.Edges))
	for d, et := range c.Edges {
		edges[d.String()] = et.String()
	}
	return json.Marshal(struct {
		Index    int               `json:"index"`
		CellType string            `json:"cell_type"`
		Edges    map[string]string `json:"edges"`
		Lifetime int               `json:"lifetime"`
	}{
		Index:    c.Index,
		CellType: c.CellType.String(),
		Edges:    edges,
		Lifetime: c.Lifetime,
	})
}

// MarshalJSON renders Coords as {"x":int,"y":int}.
func (c Coords) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		X int `json:"x"`
		Y int `json:"y"`
	}{c.X, c.Y})
}
