package funnel

// PortalProvider supplies corridor geometry for a node type.
type PortalProvider[NodeType comparable] interface {
	// Portal returns the edge shared by from and to, with Left and Right as
	// seen when moving from from to to. ok is false when the nodes share no edge.
	Portal(from, to NodeType) (portal Portal, ok bool)

	// Position returns a representative point of node.
	Position(node NodeType) Vec3
}

// Corridor converts node paths into simplified polylines.
type Corridor[NodeType comparable] struct {
	provider PortalProvider[NodeType]
	funnel   *Funnel
}

// NewCorridor returns a Corridor using f, or the default Funnel when f is nil.
func NewCorridor[NodeType comparable](provider PortalProvider[NodeType], f *Funnel) *Corridor[NodeType] {
	if f == nil {
		f = defaultFunnel
	}
	return &Corridor[NodeType]{provider: provider, funnel: f}
}

// AppendPortals appends the portal list for path to dst: start, one portal per
// consecutive node pair, end. Pairs without a shared edge contribute both
// node positions as zero-width portals.
func (c *Corridor[NodeType]) AppendPortals(dst []Portal, path []NodeType, start, end Vec3) []Portal {
	dst = append(dst, Portal{Left: start, Right: start})
	for i := 0; i+1 < len(path); i++ {
		if portal, ok := c.provider.Portal(path[i], path[i+1]); ok {
			dst = append(dst, portal)
			continue
		}
		a, b := c.provider.Position(path[i]), c.provider.Position(path[i+1])
		dst = append(dst, Portal{Left: a, Right: a}, Portal{Left: b, Right: b})
	}
	return append(dst, Portal{Left: end, Right: end})
}

// Portals returns the portal list for path.
func (c *Corridor[NodeType]) Portals(path []NodeType, start, end Vec3) []Portal {
	return c.AppendPortals(make([]Portal, 0, len(path)+1), path, start, end)
}

// Path returns the taut polyline from start to end through the nodes of path.
// When the funnel rejects the corridor the straight segment start->end is
// returned and pulled is false.
func (c *Corridor[NodeType]) Path(path []NodeType, start, end Vec3) (points []Vec3, pulled bool) {
	buf := c.funnel.portals.Get(len(path) + 2)
	buf = c.AppendPortals(buf, path, start, end)
	points, pulled = c.funnel.Run(buf)
	c.funnel.portals.Put(buf)
	if !pulled {
		return []Vec3{start, end}, false
	}
	return points, true
}
