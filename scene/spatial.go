package scene

// NodeType classifies nodes of the containment hierarchy.
type NodeType uint8

const (
	NodeProject NodeType = iota
	NodeSite
	NodeBuilding
	NodeStorey
	NodeSpace
	NodeElement
)

var nodeTypeNames = [...]string{
	NodeProject:  "Project",
	NodeSite:     "Site",
	NodeBuilding: "Building",
	NodeStorey:   "Storey",
	NodeSpace:    "Space",
	NodeElement:  "Element",
}

func (t NodeType) String() string {
	if int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return "Element"
}

// NodeTypeFromString inverts String; unknown names fall back to Element.
func NodeTypeFromString(s string) NodeType {
	for t, name := range nodeTypeNames {
		if name == s {
			return NodeType(t)
		}
	}
	return NodeElement
}

// SpatialNode is one grouping in the containment tree. Children keep the
// snapshot's insertion order. Leaf element nodes map 1:1 to entities by id.
// The tree is acyclic and immutable post-load.
type SpatialNode struct {
	ID          EntityID
	Name        string
	NodeType    NodeType
	HasGeometry bool
	Children    []*SpatialNode
}

// Walk traverses the subtree depth-first in child order; return false from
// visit to stop early.
func (n *SpatialNode) Walk(visit func(*SpatialNode) bool) bool {
	if n == nil {
		return true
	}
	if !visit(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.Walk(visit) {
			return false
		}
	}
	return true
}

// ElementIDs collects the ids of every geometry-bearing leaf below the
// node, the node itself included. Used by hierarchy-driven isolate/hide.
func (n *SpatialNode) ElementIDs() []EntityID {
	var ids []EntityID
	n.Walk(func(node *SpatialNode) bool {
		if node.NodeType == NodeElement || node.HasGeometry {
			ids = append(ids, node.ID)
		}
		return true
	})
	return ids
}
