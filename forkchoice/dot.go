package forkchoice

import (
	"fmt"

	"github.com/emicklei/dot"
)

// DOT renders the current block tree as a Graphviz DOT graph, with
// each node labeled by its subtree weight as head selection computes it
// (its own votes, its descendants' votes, and any proposer boost) and
// the proposer-boost root
// marked distinctly, for operational debugging of fork-choice
// behavior.
func (s *Store) DOT() string {
	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "BT")

	weight := s.subtreeWeights(s.finalized.Root)
	nodes := make(map[string]dot.Node, len(s.blocks))

	for h, b := range s.blocks {
		short := h.String()[:8]
		label := fmt.Sprintf("%s\\nslot=%d votes=%d", short, b.Header.Slot, weight[h])
		n := g.Node(short).Label(label)
		if h == s.proposerBoostRoot {
			n = n.Attr("color", "red").Attr("style", "bold")
		}
		nodes[short] = n
	}

	for h, b := range s.blocks {
		parentShort := b.Header.PreviousHash.String()[:8]
		if parent, ok := nodes[parentShort]; ok {
			g.Edge(nodes[h.String()[:8]], parent)
		}
	}

	return g.String()
}
