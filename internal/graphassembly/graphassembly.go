// Package graphassembly builds the timed adjacency that the search engine
// expands over: nodes and structural edges joined with their offers, plus
// synthesized transfer arcs for any node pair close enough to connect
// directly.
package graphassembly

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/z123guitar/interline/internal/model"
	"github.com/z123guitar/interline/internal/repository"
	"github.com/z123guitar/interline/internal/transfersynth"
	"github.com/z123guitar/interline/pkg/geo"
)

// Arc is one timed edge in the adjacency: a structural or synthesized edge
// paired with the specific offer that makes it traversable.
type Arc struct {
	Edge  model.EdgeLeg
	Offer model.Offer
}

// DefaultTransferRadiusKm is the radius within which any two nodes receive
// synthesized transfer arcs.
const DefaultTransferRadiusKm = 3.0

// Graph is the assembled adjacency: node_id -> list of outgoing timed arcs.
type Graph struct {
	Nodes     map[int64]model.LocationNode
	Adjacency map[int64][]Arc
}

// Arcs returns the outgoing arcs for a node, or nil if it has none.
func (g *Graph) Arcs(nodeID int64) []Arc {
	return g.Adjacency[nodeID]
}

// Assembler builds a Graph from a persistence snapshot plus synthesized
// transfers.
type Assembler struct {
	repo             *repository.GraphRepository
	synth            *transfersynth.Synthesizer
	TransferRadiusKm float64
}

// NewAssembler creates an Assembler with the spec's default transfer radius.
func NewAssembler(repo *repository.GraphRepository, synth *transfersynth.Synthesizer) *Assembler {
	return &Assembler{
		repo:             repo,
		synth:            synth,
		TransferRadiusKm: DefaultTransferRadiusKm,
	}
}

// Build loads nodes, edges, and offers, groups offers onto their edges, and
// injects synthesized transfer arcs for every node pair within the
// configured radius, as of now.
func (a *Assembler) Build(ctx context.Context, now time.Time) (*Graph, error) {
	nodes, err := a.repo.LoadNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("assemble graph: %w", err)
	}
	edges, err := a.repo.LoadEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("assemble graph: %w", err)
	}
	offers, err := a.repo.LoadOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("assemble graph: %w", err)
	}

	log.Printf("[graph] loaded %d nodes, %d edges, %d offers", len(nodes), len(edges), len(offers))

	nodeByID := make(map[int64]model.LocationNode, len(nodes))
	for _, n := range nodes {
		nodeByID[n.ID] = n
	}

	edgeByID := make(map[int64]model.EdgeLeg, len(edges))
	for _, e := range edges {
		edgeByID[e.ID] = e
	}

	offersByEdge := make(map[int64][]model.Offer)
	for _, o := range offers {
		offersByEdge[o.EdgeID] = append(offersByEdge[o.EdgeID], o)
	}

	adjacency := make(map[int64][]Arc)
	for _, e := range edges {
		for _, o := range offersByEdge[e.ID] {
			adjacency[e.FromNodeID] = append(adjacency[e.FromNodeID], Arc{Edge: e, Offer: o})
		}
	}

	a.injectTransfers(nodes, adjacency, now)

	log.Printf("[graph] assembled adjacency over %d nodes", len(adjacency))

	return &Graph{Nodes: nodeByID, Adjacency: adjacency}, nil
}

// injectTransfers appends synthesized walk/rideshare/shuttle arcs for every
// ordered pair of distinct nodes within the transfer radius.
func (a *Assembler) injectTransfers(nodes []model.LocationNode, adjacency map[int64][]Arc, now time.Time) {
	injected := 0
	for _, from := range nodes {
		for _, to := range nodes {
			if from.ID == to.ID {
				continue
			}
			if geo.HaversineKm(from.Coords, to.Coords) > a.TransferRadiusKm {
				continue
			}
			for _, pair := range a.synth.SynthesizeAll(from, to, now) {
				adjacency[from.ID] = append(adjacency[from.ID], Arc{Edge: pair.Edge, Offer: pair.Offer})
				injected++
			}
		}
	}
	log.Printf("[graph] injected %d synthesized transfer arcs (radius=%.1fkm)", injected, a.TransferRadiusKm)
}
