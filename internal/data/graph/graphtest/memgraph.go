// Package graphtest provides an in-memory graph.Store for tests. It applies each
// statement kind with the same MERGE/CREATE semantics as its Cypher and keeps
// whole-transaction rollback.
package graphtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yungbote/scriptgraph/internal/data/graph"
)

type Node struct {
	Label string
	ID    any
	Props map[string]any
}

type Edge struct {
	Type string
	From NodeKey
	To   NodeKey
}

type NodeKey struct {
	Label string
	ID    any
}

type state struct {
	nodes map[NodeKey]*Node
	edges []Edge
}

func (s state) clone() state {
	out := state{nodes: make(map[NodeKey]*Node, len(s.nodes)), edges: append([]Edge(nil), s.edges...)}
	for k, n := range s.nodes {
		props := make(map[string]any, len(n.Props))
		for pk, pv := range n.Props {
			props[pk] = pv
		}
		out.nodes[k] = &Node{Label: n.Label, ID: n.ID, Props: props}
	}
	return out
}

// Graph is safe for concurrent use; write transactions are serialized.
type Graph struct {
	mu    sync.Mutex
	state state
	clock int64

	// FailOn is consulted before every statement with its zero-based position in
	// the current transaction. A non-nil error aborts the statement.
	FailOn func(st graph.Statement, n int) error
	// OpenErr makes Open fail.
	OpenErr error

	ops    []graph.Op
	opens  int
	closes int
}

func New() *Graph {
	return &Graph{state: state{nodes: map[NodeKey]*Node{}}}
}

func (g *Graph) Open(ctx context.Context) (graph.Store, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.OpenErr != nil {
		return nil, g.OpenErr
	}
	g.opens++
	return g, nil
}

func (g *Graph) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closes++
	return nil
}

// Sessions reports how many times the graph was opened and closed.
func (g *Graph) Sessions() (opens, closes int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.opens, g.closes
}

// Ops lists every statement kind attempted, committed or not.
func (g *Graph) Ops() []graph.Op {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]graph.Op(nil), g.ops...)
}

func (g *Graph) WriteTx(ctx context.Context, fn func(ctx context.Context, tx graph.Tx) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := &tx{g: g, work: g.state.clone()}
	if err := fn(ctx, t); err != nil {
		return err
	}
	g.state = t.work
	return nil
}

func (g *Graph) TurnText(ctx context.Context, id string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ops = append(g.ops, graph.OpTurnText)
	n, ok := g.state.nodes[NodeKey{graph.LabelTurn, id}]
	if !ok {
		return "", false, nil
	}
	text, _ := n.Props["text"].(string)
	return text, true, nil
}

type tx struct {
	g    *Graph
	work state
	n    int
}

func (t *tx) Run(ctx context.Context, st graph.Statement) (graph.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.g.ops = append(t.g.ops, st.Op)
	n := t.n
	t.n++
	if t.g.FailOn != nil {
		if err := t.g.FailOn(st, n); err != nil {
			return nil, err
		}
	}
	p := st.Params
	switch st.Op {
	case graph.OpUpsertProgram:
		t.merge(graph.LabelProgram, p["program_id"]).Props["seq"] = p["program_seq"]
		return nil, nil
	case graph.OpUpsertModule:
		return t.mergeChild(graph.LabelModule, p["module_id"], p["module_seq"], graph.LabelProgram, p["program_id"], graph.RelHasModule), nil
	case graph.OpUpsertDay:
		return t.mergeChild(graph.LabelDay, p["day_id"], p["day_seq"], graph.LabelModule, p["module_id"], graph.RelHasDay), nil
	case graph.OpUpsertPersona:
		return t.mergeChild(graph.LabelPersona, p["persona_id"], p["persona_seq"], graph.LabelDay, p["day_id"], graph.RelHasPersona), nil
	case graph.OpCreateRoot:
		per := NodeKey{graph.LabelPersona, p["persona_id"]}
		if _, ok := t.work.nodes[per]; !ok {
			return nil, nil
		}
		root := t.createTurn(p["root_id"], map[string]any{"role": graph.RoleRoot})
		t.work.edges = append(t.work.edges, Edge{Type: graph.RelRoots, From: per, To: root})
		return graph.Record{"id": p["root_id"]}, nil
	case graph.OpReuseRoot:
		per := NodeKey{graph.LabelPersona, p["persona_id"]}
		if _, ok := t.work.nodes[per]; !ok {
			return nil, nil
		}
		if roots := t.roots(per); len(roots) > 0 {
			return graph.Record{"id": roots[0].ID}, nil
		}
		root := t.createTurn(p["root_id"], map[string]any{"role": graph.RoleRoot})
		t.work.edges = append(t.work.edges, Edge{Type: graph.RelRoots, From: per, To: root})
		return graph.Record{"id": p["root_id"]}, nil
	case graph.OpCreateTurn:
		parent := NodeKey{graph.LabelTurn, p["parent_id"]}
		if _, ok := t.work.nodes[parent]; !ok {
			return nil, nil
		}
		child := t.createTurn(p["turn_id"], map[string]any{
			"role":      p["role"],
			"text":      p["text"],
			"accepted":  true,
			"parent_id": p["parent_id"],
		})
		t.work.edges = append(t.work.edges, Edge{Type: graph.RelChildOf, From: child, To: parent})
		return graph.Record{"id": p["turn_id"]}, nil
	default:
		return nil, fmt.Errorf("graphtest: unsupported statement %q", st.Op)
	}
}

func (t *tx) merge(label string, id any) *Node {
	k := NodeKey{label, id}
	n, ok := t.work.nodes[k]
	if !ok {
		n = &Node{Label: label, ID: id, Props: map[string]any{"id": id}}
		t.work.nodes[k] = n
	}
	return n
}

func (t *tx) mergeChild(label string, id, seq any, parentLabel string, parentID any, rel string) graph.Record {
	t.merge(label, id).Props["seq"] = seq
	parent := NodeKey{parentLabel, parentID}
	if _, ok := t.work.nodes[parent]; !ok {
		return nil
	}
	e := Edge{Type: rel, From: parent, To: NodeKey{label, id}}
	for _, have := range t.work.edges {
		if have == e {
			return graph.Record{"id": id}
		}
	}
	t.work.edges = append(t.work.edges, e)
	return graph.Record{"id": id}
}

// createTurn mirrors CREATE: a duplicate id is a constraint violation in the
// real store, so it panics here to surface test bugs.
func (t *tx) createTurn(id any, props map[string]any) NodeKey {
	k := NodeKey{graph.LabelTurn, id}
	if _, ok := t.work.nodes[k]; ok {
		panic(fmt.Sprintf("graphtest: duplicate Turn id %v", id))
	}
	t.g.clock++
	props["id"] = id
	props["ts"] = t.g.clock
	t.work.nodes[k] = &Node{Label: graph.LabelTurn, ID: id, Props: props}
	return k
}

func (t *tx) roots(per NodeKey) []*Node {
	var out []*Node
	for _, e := range t.work.edges {
		if e.Type == graph.RelRoots && e.From == per {
			out = append(out, t.work.nodes[e.To])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Props["ts"].(int64) < out[j].Props["ts"].(int64) })
	return out
}

// Count returns the number of committed nodes with label.
func (g *Graph) Count(label string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for k := range g.state.nodes {
		if k.Label == label {
			n++
		}
	}
	return n
}

// EdgeCount returns the number of committed relationships of type rel.
func (g *Graph) EdgeCount(rel string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, e := range g.state.edges {
		if e.Type == rel {
			n++
		}
	}
	return n
}

// Node returns a copy of a committed node's properties.
func (g *Graph) Node(label string, id any) (map[string]any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.state.nodes[NodeKey{label, id}]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(n.Props))
	for k, v := range n.Props {
		out[k] = v
	}
	return out, true
}

// HasEdge reports whether a committed rel edge runs from one node to another.
func (g *Graph) HasEdge(rel string, from, to NodeKey) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range g.state.edges {
		if e.Type == rel && e.From == from && e.To == to {
			return true
		}
	}
	return false
}

// Roots lists the root Turn ids a persona anchors, oldest first.
func (g *Graph) Roots(persona string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := &tx{g: g, work: g.state}
	var ids []string
	for _, n := range t.roots(NodeKey{graph.LabelPersona, persona}) {
		ids = append(ids, n.ID.(string))
	}
	return ids
}

// Chain walks CHILD_OF edges down from rootID and returns the turns in order.
// It fails the walk with ok=false if any turn has more than one child.
func (g *Graph) Chain(rootID string) (turns []map[string]any, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	children := map[NodeKey][]NodeKey{}
	for _, e := range g.state.edges {
		if e.Type == graph.RelChildOf {
			children[e.To] = append(children[e.To], e.From)
		}
	}
	cur := NodeKey{graph.LabelTurn, rootID}
	for {
		next := children[cur]
		if len(next) == 0 {
			return turns, true
		}
		if len(next) > 1 {
			return turns, false
		}
		cur = next[0]
		turns = append(turns, g.state.nodes[cur].Props)
	}
}
