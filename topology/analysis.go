package topology

import (
	"sort"

	"github.com/waikato/maiaflow/port"
)

// Validation statuses reported by Analyze.
const (
	StatusHealthy  = "healthy"
	StatusWarnings = "warnings"
	StatusInvalid  = "invalid"
)

// Orphaned port issues.
const (
	IssueNoUpstream   = "no_upstream"
	IssueNoDownstream = "no_downstream"
)

// AnalysisResult contains the results of connectivity analysis
type AnalysisResult struct {
	ConnectedComponents [][]string         `json:"connected_components"`
	Edges               []Edge             `json:"edges"`
	DisconnectedNodes   []DisconnectedNode `json:"disconnected_nodes"`
	OrphanedPorts       []OrphanedPort     `json:"orphaned_ports"`
	ValidationStatus    string             `json:"validation_status"`
}

// DisconnectedNode represents a node with no connections
type DisconnectedNode struct {
	Node  string `json:"node"`
	Issue string `json:"issue"`
}

// OrphanedPort represents a port with no connections. Unwired inputs read as
// closed and unwired outputs discard, so orphans are warnings unless Required.
type OrphanedPort struct {
	Node      string         `json:"node"`
	Port      string         `json:"port"`
	Direction port.Direction `json:"direction"`
	Type      string         `json:"type"`
	Issue     string         `json:"issue"`
	Required  bool           `json:"required"`
}

// Analyze performs connectivity analysis. Results are sorted by node name.
func (t *Topology) Analyze() *AnalysisResult {
	nodes := t.Nodes()
	edges := t.Edges()

	result := &AnalysisResult{
		ConnectedComponents: [][]string{},
		Edges:               edges,
		DisconnectedNodes:   []DisconnectedNode{},
		OrphanedPorts:       []OrphanedPort{},
		ValidationStatus:    StatusHealthy,
	}

	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.From.Node] = append(adj[e.From.Node], e.To.Node)
		adj[e.To.Node] = append(adj[e.To.Node], e.From.Node)
	}

	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name())
	}
	sort.Strings(names)

	visited := make(map[string]bool)
	for _, name := range names {
		if visited[name] {
			continue
		}
		var cluster []string
		dfs(name, adj, visited, &cluster)
		sort.Strings(cluster)
		result.ConnectedComponents = append(result.ConnectedComponents, cluster)

		if len(adj[name]) == 0 {
			result.DisconnectedNodes = append(result.DisconnectedNodes, DisconnectedNode{
				Node:  name,
				Issue: "node has no connections",
			})
		}
	}

	critical := false
	for _, n := range nodes {
		for _, in := range n.Inputs() {
			info := in.Info()
			if info.Connected {
				continue
			}
			result.OrphanedPorts = append(result.OrphanedPorts, orphan(n.Name(), info, IssueNoUpstream))
			critical = critical || info.Required
		}
		for _, out := range n.Outputs() {
			info := out.Info()
			if info.Connected {
				continue
			}
			result.OrphanedPorts = append(result.OrphanedPorts, orphan(n.Name(), info, IssueNoDownstream))
		}
	}
	sort.SliceStable(result.OrphanedPorts, func(i, j int) bool {
		a, b := result.OrphanedPorts[i], result.OrphanedPorts[j]
		if a.Node != b.Node {
			return a.Node < b.Node
		}
		return a.Port < b.Port
	})

	switch {
	case critical:
		result.ValidationStatus = StatusInvalid
	case len(result.DisconnectedNodes) > 0 || len(result.OrphanedPorts) > 0:
		result.ValidationStatus = StatusWarnings
	}
	return result
}

func orphan(nodeName string, info port.Info, issue string) OrphanedPort {
	return OrphanedPort{
		Node:      nodeName,
		Port:      info.Name,
		Direction: info.Direction,
		Type:      info.Type,
		Issue:     issue,
		Required:  info.Required,
	}
}

func dfs(name string, adj map[string][]string, visited map[string]bool, cluster *[]string) {
	visited[name] = true
	*cluster = append(*cluster, name)
	for _, next := range adj[name] {
		if !visited[next] {
			dfs(next, adj, visited, cluster)
		}
	}
}
