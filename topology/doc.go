// Package topology assembles named nodes into a graph, wires their ports and
// runs every node concurrently.
//
// A topology is built either by hand:
//
//	topo := topology.New("weather", topology.WithLogger(logger))
//	_ = topo.Add(source)
//	_ = topo.Add(learnerNode)
//	_ = topo.Connect(topology.Ref("source", "output"), topology.Ref("learner", "learner_input"))
//
// or from a configuration document through a node.Registry:
//
//	topo, err := topology.Build(cfg, registry, deps)
//
// Analyze reports orphaned ports, unwired required inputs and nodes with no
// connections. Validate fails when a required input is unwired.
//
// Run starts each node on its own goroutine and waits for all of them. The
// first node to fail cancels the context the others run under; each node then
// exits and closes its ports. Every run is logged with a fresh run_id.
//
// Wiring is fixed once Run has been called.
package topology
