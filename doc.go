// Package maiaflow is a continuous-loop dataflow runtime for machine-learning
// pipelines.
//
// # Nodes and Ports
//
// A node is a long-lived unit of computation. It declares typed input and
// output ports, loops while there is someone to produce for, suspends when it
// waits on an input or a full consumer, and terminates when its ports close.
//
//	b := node.NewBase("relay", node.Metadata{Type: "relay"}, deps)
//	in := node.NewInput[int](b, "input", port.Required())
//	out := node.NewOutput[int](b, "output")
//
// Outputs broadcast to every connected input. An input with no upstream reads
// as closed; an output with no downstream, or whose consumers all closed,
// reports IsClosed so its producer can stop early.
//
// # Lifecycle
//
// node.Run drives the Loop contract: PreLoop once, MainLoopInner while
// LoopCondition holds, PostLoop exactly once, then every port is closed so
// neighbours observe the exit. Closure travels downstream as "no more data"
// and upstream as "nobody is listening".
//
// # Multiplexing
//
// A node waiting on several inputs uses Select with one port.On case per
// input. The first ready input fires its handler; when every input is closed
// the select reports Abort instead.
//
// # Packages
//
//   - errors: classified errors, ContractViolation, wrapping helpers
//   - port: typed ports, connection and the selector
//   - node: Base, Run, Source and the factory registry
//   - dataset, learner: the payloads exchanged by the learner nodes
//   - input/new_learner, input/csv_source, processor/learner_node, output/collect: standard nodes
//   - noderegistry: registers the standard nodes
//   - config, topology: topology documents, building and running them
//   - metric, pkg/buffer: Prometheus metrics and the retention ring
//   - cmd/maiaflow: the command-line runner
package maiaflow
