// Package node provides the continuous-loop node runtime: a Base carrying a
// node's identity and ports, the Loop contract concrete nodes implement, and
// Run, which drives one activation through its lifecycle.
//
// # Lifecycle
//
//	NotStarted -> PreLoop -> Looping -> PostLoop -> Terminated
//	                 \           \
//	                  `-----------`--> Failed
//
// PreLoop runs once. While Stop has not been called and LoopCondition holds,
// Run invokes MainLoopInner. Looping ends on Stop, a false condition, an Abort
// step or context cancellation, and all four converge on a single PostLoop call.
// Errors and panics from the node skip PostLoop and end in Failed.
//
// When Run returns every declared port is closed, so neighbours see the node
// leave instead of waiting forever.
//
// # Writing a node
//
//	type Echo struct {
//	    *node.Base
//	    in  *port.Input[string]
//	    out *port.Output[string]
//	}
//
//	func NewEcho(name string, deps node.Dependencies) *Echo {
//	    b := node.NewBase(name, node.Metadata{Type: "echo"}, deps)
//	    return &Echo{
//	        Base: b,
//	        in:   node.NewInput[string](b, "input", port.Required()),
//	        out:  node.NewOutput[string](b, "output"),
//	    }
//	}
//
//	func (e *Echo) PreLoop(context.Context) error  { return nil }
//	func (e *Echo) LoopCondition() bool            { return !e.out.IsClosed() }
//	func (e *Echo) PostLoop(context.Context) error { return nil }
//
//	func (e *Echo) MainLoopInner(ctx context.Context) (node.Step, error) {
//	    res, err := e.Select(ctx, port.On(e.in, func(ctx context.Context, v string) error {
//	        return e.out.Push(ctx, v)
//	    }))
//	    if err != nil || res.Aborted {
//	        return node.Abort, err
//	    }
//	    return node.Continue, nil
//	}
//
// Producers that emit one item per iteration use Source with a Producer.
//
// # Registry
//
// Registry maps factory names to Registrations. Create validates the raw
// configuration against the registration's JSON Schema before calling the
// factory, so configuration errors surface before a node ever runs.
package node
