// Package config loads maiaflow topology documents.
//
// A topology document names the node instances to build, the factory each
// one is built by, its raw configuration, and the connections between their
// ports:
//
//	name: weather
//	runtime:
//	  teardown_timeout: 5s
//	  default_buffer: 0
//	nodes:
//	  source:  {type: new-learner, config: {factory: majority, repeat: 0}}
//	  learner: {type: learner-node}
//	connections:
//	  - {from: source.output, to: learner.learner_input}
//
// # Loading
//
// Documents are JSON (.json) or YAML (.yaml, .yml). A Loader merges one or
// more layers with last-wins semantics, validates the merged document against
// the embedded JSON Schema, applies environment overrides and finally runs
// Config.Validate:
//
//	loader := config.NewLoader()
//	loader.AddLayer("configs/learner.yaml")
//	loader.AddLayer("configs/local.yaml") // overrides the first layer
//	cfg, err := loader.Load()
//
// # Environment Variable Overrides
//
//	MAIAFLOW_TEARDOWN_TIMEOUT=10s   # runtime.teardown_timeout
//	MAIAFLOW_DEFAULT_BUFFER=16      # runtime.default_buffer
//
// # Layer Merging
//
// Objects merge key by key, everything else is replaced:
//
//	base.yaml:   {nodes: {sink: {type: collect, config: {capacity: 10}}}}
//	local.yaml:  {nodes: {sink: {config: {log_values: true}}}}
//
//	Result:      {nodes: {sink: {type: collect, config: {capacity: 10, log_values: true}}}}
//
// Connection lists are replaced, not appended.
//
// # Security
//
//   - File size limit (10MB) to prevent memory exhaustion
//   - Nesting depth limit (100 levels)
//   - Path validation to prevent directory traversal
//   - Regular file checks (no directories or device files)
//
// Every error returned by this package is classified invalid.
package config
