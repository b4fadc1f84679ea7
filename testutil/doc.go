// Package testutil provides test utilities shared by maiaflow package tests.
//
// # Overview
//
// The helpers fall into four groups:
//
// Test Data:
//
//   - WeatherCSV: a small nominal dataset with a target column
//   - WeatherSchema / WeatherRows: the same data already parsed
//
// Mock Learners:
//
// MockIncrementalLearner and MockBatchLearner record every call made on them
// so tests can assert ordering (for example that training never happens
// before initialisation). Both are safe for concurrent use.
//
// Port Helpers:
//
//   - Feed: an output wired to a node's input, for driving a node under test
//   - Sink: an input wired to a node's output, for observing what it pushes
//   - Drain: pull from an input until it aborts, bounded by a timeout
//   - WaitRun: run a node on a goroutine and collect its error
//
// Topology Builder:
//
// TopologyBuilder builds configuration documents programmatically:
//
//	doc := testutil.NewTopologyBuilder("demo").
//	    AddNode("source", "new-learner", map[string]any{"factory": "majority"}).
//	    AddNode("learner", "learner-node", nil).
//	    Connect("source.output", "learner.learner_input").
//	    BuildJSON()
//
// # Thread Safety
//
// Mock learners guard their call logs with a mutex. Port helpers follow the
// port package rules: one goroutine pushes to an output, one pulls from an
// input.
package testutil
