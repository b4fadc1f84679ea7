// Package newlearner provides the new-learner source node, which creates
// learner instances from a configured learner factory and pushes them on its
// output.
//
// Without a repeat count the node produces exactly one learner and stops. With
// repeat set to N it produces N+1: a counter is incremented before every
// production and the node stops once the counter exceeds N. The counter lives
// on the node instance, so a second activation continues from where the first
// left off.
//
// Configuration:
//
//	{
//	  "factory": "majority",
//	  "learner_config": {"default": "yes"},
//	  "repeat": 2
//	}
//
// An unknown factory, a learner configuration the factory rejects, or a
// negative repeat are configuration errors raised when the node is built.
package newlearner
