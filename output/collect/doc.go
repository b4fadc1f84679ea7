// Package collect provides the collect sink node. It pulls from its "input"
// port until the port closes, logs every value and keeps the most recent ones
// in a bounded ring buffer for inspection.
//
// When path is set each value is also appended to a JSON Lines file, one JSON
// document per line. The file is flushed and closed when the node finishes.
//
// Configuration:
//
//	{
//	  "capacity": 100,
//	  "overflow": "drop_oldest",
//	  "log_values": false,
//	  "path": "out/predictions.jsonl",
//	  "append": false
//	}
package collect
