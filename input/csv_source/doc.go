// Package csvsource provides the csv-source node, which reads a CSV file once
// and pushes its schema on "schema" and its rows on "data".
//
// The rows are pushed as a dataset.Table, which batch and incremental
// learners both accept. Setting one_shot pushes a single-pass stream instead.
//
// Configuration:
//
//	{"path": "data/weather.csv", "target": "play", "one_shot": false}
package csvsource
