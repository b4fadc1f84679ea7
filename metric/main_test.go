package metric

import "time"

const (
	defaultWait  = 2 * time.Second
	pollInterval = 10 * time.Millisecond
)
