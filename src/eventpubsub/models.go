package eventpubsub

import "time"

type BootstrapProgress struct {
	RunID        string `json:"run_id"`
	Completed    int    `json:"completed"`
	Replications int    `json:"replications"`
}

type BootstrapCompleted struct {
	RunID        string        `json:"run_id"`
	Replications int           `json:"replications"`
	Elapsed      time.Duration `json:"elapsed"`
}

type DataLoaded struct {
	Source  string `json:"source"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}
