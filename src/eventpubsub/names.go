package eventpubsub

const (
	BootstrapReplicationDoneEvent = "BootstrapReplicationDoneEvent"
	BootstrapCompletedEvent       = "BootstrapCompletedEvent"
	DataLoadedEvent               = "DataLoadedEvent"
)
