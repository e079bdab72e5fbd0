package config

type WorkerKeyStruct struct {
	// PublicationQueue is a sorted set of attempt IDs scored by their publish-due unix time.
	PublicationQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PublicationQueue: "publication_due_queue",
}
