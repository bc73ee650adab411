package config

type WorkerKeyStruct struct {
	PersistAnswersQueue        string
	PersistSecurityEventsQueue string
	PersistSubmissionsQueue    string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue:        "persist_answers_queue",
	PersistSecurityEventsQueue: "persist_security_events_queue",
	PersistSubmissionsQueue:    "persist_submissions_queue",
}
