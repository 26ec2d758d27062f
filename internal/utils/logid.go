package utils

import (
	"maps"

	"github.com/sirupsen/logrus"
)

const logIDKey = "log_id"

type LogID int

const (
	UnknownLogID LogID = iota
	SubscriptionAcquiredLogID
	SubscriptionReleasedLogID
	CommandDispatchedLogID
	CommandRejectedLogID
	MalformedPayloadLogID
	ConfigReloadedLogID
	TopologyReceivedLogID
)

type LogrusCustomFields struct {
	fields map[string]any
}

func NewLogrusEmptyFields() *LogrusCustomFields {
	return &LogrusCustomFields{}
}

func NewLogrusCustomFields(fields map[string]any) *LogrusCustomFields {
	return &LogrusCustomFields{fields: fields}
}

func (l *LogrusCustomFields) WithLogID(id LogID) logrus.Fields {
	newFields := logrus.Fields{}
	maps.Copy(newFields, l.fields)
	newFields[logIDKey] = id
	return newFields
}
