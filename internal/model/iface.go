package model

import (
	"context"
	"encoding/json"
	"io"
)

// SessionCreator issues server session identifiers.
type SessionCreator interface {
	GetSession(ctx context.Context) (string, error)
}

// LogQuerier provides read-only queries on uploaded files.
type LogQuerier interface {
	GetLogs(ctx context.Context, q LogQuery) (*LogPage, error)
	GetJSONBodies(ctx context.Context, fileID, sessionID, logID string) (json.RawMessage, error)
	GetStatistics(ctx context.Context, fileID, sessionID string) (*Statistics, error)
}

// DataMutator deletes server-side data. An empty fileID clears the whole session.
type DataMutator interface {
	ClearData(ctx context.Context, sessionID, fileID string) error
}

// Uploader sends a log file for parsing.
type Uploader interface {
	Upload(ctx context.Context, sessionID, filename string, r io.Reader) (*UploadResult, error)
}

// Backend is the full client-side contract of the log service.
type Backend interface {
	SessionCreator
	LogQuerier
	DataMutator
	Uploader
}
