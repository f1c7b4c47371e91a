package pipeline

import (
	"encoding/json"
	"time"
)

// Envelope is the only value that crosses the host boundary. Raw internal
// errors never do; they go to the diagnostic log instead.
type Envelope struct {
	Success bool           `json:"success"`
	Data    *ExportData    `json:"data,omitempty"`
	Error   *ExportFailure `json:"error,omitempty"`
	Timing  string         `json:"timing,omitempty"`
}

type ExportData struct {
	ShareURL      string `json:"shareUrl"`
	EncryptionKey string `json:"encryptionKey"`
}

type ExportFailure struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType"`
	Timestamp int64  `json:"timestamp"`
	FullError string `json:"fullError"`
}

// Error type tags for the two pipeline halves.
const (
	ErrAnalysisFailed = "analysis_failed"
	ErrUploadFailed   = "upload_failed"
)

func successEnvelope(shareURL, key string, timing string) Envelope {
	return Envelope{
		Success: true,
		Data:    &ExportData{ShareURL: shareURL, EncryptionKey: key},
		Timing:  timing,
	}
}

func failureEnvelope(errorType, message string, err error) Envelope {
	full := ""
	if err != nil {
		full = err.Error()
	}
	return Envelope{
		Success: false,
		Error: &ExportFailure{
			Message:   message,
			ErrorType: errorType,
			Timestamp: time.Now().Unix(),
			FullError: full,
		},
	}
}

// JSON serializes the envelope for the host. Marshalling plain structs
// cannot fail in practice; the fallback keeps the contract total anyway.
func (e Envelope) JSON() string {
	data, err := json.Marshal(e)
	if err != nil {
		return `{"success":false,"error":{"message":"envelope serialization failed","errorType":"analysis_failed"}}`
	}
	return string(data)
}
