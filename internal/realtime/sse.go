package realtime

import (
	"encoding/json"
	"fmt"
	"io"
)

type frame struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// WriteSSE writes one `data:` frame carrying {type, payload}.
func WriteSSE(w io.Writer, eventType string, payload interface{}) error {
	return writeFrame(w, frame{Type: eventType, Payload: payload})
}

func WriteConnected(w io.Writer) error {
	return writeFrame(w, frame{Type: "connected", Message: "Connected to notification stream"})
}

func WriteHeartbeat(w io.Writer) error {
	return writeFrame(w, frame{Type: "heartbeat"})
}

func writeFrame(w io.Writer, f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
