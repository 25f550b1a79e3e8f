package sse

import (
  "encoding/json"
  "fmt"
  "net/http"
)

// Writer sends server-sent events over one response. The chat stream is
// short-lived (one turn), so there is no heartbeat or hub: headers, events,
// flush.
type Writer struct {
  w       http.ResponseWriter
  flusher http.Flusher
}

func NewWriter(w http.ResponseWriter) (*Writer, error) {
  flusher, ok := w.(http.Flusher)
  if !ok {
    return nil, fmt.Errorf("streaming unsupported by response writer")
  }
  w.Header().Set("Content-Type", "text/event-stream")
  w.Header().Set("Cache-Control", "no-cache")
  w.Header().Set("Connection", "keep-alive")
  w.Header().Set("X-Accel-Buffering", "no")
  return &Writer{w: w, flusher: flusher}, nil
}

func (wr *Writer) Send(event string, data any) error {
  raw, err := json.Marshal(data)
  if err != nil {
    return err
  }
  if _, err := fmt.Fprintf(wr.w, "event: %s\ndata: %s\n\n", event, string(raw)); err != nil {
    return err
  }
  wr.flusher.Flush()
  return nil
}
