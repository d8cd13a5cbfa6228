package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"gallery-ingest/internal/ingest"
)

// maxSaveBody bounds the JSON body of a save request.
const maxSaveBody = 64 << 10

// SaveAccepted is the response to a queued save request.
type SaveAccepted struct {
	Status    string `json:"status"`
	RequestID int    `json:"requestId"`
	Queued    int    `json:"queued"`
}

// SaveMedia queues a save request. The outcome is delivered later to the
// request's callback target, not in this response.
func (h *Handlers) SaveMedia(w http.ResponseWriter, r *http.Request) {
	var req ingest.SaveRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSaveBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if msg := validateSaveRequest(req); msg != "" {
		writeJSONError(w, msg, http.StatusBadRequest)
		return
	}

	h.saver.Submit(req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, SaveAccepted{
		Status:    "queued",
		RequestID: req.RequestID,
		Queued:    h.saver.Pending(),
	})
}

func validateSaveRequest(req ingest.SaveRequest) string {
	switch {
	case req.SourcePath == "":
		return "sourcePath is required"
	case req.FileBaseName == "":
		return "fileBaseName is required"
	case strings.ContainsAny(req.FileBaseName, `/\`):
		return "fileBaseName must not contain path separators"
	case req.CallbackTarget == "":
		return "callbackTarget is required"
	}
	if _, err := ingest.AlbumPath(req.AlbumName); err != nil {
		return "albumName must stay inside DCIM"
	}
	return ""
}

// Results streams encoded save results for the target named in the query
// string over a websocket.
func (h *Handlers) Results(w http.ResponseWriter, r *http.Request) {
	h.results.ServeHTTP(w, r)
}
