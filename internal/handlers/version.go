package handlers

import (
	"net/http"

	"gallery-ingest/internal/ingest"
	"gallery-ingest/internal/mediatypes"
	"gallery-ingest/internal/startup"
)

// VersionResponse is the build information plus what this server can ingest.
type VersionResponse struct {
	startup.BuildInfo
	APILevel     int                     `json:"apiLevel"`
	MinAPILevel  int                     `json:"minApiLevel"`
	StagedWrites bool                    `json:"stagedWrites"`
	Collections  []mediatypes.Collection `json:"collections"`
}

// GetVersion reports the build and the platform API level saves run against.
// stagedWrites is false when every save would fail with the platform error.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	var level int
	if h.saver != nil {
		level = h.saver.APILevel()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, VersionResponse{
		BuildInfo:    startup.GetBuildInfo(),
		APILevel:     level,
		MinAPILevel:  ingest.MinAPILevel,
		StagedWrites: level >= ingest.MinAPILevel,
		Collections:  []mediatypes.Collection{mediatypes.CollectionImages, mediatypes.CollectionVideos},
	})
}
