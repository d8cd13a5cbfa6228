package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gallery-ingest/internal/database"
	"gallery-ingest/internal/filesystem"
	"gallery-ingest/internal/gallery"
	"gallery-ingest/internal/ingest"
	"gallery-ingest/internal/logging"
	"gallery-ingest/internal/mediatypes"

	"github.com/gorilla/mux"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// EntryResponse is an entry as returned by the API.
type EntryResponse struct {
	database.Entry
	URI string `json:"uri"`
}

// ListResponse is a page of entries.
type ListResponse struct {
	Items  []EntryResponse `json:"items"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// ListMedia returns published entries. Supported query parameters are
// collection, album, limit and offset.
func (h *Handlers) ListMedia(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := database.EntryFilter{
		Limit: defaultPageSize,
	}

	if c := query.Get("collection"); c != "" {
		collection, err := mediatypes.ParseCollection(c)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.Collection = collection
	}
	if album := query.Get("album"); album != "" {
		rel, err := ingest.AlbumPath(album)
		if err != nil {
			writeJSONError(w, "album must stay inside DCIM", http.StatusBadRequest)
			return
		}
		filter.RelativePath = rel
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		filter.Limit = min(limit, maxPageSize)
	}
	if offset, err := strconv.Atoi(query.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	entries, err := h.gallery.List(r.Context(), filter)
	if err != nil {
		logging.Error("ListMedia: %v", err)
		writeJSONError(w, "Failed to list media", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ListResponse{
		Items:  toResponses(entries),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// ListPending returns entries whose copy has not been finalized.
func (h *Handlers) ListPending(w http.ResponseWriter, r *http.Request) {
	entries, err := h.gallery.ListPending(r.Context())
	if err != nil {
		logging.Error("ListPending: %v", err)
		writeJSONError(w, "Failed to list pending entries", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, toResponses(entries))
}

// GetEntry returns one entry by id, pending or not.
func (h *Handlers) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookupEntry(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, toResponse(*entry))
}

// GetFile serves the bytes of a published entry. Pending entries are not
// visible and answer 404.
func (h *Handlers) GetFile(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookupEntry(w, r)
	if !ok {
		return
	}
	if entry.Pending {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	fullPath := h.gallery.Path(entry)
	file, err := filesystem.OpenWithRetry(fullPath, filesystem.DefaultRetryConfig())
	if err != nil {
		logging.Error("GetFile: open %s: %v", fullPath, err)
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		logging.Error("GetFile: stat %s: %v", fullPath, err)
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", entry.MimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, entry.DisplayName, info.ModTime(), file)
}

// lookupEntry resolves the {id} route variable. It writes the error
// response itself and reports whether the caller should continue.
func (h *Handlers) lookupEntry(w http.ResponseWriter, r *http.Request) (*database.Entry, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, "Invalid entry id", http.StatusBadRequest)
		return nil, false
	}

	entry, err := h.gallery.Get(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "Entry not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		logging.Error("lookup entry %d: %v", id, err)
		writeJSONError(w, "Failed to load entry", http.StatusInternalServerError)
		return nil, false
	}
	return entry, true
}

func toResponses(entries []database.Entry) []EntryResponse {
	items := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, toResponse(e))
	}
	return items
}

func toResponse(e database.Entry) EntryResponse {
	return EntryResponse{
		Entry: e,
		URI:   gallery.URI(e.Collection, e.ID),
	}
}

