/*
Package filesystem provides the file operations used by the gallery ingest
pipeline: retrying stat/open for source files that may live on NFS, and
observed create/rename/remove for gallery files.

# Retry Behavior

StatWithRetry and OpenWithRetry retry only on ESTALE (stale NFS file handle)
with exponential backoff. Defaults:
  - MaxRetries: 3
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Every other error, including os.ErrNotExist, is returned immediately.

# Volumes

Metrics are labelled by volume. A VolumeResolver maps absolute paths to
volume names with longest-prefix matching:

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
	    "gallery":  cfg.GalleryDir,
	    "database": cfg.DatabaseDir,
	}))

Paths outside every configured volume resolve to "source", since anything
else the service touches is a caller-provided temporary file.

# Observer

Recording goes through the Observer interface, installed once with
SetObserver. With no observer installed nothing is recorded, which keeps
tests free of metric setup.
*/
package filesystem
