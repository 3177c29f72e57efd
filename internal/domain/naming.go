package domain

import "path/filepath"

// LogPath returns the path to the client log file.
func LogPath(boardDir string) string {
	return filepath.Join(boardDir, "logs", "kanban.log")
}

// LockPath returns the path of the lock file guarding a file store.
func LockPath(storePath string) string {
	return storePath + ".lock"
}
