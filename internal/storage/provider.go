// Package storage keeps scene transfer files in a directory.
package storage

import "time"

// FileInfo describes one transfer file.
type FileInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Provider is the interface for transfer-file operations. Paths are
// relative to the provider root.
type Provider interface {
	// List returns the transfer files (.json, .yaml, .yml) directly inside dir.
	List(dir string) ([]FileInfo, error)
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path.
	Write(path string, content []byte) error
	Delete(path string) error
	Move(oldPath, newPath string) error
	// Exists reports whether path names an existing file.
	Exists(path string) (bool, error)
}

// IsTransferFile reports whether name has a transfer-file extension.
func IsTransferFile(name string) bool {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
			return true
		}
	}
	return false
}
