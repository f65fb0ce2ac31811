package system

import (
	"io/fs"
	"os"
	"path/filepath"
)

// VirtualFS is the read side of a file system used to load referenced documents.
type VirtualFS interface {
	fs.FS
}

// FileSystem reads from the local disk. Names are OS paths, not fs.FS slash paths.
type FileSystem struct{}

var _ VirtualFS = (*FileSystem)(nil)

func (fs *FileSystem) Open(name string) (fs.File, error) {
	return os.Open(filepath.FromSlash(name))
}
