package mapped

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/edsrzf/mmap-go"
)

// File is a read-only memory mapping of a file on disk.
type File struct {
	path string
	data mmap.MMap
}

// Open maps path read-only. The file handle is released once mapped.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrOutOfRange, path)
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", path, err)
	}
	log.Debugf("Mapped %s (%d bytes)", path, len(data))
	return &File{path: path, data: data}, nil
}

// Data returns the mapped bytes. They must not be modified.
func (f *File) Data() []byte {
	return f.data
}

// Path returns the mapped file's path.
func (f *File) Path() string {
	return f.path
}

// Close unmaps the file. Data must not be used afterwards.
func (f *File) Close() error {
	if f == nil || f.data == nil {
		return nil
	}
	err := f.data.Unmap()
	f.data = nil
	return err
}
