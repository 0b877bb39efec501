package restyutil

import (
	"os"
	"path/filepath"
)

// Output receives the files written by Dump.
type Output interface {
	Write(name string, contents []byte) error
}

type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput creates the directory if needed, existing files are kept and
// overwritten by name.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(name string, contents []byte) error {
	return os.WriteFile(filepath.Join(o.directory, name), contents, 0600)
}
