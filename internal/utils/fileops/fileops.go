// Package fileops reads sources and writes stubs with consistent path
// checks and error wrapping.
package fileops

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	// FilePerm is the mode of written stub files
	FilePerm os.FileMode = 0644
	// DirPerm is the mode of directories created for stubs
	DirPerm os.FileMode = 0755
)

// FileOps provides the file operations used by the generation pipeline
type FileOps struct {
	errorWrapper *ErrorWrapper
}

// NewFileOps creates a new FileOps instance
func NewFileOps() *FileOps {
	return &FileOps{
		errorWrapper: NewErrorWrapper(),
	}
}

// CleanPath cleans a path and rejects empty ones
func (fo *FileOps) CleanPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("file path cannot be empty")
	}
	return filepath.Clean(path), nil
}

// ReadFile reads a file and returns its contents as a string
func (fo *FileOps) ReadFile(filePath string) (string, error) {
	cleanPath, err := fo.CleanPath(filePath)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fo.errorWrapper.WrapFileReadError(cleanPath, err)
	}
	return string(content), nil
}

// WriteFileAtomic writes content to a uniquely named temporary file in the
// target directory and renames it into place, so readers never observe a
// partially written stub. Missing parent directories are created.
func (fo *FileOps) WriteFileAtomic(filePath string, content []byte) error {
	cleanPath, err := fo.CleanPath(filePath)
	if err != nil {
		return err
	}

	dir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return fo.errorWrapper.WrapDirectoryCreateError(dir, err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(cleanPath), uuid.NewString()))
	if err := os.WriteFile(tmp, content, FilePerm); err != nil {
		return fo.errorWrapper.WrapFileWriteError(cleanPath, err)
	}
	if err := os.Rename(tmp, cleanPath); err != nil {
		_ = os.Remove(tmp)
		return fo.errorWrapper.WrapFileWriteError(cleanPath, err)
	}
	return nil
}

// RemoveFile removes a file. A file that does not exist is not an error;
// the result reports whether something was removed.
func (fo *FileOps) RemoveFile(filePath string) (bool, error) {
	cleanPath, err := fo.CleanPath(filePath)
	if err != nil {
		return false, err
	}

	if err := os.Remove(cleanPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fo.errorWrapper.WrapFileRemovalError(cleanPath, err)
	}
	return true, nil
}

// Exists checks if a path exists
func (fo *FileOps) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir checks if a path exists and is a directory
func (fo *FileOps) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsFile checks if a path exists and is a regular file
func (fo *FileOps) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
