package fs

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var ErrPathEscapesRoot = errors.New("path escapes output root")

// FileSystem wraps an afero Fs rooted at the build output directory.
type FileSystem struct {
	Fs   afero.Fs
	Root string
}

// NewMemoryFileSystem creates a new in-memory file system rooted at root
func NewMemoryFileSystem(root string) *FileSystem {
	return &FileSystem{
		Fs:   afero.NewMemMapFs(),
		Root: root,
	}
}

// NewOsFileSystem creates a new OS-based file system rooted at root
func NewOsFileSystem(root string) *FileSystem {
	return &FileSystem{
		Fs:   afero.NewOsFs(),
		Root: root,
	}
}

// CleanPath canonicalises a model-supplied relative path. Absolute paths and
// paths that climb out of the root are rejected.
func CleanPath(name string) (string, error) {
	slashed := strings.TrimSpace(filepath.ToSlash(name))
	if slashed == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathEscapesRoot)
	}
	if path.IsAbs(slashed) || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", fmt.Errorf("%w: %q is absolute", ErrPathEscapesRoot, name)
	}
	cleaned := path.Clean(slashed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrPathEscapesRoot, name)
	}
	return filepath.FromSlash(cleaned), nil
}

// Persist writes content to name under Root, creating parent directories and
// overwriting any existing file. It returns the full path written.
func (fs *FileSystem) Persist(name, content string) (string, error) {
	rel, err := CleanPath(name)
	if err != nil {
		return "", err
	}
	full := filepath.Join(fs.Root, rel)

	if err := fs.CreateFile(full); err != nil {
		return "", err
	}
	if err := fs.WriteFile(full, content); err != nil {
		return "", err
	}
	return full, nil
}

// CreateFile creates a new file and its parent directories
func (fs *FileSystem) CreateFile(path string) error {
	dir := filepath.Dir(path)
	if err := fs.Fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}

	f, err := fs.Fs.Create(path)
	if err != nil {
		return fmt.Errorf("error creating file %s: %w", path, err)
	}
	defer f.Close()

	return nil
}

// WriteFile creates a new file with the given content or overwrites an existing file with the content
func (fs *FileSystem) WriteFile(path string, content string) error {
	err := afero.WriteFile(fs.Fs, path, []byte(content), 0644)
	if err != nil {
		return fmt.Errorf("error writing file %s: %w", path, err)
	}
	return nil
}

// WriteToZip archives everything under Root into zipPath on the OS file system.
func (fs *FileSystem) WriteToZip(zipPath string) error {
	realFs := afero.NewOsFs()
	zipFile, err := realFs.Create(zipPath)
	if err != nil {
		return fmt.Errorf("error creating zip file: %w", err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)

	fileCount := 0
	err = afero.Walk(fs.Fs, fs.Root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(fs.Root, p)
		if err != nil {
			return err
		}
		// Skip root directory
		if rel == "." {
			return nil
		}
		entry := filepath.ToSlash(rel)

		if info.IsDir() {
			if _, err := zipWriter.Create(entry + "/"); err != nil {
				return fmt.Errorf("error creating zip entry for directory %s: %w", entry, err)
			}
			return nil
		}

		writer, err := zipWriter.Create(entry)
		if err != nil {
			return fmt.Errorf("error creating zip entry for file %s: %w", entry, err)
		}

		file, err := fs.Fs.Open(p)
		if err != nil {
			return fmt.Errorf("error opening file %s: %w", p, err)
		}
		defer file.Close()

		if _, err := io.Copy(writer, file); err != nil {
			return fmt.Errorf("error writing file %s to zip: %w", p, err)
		}

		fileCount++
		return nil
	})

	if err != nil {
		zipWriter.Close()
		return fmt.Errorf("error walking file system: %w", err)
	}

	if fileCount == 0 {
		zipWriter.Close()
		return fmt.Errorf("no files to zip")
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("error closing zip writer: %w", err)
	}

	return nil
}

// ListFiles returns a nested map of everything under Root. Directories map to
// nested maps and files map to nil.
func (fs *FileSystem) ListFiles() (map[string]interface{}, error) {
	structure := make(map[string]interface{})

	err := afero.Walk(fs.Fs, fs.Root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(fs.Root, p)
		if err != nil {
			return err
		}
		// Skip root directory
		if rel == "." {
			return nil
		}

		parts := strings.Split(rel, string(os.PathSeparator))
		current := structure
		for i, part := range parts {
			if i == len(parts)-1 {
				if info.IsDir() {
					if _, exists := current[part]; !exists {
						current[part] = make(map[string]interface{})
					}
				} else {
					current[part] = nil // Use nil to represent files
				}
			} else {
				if _, exists := current[part]; !exists {
					current[part] = make(map[string]interface{})
				}
				current = current[part].(map[string]interface{})
			}
		}
		return nil
	})

	return structure, err
}
