package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// AudioFile is a directory entry selected for analysis.
type AudioFile struct {
	Path string
	Name string
	Size int64
}

// MakeDir creates a directory with all parent directories
func MakeDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists reports whether path exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ListFilesByExt returns the regular files in dir whose extension exactly
// matches one of exts, in lexical order. Subdirectories are descended only
// when recursive is set.
func ListFilesByExt(dir string, exts []string, recursive bool) ([]AudioFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	var files []AudioFile
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			// unreadable subdirectory: skip it, keep the rest
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if !slices.Contains(exts, filepath.Ext(path)) {
			return nil
		}

		// a file removed after listing keeps size 0 and is reported later
		var size int64
		if fi, err := d.Info(); err == nil {
			size = fi.Size()
		}
		files = append(files, AudioFile{Path: path, Name: d.Name(), Size: size})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return files, nil
}
