package fs

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"hrassist/internal/domain"
)

// Loader reads policy documents from a directory tree. Documents come back
// sorted by name so index builds are deterministic.
type Loader struct {
	root     string
	includes []string
	excludes []string
}

func NewLoader(root string, includes, excludes []string) *Loader {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Loader{
		root:     root,
		includes: includes,
		excludes: excludes,
	}
}

func (l *Loader) Load() ([]domain.Document, error) {
	root, err := filepath.Abs(l.root)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if path != root && (l.shouldExclude(relPath) || l.shouldExclude(relPath+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		if l.shouldInclude(relPath) && !l.shouldExclude(relPath) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)

	docs := make([]domain.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil, err
		}
		name := filepath.ToSlash(relPath)

		docs = append(docs, domain.Document{
			ID:   generateDocID(name),
			Name: name,
			Text: string(data),
		})
	}

	return docs, nil
}

func (l *Loader) shouldInclude(path string) bool {
	for _, pattern := range l.includes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (l *Loader) shouldExclude(path string) bool {
	for _, pattern := range l.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func generateDocID(name string) string {
	hash := sha256.Sum256([]byte(name))
	return hex.EncodeToString(hash[:8])
}
