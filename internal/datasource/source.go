// Package datasource resolves where a dataset comes from and provides a
// SQLite cache so a large JSON dataset decoded once can be reopened
// quickly on later runs.
package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/citescope/pkg/dataset"
	"github.com/vanderheijden86/citescope/pkg/model"
)

// SourceType identifies how a dataset path is interpreted.
type SourceType string

const (
	SourceTypeJSON   SourceType = "json"
	SourceTypeSplit  SourceType = "split"
	SourceTypeSQLite SourceType = "sqlite"
)

// DataSource is a resolved dataset location.
type DataSource struct {
	Type SourceType
	Path string
}

// Resolve classifies a dataset path by shape: a directory is the split
// JSON layout, .db/.sqlite files are the cache format, everything else
// is a combined JSON file.
func Resolve(path string) (DataSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("dataset path: %w", err)
	}
	if info.IsDir() {
		return DataSource{Type: SourceTypeSplit, Path: path}, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return DataSource{Type: SourceTypeSQLite, Path: path}, nil
	default:
		return DataSource{Type: SourceTypeJSON, Path: path}, nil
	}
}

// Open loads the dataset behind a resolved source. warnFunc receives
// per-record skip messages for the JSON layouts.
func Open(source DataSource, warnFunc func(msg string)) (*model.Dataset, error) {
	switch source.Type {
	case SourceTypeSQLite:
		reader, err := NewSQLiteReader(source.Path)
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return reader.LoadDataset()
	default:
		return dataset.Load(source.Path, warnFunc)
	}
}
