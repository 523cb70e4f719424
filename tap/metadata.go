// SPDX-FileCopyrightText: 2025 AstroFab Observatory
// SPDX-License-Identifier: Apache-2.0

// Package tap implements the small catalog microservices behind DataLink
// service descriptors. Each endpoint builds an ADQL query from validated
// parameters and redirects the caller to the TAP service to run it.
package tap

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Metadata maps fully qualified table names to named column sets. The
// column sets are defined in the science data model schemas and select how
// much of a table a query returns.
type Metadata map[string]map[string][]string

// column set tags as they appear in the schema files
const (
	principalTag = "tap:principal"
	minimalTag   = "lsst:minimal"
)

type metadataFile struct {
	Tables map[string]map[string][]string `yaml:"tables"`
}

// LoadMetadata reads every .yaml file in dir and merges their per-table
// column sets. The table information for one table may be spread over
// multiple files. An empty dir yields empty metadata, which disables
// column restriction.
func LoadMetadata(dir string) (Metadata, error) {
	columns := Metadata{}
	if dir == "" {
		return columns, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed reading TAP metadata dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed reading TAP metadata file %s: %w", path, err)
		}
		var file metadataFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed parsing TAP metadata file %s: %w", path, err)
		}
		for table, sets := range file.Tables {
			if _, ok := columns[table]; !ok {
				columns[table] = map[string][]string{}
			}
			for tag, cols := range sets {
				columns[table][tag] = cols
			}
		}
	}
	return columns, nil
}
