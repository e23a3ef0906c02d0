// Package config loads diskplan.toml into an api.Config, resolving each
// configured stem's root and schema path per SPEC_FULL.md §6.1.
//
// Grounded on github.com/pelletier/go-toml, a real dependency of
// moby-moby (go.mod: github.com/pelletier/go-toml v1.9.5) adopted here
// because the teacher itself has no TOML concern to ground against — the
// exact case SPEC_FULL additions are meant to cover by consulting the
// rest of the retrieved pack instead of reaching for stdlib encoding/*.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml"

	"github.com/agentic-research/diskplan/api"
	"github.com/agentic-research/diskplan/internal/dpath"
	"github.com/agentic-research/diskplan/internal/usermap"
)

// File is diskplan.toml's unmarshaled shape, per SPEC_FULL.md §6.1.
type File struct {
	Stems map[string]StemFile `toml:"stems"`
}

// StemFile is one [stems.<name>] table.
type StemFile struct {
	Root            string `toml:"root"`
	Schema          string `toml:"schema"`
	SchemaDirectory string `toml:"schema_directory"`
}

// Options carries the CLI overrides layered on top of a loaded config
// file: --vars/--usermap/--groupmap, per SPEC_FULL.md §6.3.
type Options struct {
	Vars     api.VarMap
	UserMap  api.UserGroupMap
	GroupMap api.UserGroupMap
}

// Load reads and parses the TOML file at path, resolves each stem's root
// and schema path, and returns a ready-to-use api.Config sharing a fresh
// schema cache.
func Load(path string, opts Options) (*api.Config, error) {
	data, err := toml.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	var f File
	if err := data.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("config: unmarshal %q: %w", path, err)
	}
	if len(f.Stems) == 0 {
		return nil, fmt.Errorf("config: %q declares no [stems.*] table", path)
	}

	configDir := filepath.Dir(path)
	stems := make([]api.Stem, 0, len(f.Stems))
	for name, sf := range f.Stems {
		stem, err := resolveStem(name, sf, configDir)
		if err != nil {
			return nil, err
		}
		stems = append(stems, stem)
	}

	owner, group, err := usermap.CurrentOwnerGroup()
	if err != nil {
		return nil, fmt.Errorf("config: resolve current user/group: %w", err)
	}

	cache := api.NewSchemaCache()
	return api.NewConfig(stems, opts.Vars, opts.UserMap, opts.GroupMap, cache, owner, group), nil
}

func resolveStem(name string, sf StemFile, configDir string) (api.Stem, error) {
	if sf.Root == "" {
		return api.Stem{}, fmt.Errorf("config: stem %q declares no root", name)
	}
	if sf.Schema == "" {
		return api.Stem{}, fmt.Errorf("config: stem %q declares no schema", name)
	}

	root, err := dpath.NormalizeRoot(sf.Root)
	if err != nil {
		return api.Stem{}, fmt.Errorf("config: stem %q: %w", name, err)
	}

	schemaDir := sf.SchemaDirectory
	if schemaDir == "" {
		schemaDir = configDir
	}
	schemaPath := sf.Schema
	if !filepath.IsAbs(schemaPath) {
		schemaPath = filepath.Join(schemaDir, schemaPath)
	}

	return api.Stem{Root: root, SchemaPath: schemaPath}, nil
}
