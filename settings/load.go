package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"

	"gofer/internal/findup"
)

// Config file names, in ascending precedence. The local variants hold
// per-environment overrides and are expected to stay out of version
// control.
const (
	ProjectINI  = "gofer.cfg"
	ProjectTOML = "gofer.toml"
	LocalINI    = "gofer.local.cfg"
	LocalTOML   = "gofer.local.toml"
)

// Settings holds every parsed configuration layer for a project. It is
// constructed once per run and read-only afterwards; Resolve composes
// per-task views on demand.
type Settings struct {
	dir   string
	files []string
	layer []map[string]*Map
}

// Load discovers the project directory by walking up from startDir and
// parses whichever config files exist there. No config file at all is
// not an error: the result resolves every task to an empty map and
// reports startDir as the project directory.
func Load(startDir string) (*Settings, error) {
	names := []string{ProjectINI, ProjectTOML, LocalINI, LocalTOML}

	dir, ok := findup.Find(startDir, names...)
	if !ok {
		abs, err := filepath.Abs(startDir)
		if err != nil {
			return nil, fmt.Errorf("resolve settings dir: %w", err)
		}
		return &Settings{dir: abs}, nil
	}

	s := &Settings{dir: dir}
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		var sections map[string]*Map
		var err error
		if strings.HasSuffix(name, ".toml") {
			sections, err = parseTOML(path)
		} else {
			sections, err = parseINI(path)
		}
		if err != nil {
			return nil, err
		}

		s.files = append(s.files, path)
		s.layer = append(s.layer, sections)
	}
	return s, nil
}

// Dir returns the project directory: where the first config file was
// found, or the (absolute) start directory when none exists.
func (s *Settings) Dir() string {
	return s.dir
}

// Files returns the paths of the config files that were loaded, in
// ascending precedence.
func (s *Settings) Files() []string {
	out := make([]string, len(s.files))
	copy(out, s.files)
	return out
}

// Resolve returns the merged settings for the named task. Layers apply in
// ascending precedence; a key's position is fixed by the layer that first
// introduced it. The result is a fresh copy each call.
func (s *Settings) Resolve(task string) *Map {
	merged := NewMap()
	for _, sections := range s.layer {
		sec, ok := sections[task]
		if !ok {
			continue
		}
		for _, key := range sec.keys {
			merged.set(key, sec.values[key])
		}
	}
	return merged
}

// parseINI reads one INI layer. Every section maps to a task name; keys
// keep file order and values go through coerceINI.
func parseINI(path string) (map[string]*Map, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		AllowPythonMultilineValues: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("load settings %s: %w", path, err)
	}

	sections := map[string]*Map{}
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		m := NewMap()
		for _, key := range sec.Keys() {
			m.set(key.Name(), coerceINI(key.Value()))
		}
		sections[sec.Name()] = m
	}
	return sections, nil
}

// coerceINI types a raw INI value: case-insensitive true/false literals
// become bools, multiline values become ordered string lists with blank
// lines dropped, anything else stays the raw string.
func coerceINI(raw string) any {
	if strings.Contains(raw, "\n") {
		var list []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				list = append(list, line)
			}
		}
		return list
	}

	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return true
	case "false":
		return false
	}
	return raw
}

// parseTOML reads one TOML layer. Top-level tables map to task names.
// Key order comes from the decoder metadata so resolution order matches
// the file. Values keep their native types; arrays become string lists
// elementwise, nested tables are not part of the flat per-task contract
// and are skipped.
func parseTOML(path string) (map[string]*Map, error) {
	var raw map[string]any
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load settings %s: %w", path, err)
	}

	sections := map[string]*Map{}
	for _, key := range md.Keys() {
		if len(key) != 2 {
			continue
		}
		table, ok := raw[key[0]].(map[string]any)
		if !ok {
			continue
		}
		value, ok := table[key[1]]
		if !ok {
			continue
		}
		if _, isTable := value.(map[string]any); isTable {
			continue
		}

		m, ok := sections[key[0]]
		if !ok {
			m = NewMap()
			sections[key[0]] = m
		}
		m.set(key[1], coerceTOML(value))
	}
	return sections, nil
}

func coerceTOML(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}
