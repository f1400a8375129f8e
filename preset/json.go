package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-plug64/effect"
	"github.com/cwbudde/algo-plug64/engine"
)

// File is the JSON schema for effect presets. Tier maps are keyed by field
// name ("time", "cutoff", "wet", ...); channels are keyed "1".."64".
type File struct {
	Family   string                        `json:"family"`
	Master   map[string]float32            `json:"master,omitempty"`
	Channels map[string]map[string]float32 `json:"channels,omitempty"`
}

// LoadJSON loads a preset file and applies it on top of the family defaults.
func LoadJSON(path string) (*engine.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes a preset and returns params for its family.
func Parse(b []byte) (*engine.Params, error) {
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if strings.TrimSpace(f.Family) == "" {
		return nil, fmt.Errorf("preset family is required")
	}
	family, err := effect.ParseFamily(f.Family)
	if err != nil {
		return nil, err
	}
	p, err := engine.NewParams(family)
	if err != nil {
		return nil, err
	}
	if err := ApplyFile(p, &f); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto existing params.
func ApplyFile(dst *engine.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}
	if f.Family != "" {
		family, err := effect.ParseFamily(f.Family)
		if err != nil {
			return err
		}
		if family != dst.Family {
			return fmt.Errorf("preset family %s does not match %s", family, dst.Family)
		}
	}

	for _, name := range sortedKeys(f.Master) {
		if err := dst.Set(engine.MasterID(name), f.Master[name]); err != nil {
			return fmt.Errorf("master.%s: %w", name, err)
		}
	}

	keys := make([]string, 0, len(f.Channels))
	for k := range f.Channels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ch, err := strconv.Atoi(k)
		if err != nil || ch < 1 || ch > engine.MaxChannels {
			return fmt.Errorf("invalid channel key %q (expected 1..%d)", k, engine.MaxChannels)
		}
		values := f.Channels[k]
		for _, name := range sortedKeys(values) {
			if err := dst.Set(engine.ChannelID(name, ch-1), values[name]); err != nil {
				return fmt.Errorf("channels[%d].%s: %w", ch, name, err)
			}
		}
	}
	return nil
}

// FromParams captures every value that differs from its default.
func FromParams(p *engine.Params) (*File, error) {
	layout, err := engine.Layout(p.Family)
	if err != nil {
		return nil, err
	}
	f := &File{Family: p.Family.String()}
	for _, field := range layout {
		prm, ok := p.Lookup(engine.MasterID(field.Name))
		if !ok || prm.Load() == prm.Default() {
			continue
		}
		if f.Master == nil {
			f.Master = make(map[string]float32)
		}
		f.Master[field.Name] = prm.Load()
	}
	for ch := 0; ch < engine.MaxChannels; ch++ {
		for _, field := range layout {
			prm, ok := p.Lookup(engine.ChannelID(field.Name, ch))
			if !ok || prm.Load() == prm.Default() {
				continue
			}
			if f.Channels == nil {
				f.Channels = make(map[string]map[string]float32)
			}
			key := strconv.Itoa(ch + 1)
			if f.Channels[key] == nil {
				f.Channels[key] = make(map[string]float32)
			}
			f.Channels[key][field.Name] = prm.Load()
		}
	}
	return f, nil
}

// WriteJSON writes a preset file, creating parent directories.
func WriteJSON(path string, f *File) error {
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func sortedKeys(m map[string]float32) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
