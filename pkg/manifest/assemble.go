package manifest

import (
	"encoding/json"
	"fmt"
)

// Assemble wraps groups with top-level metadata.
// Groups without items are dropped and Count is recomputed from Items.
func Assemble(meta Meta, groups []Group) *Manifest {
	m := &Manifest{
		Version:     Version,
		GeneratedAt: meta.GeneratedAt,
		BaseURL:     meta.BaseURL,
		Groups:      make([]Group, 0, len(groups)),
	}
	if meta.Revision != "" {
		rev := meta.Revision
		m.Commit = &rev
	}

	for _, g := range groups {
		if len(g.Items) == 0 {
			continue
		}
		g.Count = len(g.Items)
		m.Groups = append(m.Groups, g)
	}

	return m
}

// Parse decodes a serialized manifest
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if m.Groups == nil {
		m.Groups = []Group{}
	}
	return &m, nil
}

// ItemCount returns the number of items across all groups
func (m *Manifest) ItemCount() int {
	total := 0
	for _, g := range m.Groups {
		total += g.Count
	}
	return total
}

// FindGroup returns the group with the given id, if present
func (m *Manifest) FindGroup(id string) (*Group, bool) {
	for i := range m.Groups {
		if m.Groups[i].ID == id {
			return &m.Groups[i], true
		}
	}
	return nil, false
}
