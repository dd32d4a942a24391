// Package manifest implements ifaces.ManifestTree by parsing a HuJSON
// document — JSON plus comments and trailing commas, via
// github.com/tailscale/hujson, chosen because a firmware manifest is a
// hand-edited build artifact and HuJSON lets its authors comment a
// partition layout without inventing a custom grammar.
package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"

	"github.com/lkc-technologies/fwact/internal/actions"
	"github.com/lkc-technologies/fwact/internal/constants"
	"github.com/lkc-technologies/fwact/internal/ferrors"
	"github.com/lkc-technologies/fwact/internal/ifaces"
	"github.com/lkc-technologies/fwact/internal/sparsemap"
)

type segmentDoc struct {
	Kind   string `json:"kind"`
	Length int64  `json:"length"`
}

type fileResourceDoc struct {
	Blake2b256 string       `json:"blake2b-256"`
	Segments   []segmentDoc `json:"segments"`
}

type doc struct {
	FileResource     map[string]fileResourceDoc  `json:"file-resource"`
	MBR              map[string]map[string]string `json:"mbr"`
	UbootEnvironment map[string]map[string]string `json:"uboot-environment"`
	Events           map[string][]string          `json:"events"`
}

// Tree is a parsed manifest, implementing ifaces.ManifestTree.
type Tree struct {
	doc doc
}

// Parse standardizes a HuJSON document to plain JSON and unmarshals it
// into a Tree.
func Parse(data []byte) (*Tree, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	var d doc
	if err := json.Unmarshal(std, &d); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return &Tree{doc: d}, nil
}

// Section implements ifaces.ManifestTree.
func (t *Tree) Section(kind, name string) (ifaces.Section, bool) {
	switch kind {
	case "file-resource":
		if _, ok := t.doc.FileResource[name]; ok {
			return ifaces.Section{Kind: kind, Name: name}, true
		}
	case "mbr":
		if _, ok := t.doc.MBR[name]; ok {
			return ifaces.Section{Kind: kind, Name: name}, true
		}
	case "uboot-environment":
		if _, ok := t.doc.UbootEnvironment[name]; ok {
			return ifaces.Section{Kind: kind, Name: name}, true
		}
	}
	return ifaces.Section{}, false
}

// String implements ifaces.ManifestTree.
func (t *Tree) String(sec ifaces.Section, key string) (string, bool) {
	switch sec.Kind {
	case "file-resource":
		fr, ok := t.doc.FileResource[sec.Name]
		if !ok {
			return "", false
		}
		if key == "blake2b-256" {
			return fr.Blake2b256, fr.Blake2b256 != ""
		}
		return "", false
	case "mbr":
		v, ok := t.doc.MBR[sec.Name][key]
		return v, ok
	case "uboot-environment":
		v, ok := t.doc.UbootEnvironment[sec.Name][key]
		return v, ok
	}
	return "", false
}

// NthString implements ifaces.ManifestTree: bounds-checked indexing into
// a raw flat string list (the manifest's arity-prefixed action-list
// encoding, which callers already hold as []string).
func (t *Tree) NthString(list []string, index int) (string, bool) {
	if index < 0 || index >= len(list) {
		return "", false
	}
	return list[index], true
}

// SparseMap implements ifaces.ManifestTree.
func (t *Tree) SparseMap(sec ifaces.Section) (sparsemap.Map, bool) {
	if sec.Kind != "file-resource" {
		return sparsemap.Map{}, false
	}
	fr, ok := t.doc.FileResource[sec.Name]
	if !ok {
		return sparsemap.Map{}, false
	}
	m := sparsemap.Map{Segments: make([]sparsemap.Segment, 0, len(fr.Segments))}
	for _, s := range fr.Segments {
		var kind sparsemap.Kind
		switch s.Kind {
		case "data":
			kind = sparsemap.Data
		case "hole":
			kind = sparsemap.Hole
		default:
			return sparsemap.Map{}, false
		}
		m.Segments = append(m.Segments, sparsemap.Segment{Kind: kind, Length: s.Length})
	}
	return m, true
}

// EventNames returns every event the manifest declares an action list
// for, in unspecified order.
func (t *Tree) EventNames() []string {
	names := make([]string, 0, len(t.doc.Events))
	for name := range t.doc.Events {
		names = append(names, name)
	}
	return names
}

// Actions decodes the named event's flat arity-prefixed action list
// (argc, name, arg0, …, argc, name, arg0, … repeated) into a []actions.Action
// ready for actions.ApplyList. It returns false if name is not a declared
// event.
func (t *Tree) Actions(name string) ([]actions.Action, bool) {
	flat, ok := t.doc.Events[name]
	if !ok {
		return nil, false
	}

	var out []actions.Action
	for i := 0; i < len(flat); {
		argc, err := decodeArgc(flat[i])
		if err != nil || argc < 1 || argc > constants.MaxArgs {
			return nil, false
		}
		i++
		if i+argc > len(flat) {
			return nil, false
		}

		var a actions.Action
		a.Name = flat[i]
		a.Argc = argc - 1
		for j := 0; j < a.Argc; j++ {
			a.Argv[j] = flat[i+1+j]
		}
		out = append(out, a)
		i += argc
	}
	return out, true
}

func decodeArgc(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0, ferrors.New(ferrors.KindDomain, fmt.Sprintf("manifest: malformed arity field %q", s))
	}
	return n, nil
}

var _ ifaces.ManifestTree = (*Tree)(nil)
