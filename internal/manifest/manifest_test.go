package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lkc-technologies/fwact/internal/sparsemap"
)

const sampleManifest = `{
	// rootfs.img is staged over the archive stream at apply time.
	"file-resource": {
		"rootfs.img": {
			"blake2b-256": "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b85",
			"segments": [
				{"kind": "data", "length": 1024},
				{"kind": "hole", "length": 512},
			],
		},
	},
	"mbr": {
		"main": {
			"partition.0": "1,131,2048,1048576",
		},
	},
	"uboot-environment": {
		"uboot-env": {
			"offset_blocks": "4096",
			"size_bytes": "8192",
		},
	},
	"events": {
		"flash": ["2", "raw_write", "2048"],
	},
}
`

func TestParseAndSection(t *testing.T) {
	tree, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	sec, ok := tree.Section("file-resource", "rootfs.img")
	if !ok {
		t.Fatal("expected file-resource rootfs.img to exist")
	}

	hash, ok := tree.String(sec, "blake2b-256")
	if !ok || hash != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b85" {
		t.Errorf("blake2b-256 = %q, ok=%v", hash, ok)
	}

	if _, ok := tree.Section("file-resource", "missing.img"); ok {
		t.Error("expected missing.img to not resolve")
	}
}

func TestSparseMap(t *testing.T) {
	tree, err := Parse([]byte(sampleManifest))
	require.NoError(t, err)
	sec, _ := tree.Section("file-resource", "rootfs.img")

	m, ok := tree.SparseMap(sec)
	require.True(t, ok, "expected a sparse map")
	want := sparsemap.Map{Segments: []sparsemap.Segment{
		{Kind: sparsemap.Data, Length: 1024},
		{Kind: sparsemap.Hole, Length: 512},
	}}
	require.Equal(t, want.Segments, m.Segments)
}

func TestMBRAndUbootSections(t *testing.T) {
	tree, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	mbrSec, ok := tree.Section("mbr", "main")
	if !ok {
		t.Fatal("expected mbr section main")
	}
	if v, ok := tree.String(mbrSec, "partition.0"); !ok || v != "1,131,2048,1048576" {
		t.Errorf("partition.0 = %q, ok=%v", v, ok)
	}

	envSec, ok := tree.Section("uboot-environment", "uboot-env")
	if !ok {
		t.Fatal("expected uboot-environment section uboot-env")
	}
	if v, ok := tree.String(envSec, "size_bytes"); !ok || v != "8192" {
		t.Errorf("size_bytes = %q, ok=%v", v, ok)
	}
}

func TestEventNamesAndActions(t *testing.T) {
	tree, err := Parse([]byte(sampleManifest))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	names := tree.EventNames()
	if len(names) != 1 || names[0] != "flash" {
		t.Fatalf("EventNames() = %v, want [flash]", names)
	}

	list, ok := tree.Actions("flash")
	if !ok {
		t.Fatal("expected flash event to decode")
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 action, got %d", len(list))
	}
	a := list[0]
	if a.Name != "raw_write" || a.Argc != 1 || a.Argv[0] != "2048" {
		t.Errorf("unexpected action: %+v", a)
	}

	if _, ok := tree.Actions("no-such-event"); ok {
		t.Error("expected unknown event to return ok=false")
	}
}

func TestActionsRejectsMalformedArity(t *testing.T) {
	bad := `{"events": {"bad": ["not-a-number", "raw_write"]}}`
	tree, err := Parse([]byte(bad))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := tree.Actions("bad"); ok {
		t.Error("expected malformed arity to fail decoding")
	}
}

func TestNthString(t *testing.T) {
	tree := &Tree{}
	if v, ok := tree.NthString([]string{"a", "b"}, 1); !ok || v != "b" {
		t.Errorf("NthString(1) = %q, ok=%v", v, ok)
	}
	if _, ok := tree.NthString([]string{"a"}, 5); ok {
		t.Error("expected out-of-range index to return ok=false")
	}
}
