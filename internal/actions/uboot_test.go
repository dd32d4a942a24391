package actions

import (
	"testing"

	"github.com/lkc-technologies/fwact/internal/constants"
	"github.com/lkc-technologies/fwact/internal/ubootenv"
)

func ubootTree(offsetBlocks, sizeBytes string) *fakeTree {
	tree := newFakeTree()
	tree.ubootEnvs["uboot-env"] = map[string]string{
		"offset_blocks": offsetBlocks,
		"size_bytes":    sizeBytes,
	}
	return tree
}

func TestUbootClearenvWritesFreshBlock(t *testing.T) {
	tree := ubootTree("0", "512")
	cache := newFakeCache(4096)
	ctx := newTestContext(KindGlobal, cache, tree)
	bindAction(ctx, "uboot_clearenv", "uboot-env")

	if err := ubootEnvNameValidate(ctx); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := ubootClearenvRun(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	buf := cache.bytes()[:512]
	env, err := ubootenv.Parse(buf, 512)
	if err != nil {
		t.Fatalf("Parse written block: %v", err)
	}
	_ = env
}

func TestUbootSetenvThenUnsetenv(t *testing.T) {
	tree := ubootTree("0", "512")
	cache := newFakeCache(4096)
	ctx := newTestContext(KindGlobal, cache, tree)

	bindAction(ctx, "uboot_setenv", "uboot-env", "bootargs", "console=ttyS0")
	if err := ubootSetenvValidate(ctx); err != nil {
		t.Fatalf("setenv validate: %v", err)
	}
	if err := ubootSetenvRun(ctx); err != nil {
		t.Fatalf("setenv run: %v", err)
	}

	loc, _, err := resolveEnvLoc(ctx, "uboot-env")
	if err != nil {
		t.Fatalf("resolveEnvLoc: %v", err)
	}
	env, err := readEnv(ctx, loc, false)
	if err != nil {
		t.Fatalf("readEnv after setenv: %v", err)
	}
	buf, _ := env.Serialize()
	if !containsKV(buf, "bootargs=console=ttyS0") {
		t.Fatal("expected bootargs to be set after uboot_setenv")
	}

	bindAction(ctx, "uboot_unsetenv", "uboot-env", "bootargs")
	if err := ubootUnsetenvValidate(ctx); err != nil {
		t.Fatalf("unsetenv validate: %v", err)
	}
	if err := ubootUnsetenvRun(ctx); err != nil {
		t.Fatalf("unsetenv run: %v", err)
	}

	env2, err := readEnv(ctx, loc, false)
	if err != nil {
		t.Fatalf("readEnv after unsetenv: %v", err)
	}
	buf2, _ := env2.Serialize()
	if containsKV(buf2, "bootargs=console=ttyS0") {
		t.Fatal("expected bootargs to be gone after uboot_unsetenv")
	}
}

func containsKV(buf []byte, kv string) bool {
	for i := 0; i+len(kv) <= len(buf); i++ {
		if string(buf[i:i+len(kv)]) == kv {
			return true
		}
	}
	return false
}

func TestUbootRecoverAbsorbsCorruptChecksum(t *testing.T) {
	tree := ubootTree("0", "512")
	cache := newFakeCache(4096)
	ctx := newTestContext(KindGlobal, cache, tree)

	// Plant a corrupt environment block directly: a zeroed CRC header
	// against a non-empty, non-matching body.
	corrupt := make([]byte, 512)
	corrupt[4] = 'x'
	if _, err := cache.WriteAt(corrupt, 0, false); err != nil {
		t.Fatalf("seeding corrupt block: %v", err)
	}

	bindAction(ctx, "uboot_recover", "uboot-env")
	if err := ubootEnvNameValidate(ctx); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := ubootRecoverRun(ctx); err != nil {
		t.Fatalf("expected uboot_recover to absorb a corrupt block, got: %v", err)
	}

	loc, _, err := resolveEnvLoc(ctx, "uboot-env")
	if err != nil {
		t.Fatalf("resolveEnvLoc: %v", err)
	}
	if _, err := readEnv(ctx, loc, false); err != nil {
		t.Fatalf("expected the recovered block to parse cleanly, got: %v", err)
	}
}

func TestUbootSetenvRunPropagatesCorruptChecksum(t *testing.T) {
	tree := ubootTree("0", "512")
	cache := newFakeCache(4096)
	ctx := newTestContext(KindGlobal, cache, tree)

	corrupt := make([]byte, 512)
	corrupt[4] = 'x'
	if _, err := cache.WriteAt(corrupt, 0, false); err != nil {
		t.Fatalf("seeding corrupt block: %v", err)
	}

	bindAction(ctx, "uboot_setenv", "uboot-env", "k", "v")
	if err := ubootSetenvRun(ctx); err == nil {
		t.Fatal("expected uboot_setenv to propagate a corrupt checksum, not absorb it")
	}
}

func TestResolveEnvLocUsesBlockSize(t *testing.T) {
	tree := ubootTree("8", "512")
	ctx := newTestContext(KindGlobal, newFakeCache(4096*2), tree)
	loc, _, err := resolveEnvLoc(ctx, "uboot-env")
	if err != nil {
		t.Fatalf("resolveEnvLoc: %v", err)
	}
	if loc.OffsetBlocks != 8 || loc.SizeBytes != 512 {
		t.Fatalf("loc = %+v", loc)
	}
	if got := loc.OffsetBlocks * constants.BlockSize; got != 8*constants.BlockSize {
		t.Errorf("byte offset = %d, want %d", got, 8*constants.BlockSize)
	}
}
