package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "bridge.sh")
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVerifyMissingSidecarPasses(t *testing.T) {
	path := writeScript(t, t.TempDir(), "#!/bin/sh\necho hi\n")
	ok, err := VerifyBridgeScript(path)
	if err != nil || !ok {
		t.Errorf("ok = %v err = %v", ok, err)
	}
}

func TestVerifyMatchingSidecarPasses(t *testing.T) {
	body := "#!/bin/sh\necho hi\n"
	path := writeScript(t, t.TempDir(), body)
	sum := sha256.Sum256([]byte(body))
	// Trailing newline in the sidecar must be tolerated.
	if err := os.WriteFile(path+".sha256", []byte(hex.EncodeToString(sum[:])+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	ok, err := VerifyBridgeScript(path)
	if err != nil || !ok {
		t.Errorf("ok = %v err = %v", ok, err)
	}
}

func TestVerifyMismatchedSidecarFails(t *testing.T) {
	path := writeScript(t, t.TempDir(), "#!/bin/sh\necho hi\n")
	if err := os.WriteFile(path+".sha256", []byte("deadbeef"), 0o644); err != nil {
		t.Fatal(err)
	}
	ok, err := VerifyBridgeScript(path)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("mismatch must fail verification")
	}
}
