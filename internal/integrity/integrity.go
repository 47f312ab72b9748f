// Package integrity verifies bundled bridge scripts against their sha256
// sidecars before they are injected into containers.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// VerifyBridgeScript checks a script against its "<path>.sha256" sidecar.
// An absent sidecar passes; a present-and-mismatched one fails. Trailing
// whitespace in the sidecar is tolerated.
func VerifyBridgeScript(path string) (bool, error) {
	sidecar, err := os.ReadFile(path + ".sha256")
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("read sidecar: %w", err)
	}

	script, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read script: %w", err)
	}

	sum := sha256.Sum256(script)
	want := strings.TrimSpace(string(sidecar))
	return strings.EqualFold(want, hex.EncodeToString(sum[:])), nil
}
