package build

import (
	"fmt"
	"hash/crc32"
	"os"
	"strconv"

	"github.com/conneroisu/keymapgen/internal/catalog"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Fingerprint identifies one generation input: the catalog rows in order plus
// any option strings that shape the output. Equal fingerprints render equal
// artifacts.
func Fingerprint(c *catalog.Catalog, parts ...string) string {
	h := crc32.New(castagnoli)
	for _, k := range c.Keys() {
		fmt.Fprintf(h, "%08x\x1f%s\x1f%s\x1f%s\x1e", k.Code, k.EventCode, k.Scancode, k.Target)
	}
	for _, p := range parts {
		fmt.Fprintf(h, "\x1d%s", p)
	}
	return fmt.Sprintf("%08x", h.Sum32())
}

// FileHasher computes content hashes of files with a metadata-keyed cache:
// a file whose path, mtime and size are unchanged is not read again.
type FileHasher struct {
	cache *Cache
}

// NewFileHasher creates a hasher backed by cache.
func NewFileHasher(cache *Cache) *FileHasher {
	return &FileHasher{cache: cache}
}

// Hash returns the CRC32 Castagnoli of the file at path in hex.
func (fh *FileHasher) Hash(path string) (string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	metadataKey := fmt.Sprintf("%s:%d:%d", path, stat.ModTime().UnixNano(), stat.Size())
	if hash, found := fh.cache.Get(metadataKey); found {
		return string(hash), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	hash := strconv.FormatUint(uint64(crc32.Checksum(content, castagnoli)), 16)
	fh.cache.Set(metadataKey, []byte(hash))
	return hash, nil
}
