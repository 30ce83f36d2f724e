// Package etag computes strong ETags for a static site tree and answers
// conditional requests.
//
// Tags are hex SHA-256 digests of file content. Precompressed siblings
// (file.gz, file.br, file.zst, file.zz) are folded into their parent's tag
// set so the correct tag is returned for whichever Content-Encoding the file
// server picked, and an If-None-Match for any variant yields a 304.
package etag

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// encodingExts maps a Content-Encoding token to the sibling file extension
// holding that variant.
var encodingExts = map[string]string{
	"gzip":    ".gz",
	"br":      ".br",
	"zstd":    ".zst",
	"deflate": ".zz",
}

// Tags is the tag set of one resource: the identity tag plus one tag per
// precompressed variant present on disk.
type Tags struct {
	raw     string
	encoded map[string]string
	all     map[string]bool
}

// Raw returns the identity-encoding tag.
func (t *Tags) Raw() string {
	return t.raw
}

// ForEncoding returns the tag for a Content-Encoding token. The empty token
// means identity. Unknown encodings and missing variants report false.
func (t *Tags) ForEncoding(enc string) (string, bool) {
	if enc == "" {
		return t.raw, true
	}
	tag, ok := t.encoded[enc]
	return tag, ok
}

// Contains reports whether value equals any tag of this resource, for
// If-None-Match evaluation.
func (t *Tags) Contains(value string) bool {
	return t.all[value]
}

// Map holds the tag sets of every file under a site root, keyed by request
// path ("/css/site.css"). Immutable after Build.
type Map struct {
	tags map[string]*Tags
}

// Build walks fsys and hashes every regular file. Precompressed variants are
// hashed both as their own entries and as variants of their parent.
func Build(fsys fs.FS) (*Map, error) {
	hashes := map[string]string{}
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return fmt.Errorf("%s: irregular files are not served", path)
		}
		tag, err := hashFile(fsys, path)
		if err != nil {
			return err
		}
		hashes[path] = tag
		return nil
	})
	if err != nil {
		return nil, err
	}

	m := &Map{tags: make(map[string]*Tags, len(hashes))}
	for path, raw := range hashes {
		t := &Tags{
			raw:     raw,
			encoded: map[string]string{},
			all:     map[string]bool{raw: true},
		}
		for enc, ext := range encodingExts {
			if variant, ok := hashes[path+ext]; ok {
				t.encoded[enc] = variant
				t.all[variant] = true
			}
		}
		m.tags["/"+path] = t
	}
	return m, nil
}

// Lookup finds the tag set for a request path. Directory paths must already
// be resolved to their index file by the caller.
func (m *Map) Lookup(path string) (*Tags, bool) {
	t, ok := m.tags[path]
	return t, ok
}

// Len reports the number of tagged resources.
func (m *Map) Len() int {
	return len(m.tags)
}

func hashFile(fsys fs.FS, path string) (string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	var sb strings.Builder
	sb.WriteByte('"')
	sb.WriteString(hex.EncodeToString(h.Sum(nil)))
	sb.WriteByte('"')
	return sb.String(), nil
}
