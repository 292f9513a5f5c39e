package dupsig

import (
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed signatures.json
var embeddedCatalog []byte

// SignatureRule describes the expected magic bytes for one file extension.
// A file claiming the extension must match at least one candidate signature
// at Offset. Rules are immutable after catalog load.
type SignatureRule struct {
	Extension  string   // lowercase, no leading dot
	Signatures [][]byte // candidate signatures, checked in order (logical OR)
	Offset     int      // byte offset into the file where the signature starts
	MIME       string   // declared MIME type, used for the secondary sniff check
	Aliases    []string // sniffed extensions also accepted as consistent
}

// MaxSignatureLen returns the length of the longest candidate signature.
func (r *SignatureRule) MaxSignatureLen() int {
	max := 0
	for _, sig := range r.Signatures {
		if len(sig) > max {
			max = len(sig)
		}
	}
	return max
}

// allowsAlias reports whether a sniffed extension is an accepted alias.
func (r *SignatureRule) allowsAlias(ext string) bool {
	for _, a := range r.Aliases {
		if a == ext {
			return true
		}
	}
	return false
}

// Catalog is the loaded extension-to-signature index. It is built once at
// startup and never mutated afterwards.
type Catalog struct {
	rules map[string]*SignatureRule
}

// catalogRecord is the on-disk JSON shape of one catalog entry.
type catalogRecord struct {
	Extension string   `json:"extension"`
	Signature []string `json:"signature"`
	Offset    int      `json:"offset"`
	MIME      string   `json:"mime"`
	Aliases   []string `json:"aliases"`
}

// LoadCatalog loads the embedded signature catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(embeddedCatalog)
}

// ParseCatalog parses catalog data into an indexed Catalog, validating every
// record. Any malformed record fails the whole load with a CatalogLoadError.
func ParseCatalog(data []byte) (*Catalog, error) {
	var records []catalogRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &CatalogLoadError{Reason: "invalid JSON", Err: err}
	}

	rules := make(map[string]*SignatureRule, len(records))
	for i, rec := range records {
		ext := NormalizeExtension(rec.Extension)
		if ext == "" {
			return nil, &CatalogLoadError{Reason: fmt.Sprintf("record %d: missing extension", i)}
		}
		if _, exists := rules[ext]; exists {
			return nil, &CatalogLoadError{Reason: fmt.Sprintf("record %d: duplicate extension %q", i, ext)}
		}
		if len(rec.Signature) == 0 {
			return nil, &CatalogLoadError{Reason: fmt.Sprintf("extension %q: no candidate signatures", ext)}
		}
		if rec.Offset < 0 {
			return nil, &CatalogLoadError{Reason: fmt.Sprintf("extension %q: negative offset %d", ext, rec.Offset)}
		}

		sigs := make([][]byte, 0, len(rec.Signature))
		for _, hexSig := range rec.Signature {
			sig, err := decodeHexSignature(hexSig)
			if err != nil {
				return nil, &CatalogLoadError{Reason: fmt.Sprintf("extension %q: bad signature %q", ext, hexSig), Err: err}
			}
			sigs = append(sigs, sig)
		}

		rules[ext] = &SignatureRule{
			Extension:  ext,
			Signatures: sigs,
			Offset:     rec.Offset,
			MIME:       rec.MIME,
			Aliases:    rec.Aliases,
		}
	}

	return &Catalog{rules: rules}, nil
}

// Rule returns the signature rule for an extension, or nil if unknown.
// The extension must already be normalized.
func (c *Catalog) Rule(ext string) *SignatureRule {
	return c.rules[ext]
}

// Knows reports whether the catalog has a rule for the extension.
func (c *Catalog) Knows(ext string) bool {
	_, ok := c.rules[ext]
	return ok
}

// KnownExtensions returns the sorted list of supported extensions. Used to
// validate user input and to print a help listing for unsupported ones.
func (c *Catalog) KnownExtensions() []string {
	exts := make([]string, 0, len(c.rules))
	for ext := range c.rules {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Len returns the number of loaded rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// NormalizeExtension lowercases an extension and strips any leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// decodeHexSignature decodes a whitespace-insensitive hex string like
// "25 50 44 46" into raw bytes.
func decodeHexSignature(s string) ([]byte, error) {
	compact := strings.Join(strings.Fields(s), "")
	if compact == "" {
		return nil, fmt.Errorf("empty hex signature")
	}
	sig, err := hex.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex signature: %w", err)
	}
	return sig, nil
}
