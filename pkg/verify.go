package dupsig

import (
	"bytes"
	"io"
	"os"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
)

// VerificationResult is the tri-state outcome of checking one candidate file.
type VerificationResult int

const (
	// Accepted means the file's magic bytes match a catalog signature and
	// the content sniff agrees.
	Accepted VerificationResult = iota
	// SignatureMismatch means the bytes at the expected offset match no
	// candidate signature for the claimed extension, or the file could not
	// be read. Per-file, non-fatal.
	SignatureMismatch
	// ExtensionUnknown means no catalog rule exists for the extension.
	// Fatal for the whole run, reported before any scanning starts.
	ExtensionUnknown
)

func (r VerificationResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case SignatureMismatch:
		return "signature-mismatch"
	case ExtensionUnknown:
		return "extension-unknown"
	default:
		return "invalid"
	}
}

// Verifier checks candidate files against the signature catalog. It is
// read-only and safe to reuse across files.
type Verifier struct {
	catalog *Catalog
}

// NewVerifier creates a verifier backed by a loaded catalog.
func NewVerifier(catalog *Catalog) *Verifier {
	return &Verifier{catalog: catalog}
}

// Verify confirms that the file at path really is of the type its extension
// claims. Only the file header is read, never the whole file: at most
// offset + max(signature length) bytes, with a floor of minHeaderPeek so the
// content sniff has enough data.
func (v *Verifier) Verify(path, extension string) VerificationResult {
	ext := NormalizeExtension(extension)
	rule := v.catalog.Rule(ext)
	if rule == nil {
		return ExtensionUnknown
	}

	header, err := readHeader(path, rule.Offset+rule.MaxSignatureLen())
	if err != nil {
		// File disappeared or became unreadable between enumeration and
		// verification. Non-fatal: record as a mismatch, keep scanning.
		if IsDebugEnabled("verify") {
			VerboseLog(2, "verify: cannot read %s: %v", path, err)
		}
		return SignatureMismatch
	}

	if !matchesAnySignature(header, rule) {
		return SignatureMismatch
	}

	if !v.sniffAgrees(header, rule) {
		if IsDebugEnabled("verify") {
			VerboseLog(2, "verify: content sniff disagrees for %s", path)
		}
		return SignatureMismatch
	}

	return Accepted
}

// matchesAnySignature checks the candidate signatures in rule order until one
// matches at rule.Offset (logical OR across candidates).
func matchesAnySignature(header []byte, rule *SignatureRule) bool {
	for _, sig := range rule.Signatures {
		end := rule.Offset + len(sig)
		if end > len(header) {
			continue
		}
		if bytes.Equal(header[rule.Offset:end], sig) {
			return true
		}
	}
	return false
}

// sniffAgrees is the secondary confirmation step: the header is sniffed with
// filetype, and a recognized content type must be consistent with the rule
// (same MIME, same extension, or a declared alias). An unrecognized header is
// consistent by definition: the catalog covers offset-based formats the
// sniffer does not.
func (v *Verifier) sniffAgrees(header []byte, rule *SignatureRule) bool {
	kind, err := filetype.Match(header)
	if err != nil || kind == types.Unknown {
		return true
	}
	if kind.MIME.Value == rule.MIME || kind.Extension == rule.Extension {
		return true
	}
	return rule.allowsAlias(kind.Extension)
}

// readHeader reads up to max(n, minHeaderPeek) bytes from the start of path.
// A short file yields a short header; signature comparison handles that.
func readHeader(path string, n int) ([]byte, error) {
	if n < minHeaderPeek {
		n = minHeaderPeek
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	header := make([]byte, n)
	read, err := io.ReadFull(file, header)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return header[:read], nil
	}
	if err != nil {
		return nil, err
	}
	return header, nil
}
