// Package identity computes stable document identifiers. The same bytes under
// the same filename always produce the same doc_id across runs and processes.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// DefaultSourceSystem tags documents whose caller did not declare an origin
// system.
const DefaultSourceSystem = "rag_upload"

// DefaultNamespaceSeed is the seed for deterministic persistence UUIDs.
const DefaultNamespaceSeed = "com.geelink.2025"

// garbage is the punctuation stripped from filenames before hashing. Covers
// ASCII punctuation plus the full-width and typographic quote/bracket forms
// that show up in Chinese document names.
const garbage = "!\"#$%&'()*+,-/:;<=>?@[\\]^_`{|}~“”‘’《》〈〉‹›«»„“‟′″‵′〃＂【】"

// CleanFilename strips garbage punctuation, then keeps only CJK Unified
// Ideographs, ASCII alphanumerics, underscore, dot, and hyphen.
func CleanFilename(name string) string {
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(garbage, r) {
			return -1
		}
		return r
	}, name)

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		switch {
		case r >= 0x4e00 && r <= 0x9fff:
			b.WriteRune(r)
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '.' || r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StableDocID returns the document identifier for the given content.
//
// A non-blank preferred id wins verbatim (trimmed). Otherwise the id is
// "{sourceSystem}_" plus the first 16 hex characters of
// sha256(cleanFilename || 0x00 0x00 || content).
func StableDocID(content []byte, fileName, preferred, sourceSystem string) string {
	if trimmed := strings.TrimSpace(preferred); trimmed != "" {
		return trimmed
	}
	if sourceSystem == "" {
		sourceSystem = DefaultSourceSystem
	}

	h := sha256.New()
	h.Write([]byte(CleanFilename(fileName)))
	h.Write([]byte{0, 0}) // separator so name/content boundaries cannot collide
	h.Write(content)

	return sourceSystem + "_" + hex.EncodeToString(h.Sum(nil))[:16]
}

// ShortHash returns the first 16 hex characters of sha256 over the
// concatenated parts. Used for email body and attachment ids.
func ShortHash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// PersistenceID returns the deterministic UUIDv5 (DNS namespace) for a
// document or chunk id, qualified by the namespace seed.
func PersistenceID(namespaceSeed, docID string) string {
	if namespaceSeed == "" {
		namespaceSeed = DefaultNamespaceSeed
	}
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(namespaceSeed+":"+docID)).String()
}
