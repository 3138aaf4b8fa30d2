package domain

import (
	"strings"
	"time"
)

// Collection naming limits.
const (
	// MaxCollectionNameLength bounds the sanitized name part of a collection ID.
	MaxCollectionNameLength = 40

	// CollectionHashLength is the number of hash characters appended to the name.
	CollectionHashLength = 8
)

// Collection is the persisted set of chunk/vector pairs for one ingested document.
type Collection struct {
	// ID is the sanitized name plus a short content-hash suffix.
	ID string

	// Name is the original document name.
	Name string

	// ContentHash is the full hex SHA-256 of the source document.
	ContentHash string

	// Dimensions is fixed by the first Add. Zero means no vectors yet.
	Dimensions int

	// Count is the number of stored chunks.
	Count int

	// EmbeddingModel names the model that produced the vectors.
	EmbeddingModel string

	// CreatedAt is when the collection was first created.
	CreatedAt time.Time
}

// CollectionID derives a collection identifier from a document name and its content hash.
// The name is stripped of a .pdf extension, reduced to [A-Za-z0-9._-] and truncated,
// then suffixed with the first CollectionHashLength characters of the hash.
func CollectionID(name, contentHash string) string {
	base := SanitizeName(name)
	suffix := contentHash
	if len(suffix) > CollectionHashLength {
		suffix = suffix[:CollectionHashLength]
	}
	if suffix == "" {
		return base
	}
	return base + "_" + suffix
}

// SanitizeName replaces every character outside [A-Za-z0-9._-] with an underscore
// and truncates the result to MaxCollectionNameLength bytes.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name = name[:len(name)-4]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= MaxCollectionNameLength {
			break
		}
	}

	out := b.String()
	if len(out) > MaxCollectionNameLength {
		out = out[:MaxCollectionNameLength]
	}
	if strings.Trim(out, "_") == "" {
		return "doc"
	}
	return out
}

// Scope selects the collections a question is asked against.
// The zero value and ScopeAll both mean every collection.
type Scope string

// ScopeAll queries every collection and merges the candidates.
const ScopeAll Scope = "all"

// IsAll reports whether the scope covers every collection.
func (s Scope) IsAll() bool {
	return s == "" || s == ScopeAll
}

// CollectionID returns the single collection named by the scope, or "" for all.
func (s Scope) CollectionID() string {
	if s.IsAll() {
		return ""
	}
	return string(s)
}

// String returns the string representation.
func (s Scope) String() string {
	if s.IsAll() {
		return string(ScopeAll)
	}
	return string(s)
}
