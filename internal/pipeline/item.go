package pipeline

// SourceType labels the origin of an Item. It is carried into normalized
// metadata; the extractor-skip decision uses Item.TextAuthoritative instead.
type SourceType string

const (
	SourceTypeFile            SourceType = "file"
	SourceTypeText            SourceType = "text"
	SourceTypeURI             SourceType = "uri"
	SourceTypeBase64          SourceType = "base64"
	SourceTypeEmail           SourceType = "email"
	SourceTypeEmailAttachment SourceType = "email_attachment"
	SourceTypeWeb             SourceType = "web"
)

// Embedding pairs a chunk's text with its vector. Embeddings are aligned
// 1:1 with Item.Chunks.
type Embedding struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"embedding"`
}

// Item is the mutable envelope flowing through the pipeline. A Source creates
// it, the orchestrator mutates it by applying processor Updates, and it is
// terminal after all Sinks return. Processors never mutate an Item directly.
type Item struct {
	// FileName is a human-readable label; sources may synthesize it
	// ("inline_text", "base64_input", "remote_file").
	FileName string

	// Binary holds the raw bytes to be extracted. Never mutated in place.
	Binary []byte

	// RawText is pre-extracted text. When TextAuthoritative is set the
	// extractor trusts it and skips the binary round-trip.
	RawText string

	// TextAuthoritative marks RawText as the canonical content for this
	// Item (web pages, inline text).
	TextAuthoritative bool

	// SourcePath is the canonical origin: absolute path, URL, or
	// "imap://user@host/mailbox/uid".
	SourcePath string

	SourceType SourceType

	// ContentType is the MIME type when the source knows it (attachments,
	// crawled binaries).
	ContentType string

	// Score is a source-assigned content quality score (crawler, email).
	Score float64

	// UserMetadata is caller-supplied business metadata. Its keys win over
	// extractor-derived keys at merge time.
	UserMetadata map[string]any

	// DocID is assigned by the identity processor and is stable across
	// runs for identical content.
	DocID string

	// Metadata is the normalized extracted metadata plus merged
	// UserMetadata.
	Metadata map[string]any

	CleanText string

	Chunks []string

	Embeddings []Embedding

	// SolrDocs and VectorDocs are the persistence records produced by the
	// assemble processor.
	SolrDocs   []map[string]any
	VectorDocs []map[string]any
}

// Update is the partial field set a processor returns. Nil pointer and nil
// slice/map fields leave the Item untouched; non-nil fields replace the
// Item's value wholesale (an empty non-nil slice clears the field).
type Update struct {
	RawText    *string
	DocID      *string
	CleanText  *string
	Metadata   map[string]any
	Chunks     []string
	Embeddings []Embedding
	SolrDocs   []map[string]any
	VectorDocs []map[string]any

	// DropBinary releases the raw bytes once no later processor needs them.
	DropBinary bool
}

// Apply merges an Update into the Item by key replacement.
func (it *Item) Apply(u *Update) {
	if u == nil {
		return
	}
	if u.RawText != nil {
		it.RawText = *u.RawText
	}
	if u.DocID != nil {
		it.DocID = *u.DocID
	}
	if u.CleanText != nil {
		it.CleanText = *u.CleanText
	}
	if u.Metadata != nil {
		it.Metadata = u.Metadata
	}
	if u.Chunks != nil {
		it.Chunks = u.Chunks
	}
	if u.Embeddings != nil {
		it.Embeddings = u.Embeddings
	}
	if u.SolrDocs != nil {
		it.SolrDocs = u.SolrDocs
	}
	if u.VectorDocs != nil {
		it.VectorDocs = u.VectorDocs
	}
	if u.DropBinary {
		it.Binary = nil
	}
}

// StringPtr is a convenience for building Updates.
func StringPtr(s string) *string {
	return &s
}
