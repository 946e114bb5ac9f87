// Package sources produces pipeline Items from external origins: uploaded
// bytes, inline text, local and remote URIs, IMAP mailboxes, and crawled
// websites.
package sources

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/geelink/docingest/internal/pipeline"
)

// File wraps caller-uploaded bytes as a single Item.
type File struct {
	fileName string
	data     []byte
	userMeta map[string]any
}

var _ pipeline.Source = (*File)(nil)

// NewFile creates a file source for already-loaded bytes.
func NewFile(fileName string, data []byte, userMeta map[string]any) *File {
	return &File{fileName: fileName, data: data, userMeta: userMeta}
}

func (s *File) Name() string { return "file" }

func (s *File) Read(ctx context.Context) ([]*pipeline.Item, error) {
	return []*pipeline.Item{{
		FileName:     s.fileName,
		Binary:       s.data,
		SourceType:   pipeline.SourceTypeFile,
		UserMetadata: s.userMeta,
	}}, nil
}

// Text wraps inline text as a single Item.
type Text struct {
	fileName string
	text     string
	userMeta map[string]any
}

var _ pipeline.Source = (*Text)(nil)

// NewText creates a text source. An empty fileName becomes "inline_text".
func NewText(fileName, text string, userMeta map[string]any) *Text {
	if fileName == "" {
		fileName = "inline_text"
	}
	return &Text{fileName: fileName, text: text, userMeta: userMeta}
}

func (s *Text) Name() string { return "text" }

func (s *Text) Read(ctx context.Context) ([]*pipeline.Item, error) {
	return []*pipeline.Item{{
		FileName:          s.fileName,
		RawText:           s.text,
		TextAuthoritative: true,
		SourceType:        pipeline.SourceTypeText,
		UserMetadata:      s.userMeta,
	}}, nil
}

// Base64 decodes caller-supplied base64 content into a file-like Item.
type Base64 struct {
	fileName string
	content  string
	userMeta map[string]any
}

var _ pipeline.Source = (*Base64)(nil)

// NewBase64 creates a base64 source. An empty fileName becomes
// "base64_input".
func NewBase64(fileName, content string, userMeta map[string]any) *Base64 {
	if fileName == "" {
		fileName = "base64_input"
	}
	return &Base64{fileName: fileName, content: content, userMeta: userMeta}
}

func (s *Base64) Name() string { return "base64" }

func (s *Base64) Read(ctx context.Context) ([]*pipeline.Item, error) {
	data, err := base64.StdEncoding.DecodeString(s.content)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 content: %v; %w", err, pipeline.ErrInvalidInput)
	}
	return []*pipeline.Item{{
		FileName:     s.fileName,
		Binary:       data,
		SourceType:   pipeline.SourceTypeBase64,
		UserMetadata: s.userMeta,
	}}, nil
}
