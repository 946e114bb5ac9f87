package sources

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geelink/docingest/internal/pipeline"
)

func TestFileSource(t *testing.T) {
	src := NewFile("report.pdf", []byte("bytes"), map[string]any{"doc_id": "X"})
	items, err := src.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "report.pdf", items[0].FileName)
	assert.Equal(t, []byte("bytes"), items[0].Binary)
	assert.Equal(t, pipeline.SourceTypeFile, items[0].SourceType)
	assert.Equal(t, "X", items[0].UserMetadata["doc_id"])
}

func TestTextSource(t *testing.T) {
	src := NewText("", "inline content", nil)
	items, err := src.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, "inline_text", items[0].FileName)
	assert.Equal(t, "inline content", items[0].RawText)
	assert.True(t, items[0].TextAuthoritative)
}

func TestBase64RoundTrip(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("hello world"))
	src := NewBase64("", encoded, nil)

	items, err := src.Read(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "base64_input", items[0].FileName)
	assert.Equal(t, []byte("hello world"), items[0].Binary)
	assert.Equal(t, pipeline.SourceTypeBase64, items[0].SourceType)
}

func TestBase64Invalid(t *testing.T) {
	src := NewBase64("", "not base64!!!", nil)
	_, err := src.Read(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrInvalidInput)
}

func TestURILocalFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(p, []byte("local content"), 0o644))

	items, err := NewURI(p, nil).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "doc.txt", items[0].FileName)
	assert.Equal(t, []byte("local content"), items[0].Binary)
	assert.Equal(t, p, items[0].SourcePath)
}

func TestURIDirectoryWalk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("b"), 0o644))

	items, err := NewURI(dir, nil).Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestURIFileScheme(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	items, err := NewURI("file://"+p, nil).Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestURIRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF"))
	}))
	defer srv.Close()

	items, err := NewURI(srv.URL+"/files/Q3%20report.pdf?v=2", nil).Read(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Q3_report.pdf", items[0].FileName)
	assert.Equal(t, []byte("%PDF"), items[0].Binary)
	assert.Equal(t, "application/pdf", items[0].ContentType)
}

func TestURIUnsupportedScheme(t *testing.T) {
	_, err := NewURI("ftp://example.com/x", nil).Read(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrInvalidInput)
}

func TestRemoteFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://a.com/docs/report.pdf", "report.pdf"},
		{"https://a.com/docs/年度 报告.pdf?x=1#frag", "_.pdf"},
		{"https://a.com/", "remote_file"},
		{"https://a.com/a b//", "remote_file"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RemoteFilename(tt.in), tt.in)
	}
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://a.com/docs", NormalizeURL("https://a.com/docs/#section"))
	assert.Equal(t, "https://a.com/", NormalizeURL("https://a.com/"))
	assert.Equal(t, "https://a.com/x?q=1", NormalizeURL("https://a.com/x?q=1"))
}

func TestUIDStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "uids.json")

	st, err := LoadUIDState(path, false)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Len())

	st.Add(10)
	st.Add(11)
	st.Add(12)
	require.NoError(t, st.Save())

	st2, err := LoadUIDState(path, false)
	require.NoError(t, err)
	assert.Equal(t, 3, st2.Len())
	assert.True(t, st2.Contains(11))
	assert.False(t, st2.Contains(13))

	reset, err := LoadUIDState(path, true)
	require.NoError(t, err)
	assert.Equal(t, 0, reset.Len())
}

func TestPickNewUIDsIncremental(t *testing.T) {
	st, err := LoadUIDState("", false)
	require.NoError(t, err)

	first := pickNewUIDs([]imap.UID{12, 10, 11, 11}, st, 50)
	assert.Equal(t, []imap.UID{10, 11, 12}, first)
	for _, uid := range first {
		st.Add(uid)
	}

	// Same mailbox again: nothing new.
	assert.Empty(t, pickNewUIDs([]imap.UID{10, 11, 12}, st, 50))

	// One new message arrives.
	assert.Equal(t, []imap.UID{13}, pickNewUIDs([]imap.UID{10, 11, 12, 13}, st, 50))
}

func TestPickNewUIDsKeepsNewest(t *testing.T) {
	st, err := LoadUIDState("", false)
	require.NoError(t, err)

	got := pickNewUIDs([]imap.UID{1, 2, 3, 4, 5}, st, 2)
	assert.Equal(t, []imap.UID{4, 5}, got)
}
