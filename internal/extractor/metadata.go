package extractor

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/geelink/docingest/internal/identity"
)

// DefaultLanguage applies when the extractor reports none.
const DefaultLanguage = "zh-CN"

// scanProducerKeywords mark PDF producers that are scanning hardware or
// image pipelines.
var scanProducerKeywords = []string{
	"scan", "image", "mfp", "scanner", "canon", "fujitsu",
	"kodak", "hp", "ricoh", "epson", "pdfscan",
}

// NormalizeInput carries everything metadata normalization needs.
type NormalizeInput struct {
	Raw             map[string]any
	DocID           string
	FileName        string
	SourceType      string
	Content         []byte
	Text            string
	IngestionMethod string
}

// Normalize flattens raw extractor metadata into the canonical field set.
// Absent string fields come out as empty strings, page_count as 0.
func Normalize(in NormalizeInput) map[string]any {
	get := func(keys ...string) string {
		for _, k := range keys {
			v, ok := in.Raw[k]
			if !ok || v == nil {
				continue
			}
			switch t := v.(type) {
			case string:
				return t
			case []any:
				if len(t) > 0 {
					if s, ok := t[0].(string); ok {
						return s
					}
				}
			case []string:
				if len(t) > 0 {
					return t[0]
				}
			}
		}
		return ""
	}

	m := map[string]any{}
	m["doc_id"] = in.DocID
	m["source_name"] = in.FileName
	m["source_type"] = in.SourceType
	m["source_size"] = len(in.Content)

	md5Sum := md5.Sum(in.Content)
	sha := sha256.Sum256(in.Content)
	m["content_md5"] = hex.EncodeToString(md5Sum[:])
	m["content_sha256"] = hex.EncodeToString(sha[:])
	m["ingest_at"] = time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")

	title := get("dc:title", "title", "pdf:docinfo:title", "subject")
	if title == "" {
		base := strings.TrimSuffix(in.FileName, filepath.Ext(in.FileName))
		title = identity.CleanFilename(base)
	}
	m["title"] = title
	m["author"] = get("dc:creator", "meta:author", "creator", "Author", "pdf:Author", "pdf:docinfo:creator")
	m["created_at"] = parseDate(get("dcterms:created", "meta:creation-date", "Creation-Date", "date"))
	m["modified_at"] = parseDate(get("dcterms:modified", "Last-Modified", "meta:save-date"))

	lang := get("language", "dc:language", "Content-Language")
	if lang == "" {
		lang = DefaultLanguage
	}
	m["language"] = lang

	pageCount := 0
	if pages := get("xmpTPg:NPages", "pdf:NPages", "Page-Count", "NumberOfPages"); pages != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(pages)); err == nil {
			pageCount = n
		}
	}
	m["page_count"] = pageCount

	var keywords []string
	for _, k := range strings.Split(get("keywords", "meta:keyword", "pdf:Keywords"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if keywords == nil {
		keywords = []string{}
	}
	m["keywords"] = keywords

	m["company"] = get("Company", "dc:publisher")
	m["category"] = get("Category")
	producer := get("pdf:Producer")
	m["producer"] = producer
	m["is_encrypted"] = get("pdf:encrypted") == "true"
	m["is_scanned_pdf"] = detectScannedPDF(in.Text, producer, pageCount)
	m["raw_text_length"] = utf8.RuneCountInString(in.Text)
	m["ingestion_method"] = in.IngestionMethod

	return m
}

// parseDate normalizes extractor date strings to ISO-8601. Unparseable
// values pass through unchanged.
func parseDate(val string) string {
	if val == "" {
		return ""
	}
	s := strings.Replace(val, "Z", "+00:00", 1)
	s = strings.SplitN(s, "+", 2)[0]
	s = strings.SplitN(s, ".", 2)[0]
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02T15:04:05")
		}
	}
	return val
}

// detectScannedPDF flags documents that are images of text rather than text:
// a scanner-branded producer, or almost no text across several pages.
func detectScannedPDF(text, producer string, pageCount int) bool {
	p := strings.ToLower(producer)
	for _, kw := range scanProducerKeywords {
		if strings.Contains(p, kw) {
			return true
		}
	}
	return utf8.RuneCountInString(strings.TrimSpace(text)) < 600 && pageCount > 3
}
