package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"golang.org/x/sync/semaphore"

	"github.com/geelink/docingest/internal/identity"
	"github.com/geelink/docingest/internal/pipeline"
)

// IMAP source defaults.
const (
	DefaultIMAPPort        = 993
	DefaultIMAPMailbox     = "INBOX"
	DefaultIMAPMaxEmails   = 50
	DefaultIMAPConcurrency = 5
)

// IMAPConfig parameterizes one mailbox ingestion run.
type IMAPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	Mailbox     string
	DisableTLS  bool
	MaxEmails   int
	Concurrency int
	StateFile   string
	ResetState  bool
}

func (c *IMAPConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultIMAPPort
	}
	if c.Mailbox == "" {
		c.Mailbox = DefaultIMAPMailbox
	}
	if c.MaxEmails <= 0 {
		c.MaxEmails = DefaultIMAPMaxEmails
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultIMAPConcurrency
	}
}

// IMAP ingests unseen messages from a mailbox. Each message yields one body
// Item plus one Item per attachment; processed UIDs persist across runs so
// re-ingestion only picks up new mail.
type IMAP struct {
	cfg      IMAPConfig
	userMeta map[string]any
	logger   *slog.Logger
}

var _ pipeline.Source = (*IMAP)(nil)

// NewIMAP creates an IMAP source.
func NewIMAP(cfg IMAPConfig, userMeta map[string]any) *IMAP {
	cfg.applyDefaults()
	return &IMAP{
		cfg:      cfg,
		userMeta: userMeta,
		logger:   slog.Default().With("component", "source", "source", "imap", "host", cfg.Host),
	}
}

func (s *IMAP) Name() string { return "imap" }

// Read connects, selects the mailbox, and fetches the newest unseen messages
// under bounded concurrency. Connection or login failures yield an empty
// batch; per-message failures are logged and skipped.
func (s *IMAP) Read(ctx context.Context) ([]*pipeline.Item, error) {
	state, err := LoadUIDState(s.cfg.StateFile, s.cfg.ResetState)
	if err != nil {
		return nil, fmt.Errorf("loading imap state; %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var client *imapclient.Client
	if s.cfg.DisableTLS {
		client, err = imapclient.DialInsecure(addr, nil)
	} else {
		client, err = imapclient.DialTLS(addr, nil)
	}
	if err != nil {
		s.logger.Error("imap connect failed", "error", err)
		return []*pipeline.Item{}, nil
	}
	defer func() {
		if err := client.Logout().Wait(); err != nil {
			s.logger.Warn("imap logout failed", "error", err)
		}
	}()

	if err := client.Login(s.cfg.Username, s.cfg.Password).Wait(); err != nil {
		s.logger.Error("imap login failed", "error", err)
		return []*pipeline.Item{}, nil
	}
	if _, err := client.Select(s.cfg.Mailbox, nil).Wait(); err != nil {
		s.logger.Error("imap select failed", "mailbox", s.cfg.Mailbox, "error", err)
		return []*pipeline.Item{}, nil
	}

	searchData, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		s.logger.Error("imap search failed", "error", err)
		return []*pipeline.Item{}, nil
	}

	uids := pickNewUIDs(searchData.AllUIDs(), state, s.cfg.MaxEmails)
	s.logger.Info("mailbox scanned",
		"mailbox", s.cfg.Mailbox, "new_messages", len(uids), "seen_before", state.Len())

	sem := semaphore.NewWeighted(int64(s.cfg.Concurrency))
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*pipeline.Item
	)
	for _, uid := range uids {
		uid := uid
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			items, err := s.fetchMessage(ctx, client, uid)
			if err != nil {
				s.logger.Warn("message fetch failed", "uid", uid, "error", err)
				return
			}
			state.Add(uid)
			mu.Lock()
			results = append(results, items...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if err := state.Save(); err != nil {
		s.logger.Error("persisting imap state failed", "error", err)
	}
	return results, nil
}

// pickNewUIDs dedupes and sorts the mailbox UIDs, drops already-seen ones,
// and keeps the newest max.
func pickNewUIDs(all []imap.UID, state *UIDState, max int) []imap.UID {
	unique := make(map[imap.UID]struct{}, len(all))
	var uids []imap.UID
	for _, uid := range all {
		if _, dup := unique[uid]; dup {
			continue
		}
		unique[uid] = struct{}{}
		if !state.Contains(uid) {
			uids = append(uids, uid)
		}
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	if len(uids) > max {
		uids = uids[len(uids)-max:]
	}
	return uids
}

func (s *IMAP) fetchMessage(ctx context.Context, client *imapclient.Client, uid imap.UID) ([]*pipeline.Item, error) {
	section := &imap.FetchItemBodySection{}
	msgs, err := client.Fetch(imap.UIDSetNum(uid), &imap.FetchOptions{
		BodySection: []*imap.FetchItemBodySection{section},
	}).Collect()
	if err != nil {
		return nil, fmt.Errorf("uid fetch; %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("uid %d not returned by server", uid)
	}
	body := msgs[0].FindBodySection(section)
	if len(body) == 0 {
		return nil, fmt.Errorf("uid %d has no body", uid)
	}
	return s.parseMessage(body, uid)
}

type attachment struct {
	name        string
	contentType string
	data        []byte
}

func (s *IMAP) parseMessage(raw []byte, uid imap.UID) ([]*pipeline.Item, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing message; %w", err)
	}

	subject, _ := mr.Header.Subject()
	if subject == "" {
		subject = "no_subject"
	}
	dateStr := mr.Header.Get("Date")
	sender := ""
	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		sender = addrs[0].Address
	}

	var plain, htmlSrc strings.Builder
	var attachments []attachment
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Warn("unreadable mime part", "uid", uid, "error", err)
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			ct, _, _ := h.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			switch {
			case ct == "text/html":
				htmlSrc.Write(data)
			case strings.HasPrefix(ct, "text/"):
				plain.Write(data)
			}
		case *mail.AttachmentHeader:
			name, _ := h.Filename()
			if name == "" {
				continue
			}
			ct, _, _ := h.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			attachments = append(attachments, attachment{name: name, contentType: ct, data: data})
		}
	}

	text := plain.String()
	if htmlSrc.Len() > 0 {
		text += extractArticleText(htmlSrc.String(), "")
	}
	text = strings.TrimSpace(text)
	score := float64(utf8.RuneCountInString(text))

	parentID := identity.ShortHash(subject, dateStr, sender)
	basePath := fmt.Sprintf("imap://%s@%s/%s/%d", s.cfg.Username, s.cfg.Host, s.cfg.Mailbox, uid)

	bodyMeta := map[string]any{
		"subject":       subject,
		"from":          sender,
		"date":          dateStr,
		"content_score": score,
	}
	for k, v := range s.userMeta {
		bodyMeta[k] = v
	}

	items := []*pipeline.Item{{
		FileName:     subject + ".txt",
		Binary:       []byte(text),
		RawText:      text,
		SourcePath:   basePath,
		SourceType:   pipeline.SourceTypeEmail,
		Score:        score,
		DocID:        parentID,
		UserMetadata: bodyMeta,
	}}

	for _, att := range attachments {
		attMeta := map[string]any{
			"subject":      subject,
			"from":         sender,
			"date":         dateStr,
			"content_type": att.contentType,
		}
		for k, v := range s.userMeta {
			attMeta[k] = v
		}
		items = append(items, &pipeline.Item{
			FileName:     att.name,
			Binary:       att.data,
			ContentType:  att.contentType,
			SourcePath:   basePath + "/attachment/" + att.name,
			SourceType:   pipeline.SourceTypeEmailAttachment,
			DocID:        identity.ShortHash(parentID, att.name),
			UserMetadata: attMeta,
		})
	}
	return items, nil
}
