package sources

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/emersion/go-imap/v2"
)

// UIDState is the persisted set of mailbox UIDs already ingested. The file
// holds a JSON array of decimal-string UIDs.
type UIDState struct {
	path string

	mu   sync.Mutex
	seen map[imap.UID]struct{}
}

// LoadUIDState reads the state file at path. A missing file or reset=true
// yields an empty state; a corrupt file is an error.
func LoadUIDState(path string, reset bool) (*UIDState, error) {
	st := &UIDState{path: path, seen: make(map[imap.UID]struct{})}
	if reset || path == "" {
		return st, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, fmt.Errorf("reading uid state %s; %w", path, err)
	}

	var uids []string
	if err := json.Unmarshal(raw, &uids); err != nil {
		return nil, fmt.Errorf("decoding uid state %s; %w", path, err)
	}
	for _, s := range uids {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("uid state %s holds non-numeric uid %q; %w", path, s, err)
		}
		st.seen[imap.UID(n)] = struct{}{}
	}
	return st, nil
}

// Contains reports whether uid was ingested before.
func (st *UIDState) Contains(uid imap.UID) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.seen[uid]
	return ok
}

// Add marks uid as ingested.
func (st *UIDState) Add(uid imap.UID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.seen[uid] = struct{}{}
}

// Len returns the number of seen UIDs.
func (st *UIDState) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.seen)
}

// Save writes the state back to disk atomically.
func (st *UIDState) Save() error {
	if st.path == "" {
		return nil
	}

	st.mu.Lock()
	uids := make([]string, 0, len(st.seen))
	for uid := range st.seen {
		uids = append(uids, strconv.FormatUint(uint64(uid), 10))
	}
	st.mu.Unlock()

	raw, err := json.Marshal(uids)
	if err != nil {
		return fmt.Errorf("encoding uid state; %w", err)
	}

	tmp := st.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return fmt.Errorf("creating state dir; %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing uid state; %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("replacing uid state; %w", err)
	}
	return nil
}
