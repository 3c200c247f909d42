package store

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/deemkeen/dodo/util"
)

const StateFileName = "state.json"

// DismissalRetention is how long a dismissal stays valid regardless of
// reply-count changes.
const DismissalRetention = 30 * 24 * time.Hour

type dismissalRecord struct {
	ReplyCount  int       `json:"reply_count"`
	DismissedAt time.Time `json:"dismissed_at"`
}

type stateDoc struct {
	Username    string                     `json:"username,omitempty"`
	Dismissed   map[string]dismissalRecord `json:"dismissed"`
	RepliedTo   map[string]time.Time       `json:"replied_to"`
	LastChecked *time.Time                 `json:"last_checked,omitempty"`
}

// Store is the single JSON document holding identity, dismissals, reply
// tracking and the last-checked timestamp. Every mutation persists the
// whole document back to disk; write failures are logged and swallowed
// because state loss beats crashing the agent mid-conversation.
type Store struct {
	path string
	mu   sync.Mutex
	data stateDoc
	now  func() time.Time
}

// NewStore loads the state document at path. A missing or unparseable
// file is treated as an empty store, never an error.
func NewStore(path string) *Store {
	s := &Store{
		path: path,
		now:  time.Now,
	}
	s.data = emptyDoc()

	buf, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("State file %s unreadable, starting empty: %v", path, err)
		}
		return s
	}
	var doc stateDoc
	if err := json.Unmarshal(buf, &doc); err != nil {
		log.Printf("State file %s corrupt, starting empty: %v", path, err)
		return s
	}
	if doc.Dismissed == nil {
		doc.Dismissed = make(map[string]dismissalRecord)
	}
	if doc.RepliedTo == nil {
		doc.RepliedTo = make(map[string]time.Time)
	}
	s.data = doc
	return s
}

// DefaultStatePath resolves the state file under the user config dir.
func DefaultStatePath() string {
	return util.ResolveFilePath(StateFileName)
}

func emptyDoc() stateDoc {
	return stateDoc{
		Dismissed: make(map[string]dismissalRecord),
		RepliedTo: make(map[string]time.Time),
	}
}

// save persists the whole document. Callers must hold the mutex.
func (s *Store) save() {
	buf, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		log.Printf("Could not marshal state: %v", err)
		return
	}
	if dir := filepath.Dir(s.path); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	if err := os.WriteFile(s.path, buf, 0644); err != nil {
		log.Printf("Could not write state file %s: %v", s.path, err)
	}
}

// GetIdentity returns the authenticated handle, if one is set.
func (s *Store) GetIdentity() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Username, s.data.Username != ""
}

// SetIdentity stores the authenticated handle, normalized.
func (s *Store) SetIdentity(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Username = util.NormalizeHandle(handle)
	s.save()
}

// ResetAll clears identity, dismissals, reply tracking and last-checked.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = emptyDoc()
	s.save()
}

// Dismiss records the reply count observed at dismissal time. The
// dismissal holds only while the post's reply count stays there.
func (s *Store) Dismiss(postId string, replyCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Dismissed[postId] = dismissalRecord{
		ReplyCount:  replyCount,
		DismissedAt: s.now(),
	}
	s.save()
}

// Undismiss removes a dismissal unconditionally.
func (s *Store) Undismiss(postId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data.Dismissed, postId)
	s.save()
}

// IsDismissed reports whether the post is currently suppressed: a record
// exists, the current reply count matches the recorded one (new activity
// reopens a conversation) and the record is not past retention.
func (s *Store) IsDismissed(postId string, currentReplyCount int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data.Dismissed[postId]
	if !ok {
		return false
	}
	if rec.ReplyCount != currentReplyCount {
		return false
	}
	if s.now().Sub(rec.DismissedAt) > DismissalRetention {
		return false
	}
	return true
}

// MarkReplied remembers that the user has answered this post, keyed by
// the original post's ID.
func (s *Store) MarkReplied(postId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.RepliedTo[postId] = s.now()
	s.save()
}

// IsRepliedTo reports whether a reply to this post was recorded.
func (s *Store) IsRepliedTo(postId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data.RepliedTo[postId]
	return ok
}

// PruneExpiredDismissals drops dismissals past retention and returns how
// many were removed.
func (s *Store) PruneExpiredDismissals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, rec := range s.data.Dismissed {
		if s.now().Sub(rec.DismissedAt) > DismissalRetention {
			delete(s.data.Dismissed, id)
			removed++
		}
	}
	if removed > 0 {
		s.save()
	}
	return removed
}

// PruneStaleReplies drops reply-tracking records whose post IDs no
// longer appear in the current mention set. Dismissed or aged-out
// mentions never come back, so this bounds the map.
func (s *Store) PruneStaleReplies(currentPostIds map[string]bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id := range s.data.RepliedTo {
		if !currentPostIds[id] {
			delete(s.data.RepliedTo, id)
			removed++
		}
	}
	if removed > 0 {
		s.save()
	}
	return removed
}

// RecordCheckTime stamps the current time as the last mention check.
func (s *Store) RecordCheckTime() {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now()
	s.data.LastChecked = &t
	s.save()
}

// LastCheckTime returns the last recorded check time, if any.
func (s *Store) LastCheckTime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.LastChecked == nil {
		return time.Time{}, false
	}
	return *s.data.LastChecked, true
}
