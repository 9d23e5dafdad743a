package auth

import (
	"container/list"
	"sync"
	"time"
)

// CodeStore keeps at most one live authorization code per client id.
// It is bounded: once capacity is reached the least recently used entry is
// evicted. Expired entries are dropped lazily on lookup.
type CodeStore struct {
	capacity  int
	ttl       time.Duration
	now       func() time.Time
	mutex     sync.Mutex
	items     map[string]*list.Element
	evictList *list.List
}

// AuthorizationCode is a code issued to a client, pending redemption.
type AuthorizationCode struct {
	ClientID string
	Code     string
	IssuedAt time.Time
}

func NewCodeStore(capacity int, ttl time.Duration) *CodeStore {
	if capacity < 1 {
		capacity = 1
	}
	return &CodeStore{
		capacity:  capacity,
		ttl:       ttl,
		now:       time.Now,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
	}
}

// Put stores code for clientID, replacing any earlier code and restarting its TTL.
func (s *CodeStore) Put(clientID, code string) AuthorizationCode {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry := AuthorizationCode{ClientID: clientID, Code: code, IssuedAt: s.now()}

	if element, exists := s.items[clientID]; exists {
		element.Value = entry
		s.evictList.MoveToFront(element)
		return entry
	}

	s.items[clientID] = s.evictList.PushFront(entry)
	for s.evictList.Len() > s.capacity {
		s.removeElement(s.evictList.Back())
	}
	return entry
}

// Get returns the live code for clientID.
func (s *CodeStore) Get(clientID string) (AuthorizationCode, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	element, exists := s.items[clientID]
	if !exists {
		return AuthorizationCode{}, false
	}

	entry := element.Value.(AuthorizationCode)
	if s.expired(entry) {
		s.removeElement(element)
		return AuthorizationCode{}, false
	}

	s.evictList.MoveToFront(element)
	return entry, true
}

// Len reports the number of tracked entries, including ones that have
// expired but not yet been looked up.
func (s *CodeStore) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.evictList.Len()
}

func (s *CodeStore) expired(entry AuthorizationCode) bool {
	return s.ttl > 0 && !s.now().Before(entry.IssuedAt.Add(s.ttl))
}

func (s *CodeStore) removeElement(element *list.Element) {
	if element == nil {
		return
	}
	s.evictList.Remove(element)
	delete(s.items, element.Value.(AuthorizationCode).ClientID)
}
