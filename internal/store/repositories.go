package store

import (
	"sync"
	"time"

	"github.com/MKhiriev/go-social-sync/internal/utils"
	"github.com/MKhiriev/go-social-sync/models"
)

type memoryAccount struct {
	user         models.User
	passwordHash []byte
}

type memoryPost struct {
	seq          int64
	id           string
	authorID     string
	title        string
	description  string
	images       []string
	votes        map[string]models.VoteKind
	favoritedBy  map[string]struct{}
	commentCount int64
	createdAt    time.Time
	updatedAt    time.Time
}

type memoryComment struct {
	seq       int64
	id        string
	postID    string
	parentID  string
	authorID  string
	body      string
	likedBy   map[string]struct{}
	createdAt time.Time
	updatedAt time.Time
}

// memoryState is the data behind the in-memory repositories.
type memoryState struct {
	mu sync.RWMutex

	seq  int64
	uuid *utils.UUIDGenerator

	accounts map[string]*memoryAccount
	emails   map[string]string
	aliases  map[string]string

	posts    map[string]*memoryPost
	comments map[string]*memoryComment

	// creates maps an idempotency key to the server id it produced.
	creates map[IdempotencyKey]string
}

func newMemoryState() *memoryState {
	return &memoryState{
		uuid:     utils.NewUUIDGenerator(),
		accounts: make(map[string]*memoryAccount),
		emails:   make(map[string]string),
		aliases:  make(map[string]string),
		posts:    make(map[string]*memoryPost),
		comments: make(map[string]*memoryComment),
		creates:  make(map[IdempotencyKey]string),
	}
}

// next returns a fresh id and insertion sequence. Callers hold mu.
func (s *memoryState) next() (string, int64) {
	s.seq++
	return s.uuid.Generate(), s.seq
}

func (s *memoryState) author(id string) models.User {
	if a, ok := s.accounts[id]; ok {
		u := a.user
		u.Email = ""
		return u
	}
	return models.User{ID: id}
}
