package stubserver

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type user struct {
	ID           string
	Email        string
	PasswordHash []byte

	FaceID  string
	VoiceID string
}

// userStore is an in-memory account table keyed by lower-cased email.
type userStore struct {
	mu     sync.RWMutex
	byMail map[string]*user
}

func newUserStore() *userStore {
	return &userStore{byMail: make(map[string]*user)}
}

func (s *userStore) get(email string) (user, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byMail[strings.ToLower(email)]
	if !ok {
		return user{}, false
	}
	return *u, true
}

// create registers a new account. It reports false when the email is taken.
func (s *userStore) create(email, password string) (user, bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	if _, exists := s.byMail[key]; exists {
		return user{}, false, nil
	}
	u := &user{ID: uuid.NewString(), Email: email, PasswordHash: hash}
	s.byMail[key] = u
	return *u, true, nil
}

// update applies fn to the stored account. It reports false when there is
// no such account.
func (s *userStore) update(email string, fn func(*user)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byMail[strings.ToLower(email)]
	if !ok {
		return false
	}
	fn(u)
	return true
}

func (u user) passwordMatches(password string) bool {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil
}
