package auth

import (
	"strings"
	"sync"
	"time"

	"github.com/annel0/mmo-game/internal/logging"
)

// MemoryUserRepo is a threadsafe in-memory UserRepository, the only
// implementation this core ships: the admin/status API is a single-process
// surface with no cross-instance account state to share.
type MemoryUserRepo struct {
	mu     sync.RWMutex
	users  map[string]*User // key = lowercase(username)
	nextID uint64
}

// NewMemoryUserRepo returns a repository pre-populated with a single admin
// account so a freshly started server always has one way in.
func NewMemoryUserRepo() (*MemoryUserRepo, error) {
	repo := &MemoryUserRepo{
		users:  make(map[string]*User),
		nextID: 1,
	}

	adminHash, err := HashPassword("ChangeMe123!")
	if err != nil {
		return nil, err
	}
	if _, err := repo.CreateUser("admin", adminHash, true); err != nil {
		return nil, err
	}
	logging.LogWarn("auth: default admin account created with password 'ChangeMe123!' — change it before exposing the admin API")

	return repo, nil
}

func (r *MemoryUserRepo) GetUserByUsername(username string) (*User, error) {
	key := normalize(username)
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[key]
	if !ok {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (r *MemoryUserRepo) CreateUser(username string, passwordHash string, isAdmin bool) (*User, error) {
	key := normalize(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[key]; exists {
		return nil, ErrUserExists
	}

	user := &User{
		ID:           r.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		LastLogin:    time.Now(),
		IsAdmin:      isAdmin,
	}
	r.nextID++
	r.users[key] = user
	return user, nil
}

func (r *MemoryUserRepo) GetUserByID(id uint64) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *MemoryUserRepo) ValidateCredentials(username, password string) (*User, error) {
	user, err := r.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrUserNotFound
	}

	r.mu.Lock()
	user.LastLogin = time.Now()
	r.mu.Unlock()

	return user, nil
}

func normalize(username string) string {
	return strings.ToLower(username)
}
