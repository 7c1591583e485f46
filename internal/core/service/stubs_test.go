package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/controld-portal/profile-manager/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byID      map[string]*domain.User
	nextID    int
	findErr   error // if set, every lookup returns this error
	createErr error // if set, Create returns this error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byID {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ExistsByUsernameOrEndpoint(_ context.Context, username, endpointID string) (bool, error) {
	if r.findErr != nil {
		return false, r.findErr
	}
	for _, u := range r.byID {
		if u.Username == username || u.EndpointID == endpointID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	// mirrors the unique indexes of the real store
	for _, u := range r.byID {
		if u.Username == user.Username || u.EndpointID == user.EndpointID {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	clone := cloneUser(user)
	clone.ID = fmt.Sprintf("user-%d", r.nextID)
	r.byID[clone.ID] = cloneUser(clone)
	return clone, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	out := make([]*domain.User, 0, len(r.byID))
	for i := 1; i <= r.nextID; i++ {
		if u, ok := r.byID[fmt.Sprintf("user-%d", i)]; ok {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

// seed stores a user whose password hashes with bcrypt.MinCost.
func (r *stubUserRepo) seed(t *testing.T, username, password, endpointID string, active bool) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u, err := r.Create(context.Background(), &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		EndpointID:   endpointID,
		IsActive:     active,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

type stubAdminRepo struct {
	byID   map[string]*domain.Admin
	nextID int
}

func newStubAdminRepo() *stubAdminRepo {
	return &stubAdminRepo{byID: make(map[string]*domain.Admin)}
}

func (r *stubAdminRepo) FindByID(_ context.Context, id string) (*domain.Admin, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAdminNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubAdminRepo) FindByUsername(_ context.Context, username string) (*domain.Admin, error) {
	for _, a := range r.byID {
		if a.Username == username {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAdminNotFound
}

func (r *stubAdminRepo) Create(_ context.Context, admin *domain.Admin) (*domain.Admin, error) {
	for _, a := range r.byID {
		if a.Username == admin.Username {
			return nil, domain.ErrAdminExists
		}
	}
	r.nextID++
	clone := *admin
	clone.ID = fmt.Sprintf("admin-%d", r.nextID)
	stored := clone
	r.byID[clone.ID] = &stored
	return &clone, nil
}

func (r *stubAdminRepo) seed(t *testing.T, username, password string) *domain.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	a, err := r.Create(context.Background(), &domain.Admin{Username: username, PasswordHash: string(hash)})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	return a
}

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (a *recordingAudit) Record(e domain.AuthEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *recordingAudit) last() domain.AuthEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) == 0 {
		return domain.AuthEvent{}
	}
	return a.events[len(a.events)-1]
}
