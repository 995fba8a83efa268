package repo

import (
	"context"
	"sort"
	"sync"

	"gin-user-service/internal/domain"
	"gin-user-service/pkg/utils"
)

// MemoryUserRepo 进程内实现，db.driver=memory 时使用（本地调试、测试）
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: map[string]domain.User{}}
}

func (r *MemoryUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(u.Email, "") {
		return nil, domain.ErrDuplicateEmail
	}
	rec := *u
	rec.ID = utils.NewID()
	r.users[rec.ID] = rec
	return &rec, nil
}

func (r *MemoryUserRepo) FindAll(_ context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	// ObjectID 前 4 字节是时间戳，按 id 排序即按创建顺序
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepo) UpdateByID(_ context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Email != nil {
		if r.emailTaken(*patch.Email, id) {
			return nil, domain.ErrDuplicateEmail
		}
		u.Email = *patch.Email
	}
	if patch.Password != nil {
		u.Password = *patch.Password
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	r.users[id] = u
	return &u, nil
}

func (r *MemoryUserRepo) DeleteByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.users, id)
	return &u, nil
}

func (r *MemoryUserRepo) Ping(context.Context) error { return nil }

func (r *MemoryUserRepo) emailTaken(email, exceptID string) bool {
	for id, u := range r.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}
