package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gin-user-service/internal/core/cache"
	"gin-user-service/internal/domain"
)

// Hasher 创建路径上显式调用，不依赖存储层钩子
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(plain, digest string) bool
}

type UserService struct {
	repo   domain.UserRepository
	hasher Hasher
	log    *zap.Logger

	cache    cache.Loader // 可选
	cacheTTL time.Duration
}

type Option func(*UserService)

func WithCache(c cache.Loader, ttl time.Duration) Option {
	return func(s *UserService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *UserService) { s.log = l }
}

func NewUserService(repo domain.UserRepository, hasher Hasher, opts ...Option) *UserService {
	s := &UserService{repo: repo, hasher: hasher, log: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create 哈希恰好执行一次；哈希失败时不落库
func (s *UserService) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	digest, err := s.hasher.Hash(u.Password)
	if err != nil {
		return nil, err
	}
	rec := *u
	rec.Password = digest

	created, err := s.repo.Create(ctx, &rec)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user created", zap.String("user_id", created.ID))
	return created, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	if !domain.IsValidID(id) {
		return nil, domain.ErrInvalidID
	}
	load := func(ctx context.Context) (*domain.User, error) { return s.repo.FindByID(ctx, id) }

	var (
		u   *domain.User
		err error
	)
	if s.cache != nil {
		u, err = cache.GetOrLoadJSON[domain.User](s.cache, ctx, cacheKey(id), s.cacheTTL, load)
	} else {
		u, err = load(ctx)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

// Update 不做字段校验，也不重新哈希 password（与既有行为保持一致）
func (s *UserService) Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	if !domain.IsValidID(id) {
		return nil, domain.ErrInvalidID
	}
	if patch.Password != nil {
		s.log.Warn("password written without hashing on update", zap.String("user_id", id))
	}
	// 写前写后各删一次，缩小并发 Get 回填旧值的窗口
	s.invalidate(ctx, id)
	u, err := s.repo.UpdateByID(ctx, id, patch)
	s.invalidate(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}
	s.log.Info("user updated", zap.String("user_id", id))
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) (*domain.User, error) {
	if !domain.IsValidID(id) {
		return nil, domain.ErrInvalidID
	}
	s.invalidate(ctx, id)
	u, err := s.repo.DeleteByID(ctx, id)
	s.invalidate(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("delete user %s: %w", id, err)
	}
	s.log.Info("user deleted", zap.String("user_id", id))
	return u, nil
}

// CheckPassword 对比明文与已存摘要
func (s *UserService) CheckPassword(u *domain.User, plain string) bool {
	return s.hasher.Compare(plain, u.Password)
}

func (s *UserService) Ping(ctx context.Context) error { return s.repo.Ping(ctx) }

func (s *UserService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.log.Warn("cache invalidate failed", zap.String("user_id", id), zap.Error(err))
	}
}

func cacheKey(id string) string { return "user:" + id }
