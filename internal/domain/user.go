package domain

import (
	"context"
	"errors"

	"gin-user-service/pkg/utils"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrInvalidID      = errors.New("invalid user id")
	ErrDuplicateEmail = errors.New("email already exists")
)

type Name struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// User 对外 JSON 沿用文档库的 _id 字段名；password 为摘要
type User struct {
	ID       string `json:"_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     Name   `json:"name"`
}

// UserPatch nil 字段保持不变；Name 整体替换
type UserPatch struct {
	Email    *string
	Password *string
	Name     *Name
}

func (p UserPatch) Empty() bool {
	return p.Email == nil && p.Password == nil && p.Name == nil
}

type UserRepository interface {
	Create(ctx context.Context, u *User) (*User, error)
	FindAll(ctx context.Context) ([]User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	// UpdateByID 返回更新后的记录
	UpdateByID(ctx context.Context, id string, patch UserPatch) (*User, error)
	// DeleteByID 返回删除前的快照
	DeleteByID(ctx context.Context, id string) (*User, error)
	Ping(ctx context.Context) error
}

// IsValidID 存储层标识的语法检查，在任何存储调用之前执行
func IsValidID(id string) bool { return utils.IsValidID(id) }
