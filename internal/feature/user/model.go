package user

import "gin-user-service/internal/domain"

// CreateInput 通过校验后的创建入参（password 仍为明文，哈希在 service 层完成）
type CreateInput struct {
	Email     string `validate:"required,useremail"`
	Password  string `validate:"required"`
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
}

func (in CreateInput) ToDomain() *domain.User {
	return &domain.User{
		Email:    in.Email,
		Password: in.Password,
		Name:     domain.Name{FirstName: in.FirstName, LastName: in.LastName},
	}
}

// ParsePatch 更新入参不做字段校验，只挑出类型正确的字段；
// 类型不对的字段按缺省处理。name 出现时整体替换。
func ParsePatch(payload map[string]any) domain.UserPatch {
	var p domain.UserPatch
	if s, ok := payload["email"].(string); ok {
		p.Email = &s
	}
	if s, ok := payload["password"].(string); ok {
		p.Password = &s
	}
	if m, ok := payload["name"].(map[string]any); ok {
		n := domain.Name{}
		n.FirstName, _ = m["firstName"].(string)
		n.LastName, _ = m["lastName"].(string)
		p.Name = &n
	}
	return p
}
