package response

import (
	"errors"
	"net/http"

	"gin-user-service/internal/domain"
	"gin-user-service/internal/feature/user"
)

// Message 所有错误响应体 {"message": "..."}
type Message struct {
	Message string `json:"message"`
}

// Error 按 status 取默认文案，customMsg 非空时覆盖
func Error(status int, customMsg string) Message {
	msg := CodeMsgMap[status]
	if customMsg != "" {
		msg = customMsg
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return Message{Message: msg}
}

// FromError 把已知业务错误映射为 status + 响应体；未知错误返回 ok=false，
// 交给错误中间件统一处理
func FromError(err error) (status int, body Message, ok bool) {
	var ve *user.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, Error(http.StatusBadRequest, ""), true
	case errors.Is(err, domain.ErrInvalidID):
		// 历史行为：非法 id 返回 500
		return http.StatusInternalServerError, Error(http.StatusInternalServerError, MsgInvalidID), true
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, Error(http.StatusNotFound, ""), true
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, Error(http.StatusConflict, ""), true
	}
	return 0, Message{}, false
}
