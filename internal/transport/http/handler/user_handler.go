package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"gin-user-service/internal/domain"
	"gin-user-service/internal/feature/user"
	resp "gin-user-service/internal/transport/http/response"
)

type UserService interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id string) (*domain.User, error)
}

type UserHandler struct {
	svc UserService
	val *user.Validator
}

func NewUserHandler(svc UserService, val *user.Validator) *UserHandler {
	return &UserHandler{svc: svc, val: val}
}

// MountAPI 挂在 /user 分组上
func (h *UserHandler) MountAPI(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:userId", h.Get)
	g.PUT("/:userId", h.Update)
	g.DELETE("/:userId", h.Delete)
}

func (h *UserHandler) Priority() int { return 10 }

func (h *UserHandler) Create(c *gin.Context) {
	payload, ok := readPayload(c, false)
	if !ok {
		return
	}
	in, err := h.val.ValidateCreate(payload)
	if err != nil {
		fail(c, err)
		return
	}
	created, err := h.svc.Create(storeCtx(c), in.ToDomain())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(storeCtx(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.svc.Get(storeCtx(c), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Update(c *gin.Context) {
	payload, ok := readPayload(c, true)
	if !ok {
		return
	}
	u, err := h.svc.Update(storeCtx(c), c.Param("userId"), user.ParsePatch(payload))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) Delete(c *gin.Context) {
	u, err := h.svc.Delete(storeCtx(c), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// storeCtx 客户端断开不取消进行中的存储调用
func storeCtx(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// readPayload 语法错误回 400，超限回 413。
// allowEmpty 时空 body 和非对象 JSON 都视为 {}，由 id 校验决定状态码
func readPayload(c *gin.Context, allowEmpty bool) (map[string]any, bool) {
	if allowEmpty && c.Request.ContentLength == 0 {
		return map[string]any{}, true
	}
	var raw any
	if err := c.ShouldBindJSON(&raw); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, resp.Error(http.StatusRequestEntityTooLarge, ""))
			return nil, false
		case allowEmpty && errors.Is(err, io.EOF):
			return map[string]any{}, true
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, resp.Error(http.StatusBadRequest, ""))
		return nil, false
	}
	payload, isObject := raw.(map[string]any)
	if !isObject {
		if !allowEmpty && raw != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, resp.Error(http.StatusBadRequest, ""))
			return nil, false
		}
		payload = map[string]any{}
	}
	return payload, true
}

// fail 已知错误直接映射；其余交给 ErrorHandler
func fail(c *gin.Context, err error) {
	if status, body, ok := resp.FromError(err); ok {
		c.AbortWithStatusJSON(status, body)
		return
	}
	_ = c.Error(err)
	c.Abort()
}
