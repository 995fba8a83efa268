package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// APIModule 业务模块把自己的路由挂到给定分组上
type APIModule interface{ MountAPI(*gin.RouterGroup) }

// 可选：实现该接口可控制挂载顺序（数值越小越先挂），不实现默认 100
type prioritizer interface{ Priority() int }

// Mount 描述一个模块挂在哪个前缀下
type Mount struct {
	Prefix string
	Module APIModule
}

// Registry 非全局注册表，每个 engine 一份
type Registry struct {
	mounts []Mount
}

func (r *Registry) Register(prefix string, m APIModule) {
	r.mounts = append(r.mounts, Mount{Prefix: prefix, Module: m})
}

// MountAll 按优先级把所有模块挂到 engine 上
func (r *Registry) MountAll(e *gin.Engine) {
	mounts := append([]Mount(nil), r.mounts...)
	sort.SliceStable(mounts, func(i, j int) bool {
		return priorityOf(mounts[i].Module) < priorityOf(mounts[j].Module)
	})
	for _, m := range mounts {
		m.Module.MountAPI(e.Group(m.Prefix))
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
