package health

import (
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"

	"dispomail/backend/internal/storage"
)

// Handler 组装存活与就绪探针。
//
// /live 只要进程没有死锁就返回 200；
// /ready 还要求存储后端可用，存储故障时从负载均衡摘除实例。
type Handler struct {
	health healthcheck.Handler
}

// NewHandler 创建健康检查处理器。
func NewHandler(store storage.Store) *Handler {
	h := healthcheck.NewHandler()

	// goroutine 数异常增长通常意味着泄漏
	h.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(500))

	h.AddReadinessCheck("storage", func() error {
		return store.Health()
	})

	return &Handler{health: h}
}

// LiveEndpoint 存活探针。
func (h *Handler) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.health.LiveEndpoint(w, r)
}

// ReadyEndpoint 就绪探针。
func (h *Handler) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	h.health.ReadyEndpoint(w, r)
}

// AddReadinessCheck 追加额外的就绪检查（如 Redis、上游依赖）。
func (h *Handler) AddReadinessCheck(name string, check func() error) {
	h.health.AddReadinessCheck(name, healthcheck.Check(check))
}

// AddTimeoutReadinessCheck 追加带超时的就绪检查。
func (h *Handler) AddTimeoutReadinessCheck(name string, check func() error, timeout time.Duration) {
	h.health.AddReadinessCheck(name, healthcheck.Timeout(healthcheck.Check(check), timeout))
}
