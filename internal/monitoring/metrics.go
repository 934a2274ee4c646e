package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP 请求指标
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispomail_http_requests_total",
			Help: "HTTP 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispomail_http_request_duration_seconds",
			Help:    "HTTP 请求耗时分布",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispomail_http_requests_in_flight",
			Help: "正在处理的 HTTP 请求数",
		},
	)
)

// 业务指标
var (
	addressesAllocatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispomail_addresses_allocated_total",
			Help: "成功分配的一次性地址总数",
		},
	)

	addressesReleasedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispomail_addresses_released_total",
			Help: "主动回收的地址总数",
		},
	)

	emailsIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispomail_emails_ingested_total",
			Help: "成功入库的入站邮件总数",
		},
	)

	recipientNotFoundTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispomail_recipient_not_found_total",
			Help: "因收件地址未分配而拒收的投递次数",
		},
	)

	emailsSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispomail_emails_swept_total",
			Help: "保留期清理任务删除的邮件总数",
		},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispomail_sweep_duration_seconds",
			Help:    "单次保留期清理耗时",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
	)
)

// 连接池指标
var (
	dbConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispomail_db_connections_in_use",
			Help: "数据库连接池中使用中的连接数",
		},
	)

	dbConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispomail_db_connections_idle",
			Help: "数据库连接池中空闲的连接数",
		},
	)
)

// RecordHTTPRequest 记录一次 HTTP 请求的计数与耗时。
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// HTTPRequestStarted 请求进入时调用。
func HTTPRequestStarted() { httpRequestsInFlight.Inc() }

// HTTPRequestFinished 请求结束时调用。
func HTTPRequestFinished() { httpRequestsInFlight.Dec() }

// RecordAddressAllocated 地址分配成功。
func RecordAddressAllocated() { addressesAllocatedTotal.Inc() }

// RecordAddressReleased 地址被主动回收。
func RecordAddressReleased() { addressesReleasedTotal.Inc() }

// RecordEmailIngested 邮件成功入库。
func RecordEmailIngested() { emailsIngestedTotal.Inc() }

// RecordRecipientNotFound 投递被拒（收件地址未分配）。
func RecordRecipientNotFound() { recipientNotFoundTotal.Inc() }

// RecordSweep 记录一次清理任务的删除数量与耗时。
func RecordSweep(deleted int, duration time.Duration) {
	emailsSweptTotal.Add(float64(deleted))
	sweepDuration.Observe(duration.Seconds())
}

// UpdateDBPoolStats 更新数据库连接池指标。
func UpdateDBPoolStats(inUse, idle int) {
	dbConnectionsInUse.Set(float64(inUse))
	dbConnectionsIdle.Set(float64(idle))
}
