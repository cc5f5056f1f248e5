package monitoring

import (
	"context"
	"net/http"
	"sync"
	"time"

	"taskboard/backend/internal/store"

	"github.com/gin-gonic/gin"
)

type Metrics struct {
	mu sync.RWMutex

	RequestCount int64 `json:"request_count"`
	// Average request duration in milliseconds, matching the json tag.
	AvgRequestDuration int64            `json:"avg_request_duration_ms"`
	ActiveRequests     int64            `json:"active_requests"`
	ErrorCount         int64            `json:"error_count"`
	StatusCodes        map[string]int64 `json:"status_codes"`
	Endpoints          map[string]int64 `json:"endpoint_calls"`
	StartTime          time.Time        `json:"start_time"`
	LastRequest        time.Time        `json:"last_request"`
	totalDuration      time.Duration
}

var globalMetrics = &Metrics{
	StatusCodes: make(map[string]int64),
	Endpoints:   make(map[string]int64),
	StartTime:   time.Now(),
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests++
		globalMetrics.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()
		endpoint := c.Request.Method + " " + c.FullPath()

		globalMetrics.mu.Lock()
		globalMetrics.RequestCount++
		globalMetrics.ActiveRequests--
		globalMetrics.totalDuration += duration
		globalMetrics.AvgRequestDuration = (globalMetrics.totalDuration / time.Duration(globalMetrics.RequestCount)).Milliseconds()
		globalMetrics.LastRequest = time.Now()

		if statusCode >= 400 {
			globalMetrics.ErrorCount++
		}
		globalMetrics.StatusCodes[http.StatusText(statusCode)]++
		globalMetrics.Endpoints[endpoint]++
		globalMetrics.mu.Unlock()
	}
}

func GetMetrics() *Metrics {
	globalMetrics.mu.RLock()
	defer globalMetrics.mu.RUnlock()

	metrics := &Metrics{
		RequestCount:       globalMetrics.RequestCount,
		AvgRequestDuration: globalMetrics.AvgRequestDuration,
		ActiveRequests:     globalMetrics.ActiveRequests,
		ErrorCount:         globalMetrics.ErrorCount,
		StatusCodes:        make(map[string]int64),
		Endpoints:          make(map[string]int64),
		StartTime:          globalMetrics.StartTime,
		LastRequest:        globalMetrics.LastRequest,
	}

	for k, v := range globalMetrics.StatusCodes {
		metrics.StatusCodes[k] = v
	}
	for k, v := range globalMetrics.Endpoints {
		metrics.Endpoints[k] = v
	}

	return metrics
}

type HealthCheckFunc func(ctx context.Context) error

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

type HealthChecker struct {
	mu     sync.RWMutex
	probes map[string]HealthCheckFunc
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{probes: make(map[string]HealthCheckFunc)}
}

func (h *HealthChecker) Register(name string, probe HealthCheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = probe
}

// Run executes every registered probe with a fresh timeout.
func (h *HealthChecker) Run() map[string]HealthCheck {
	h.mu.RLock()
	probes := make(map[string]HealthCheckFunc, len(h.probes))
	for name, probe := range h.probes {
		probes[name] = probe
	}
	h.mu.RUnlock()

	results := make(map[string]HealthCheck, len(probes))
	for name, probe := range probes {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		check := HealthCheck{Name: name, Status: "healthy", LastRun: time.Now()}
		if err := probe(ctx); err != nil {
			check.Status = "unhealthy"
			check.Message = err.Error()
		}
		cancel()
		results[name] = check
	}
	return results
}

// MetricsHandler reports request metrics alongside the store's current
// statistics, recomputed per request.
func MetricsHandler(st *store.TaskStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"application": GetMetrics(),
			"board":       st.Stats(),
			"timestamp":   time.Now(),
		})
	}
}

func HealthHandler(checker *HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := checker.Run()

		overallStatus := "healthy"
		for _, check := range checks {
			if check.Status != "healthy" {
				overallStatus = "unhealthy"
				break
			}
		}

		status := http.StatusOK
		if overallStatus != "healthy" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status":    overallStatus,
			"timestamp": time.Now(),
			"checks":    checks,
			"uptime":    time.Since(globalMetrics.StartTime).String(),
		})
	}
}

func ReadinessHandler(checker *HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, check := range checker.Run() {
			if check.Status != "healthy" {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":    "not ready",
					"timestamp": time.Now(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now(),
		})
	}
}

func LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": time.Now(),
			"uptime":    time.Since(globalMetrics.StartTime).String(),
		})
	}
}
