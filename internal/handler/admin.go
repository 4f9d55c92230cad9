package handler

import (
	"net/http"
	"runtime"
	"time"

	"retroprofile-api/internal/icons"
	"retroprofile-api/internal/ratelimit"
	"retroprofile-api/pkg/response"
)

// AdminHandler reports runtime statistics.
type AdminHandler struct {
	cacheType    string
	storeType    string
	limiters     []*ratelimit.Limiter
	breakerState func() string
	icons        *icons.Resolver
	startTime    time.Time
}

// AdminDeps holds what the admin handler reports on.
type AdminDeps struct {
	CacheType    string
	StoreType    string
	Limiters     []*ratelimit.Limiter
	BreakerState func() string
	Icons        *icons.Resolver
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDeps) *AdminHandler {
	return &AdminHandler{
		cacheType:    deps.CacheType,
		storeType:    deps.StoreType,
		limiters:     deps.Limiters,
		breakerState: deps.BreakerState,
		icons:        deps.Icons,
		startTime:    time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["cache_type"] = h.cacheType
	stats["store_type"] = h.storeType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
		"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
		"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb":  float64(memStats.HeapAlloc) / 1024 / 1024,
		"heap_inuse_mb":  float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":         memStats.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}

	limiters := make(map[string]int, len(h.limiters))
	for _, l := range h.limiters {
		limiters[l.Name()] = l.Clients()
	}
	stats["rate_limit_clients"] = limiters

	if h.breakerState != nil {
		stats["upstream_breaker"] = h.breakerState()
	}

	if h.icons != nil {
		iconStats := map[string]interface{}{"status": "ok"}
		if err := h.icons.LastError(); err != nil {
			iconStats["status"] = "error"
			iconStats["error"] = err.Error()
		}
		stats["console_icons"] = iconStats
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}
