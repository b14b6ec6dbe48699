package health

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Pinger is anything that can report reachability: the store backends, the
// redis client adapter, the object store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Check is one named dependency. Optional dependencies are reported but do not
// make the service unhealthy.
type Check struct {
	Name     string
	Pinger   Pinger
	Optional bool
}

type HealthChecker struct {
	checks  []Check
	timeout time.Duration
	started time.Time
}

type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
}

type ComponentHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

type DetailedStatus struct {
	HealthStatus
	System SystemStats `json:"system"`
}

type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskUsed      string  `json:"disk_used"`
	DiskTotal     string  `json:"disk_total"`
	Goroutines    int     `json:"goroutines"`
	Uptime        string  `json:"uptime"`
}

func NewHealthChecker(checks ...Check) *HealthChecker {
	return &HealthChecker{checks: checks, timeout: 2 * time.Second, started: time.Now()}
}

func (h *HealthChecker) CheckBasic(ctx context.Context) HealthStatus {
	status := HealthStatus{Status: StatusHealthy, Components: make(map[string]ComponentHealth, len(h.checks))}
	for _, c := range h.checks {
		ch := h.ping(ctx, c.Pinger)
		status.Components[c.Name] = ch
		if ch.Status != StatusHealthy && !c.Optional {
			status.Status = StatusUnhealthy
		}
	}
	return status
}

func (h *HealthChecker) ping(ctx context.Context, p Pinger) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{Status: StatusUnhealthy, ResponseTime: responseTime, Error: err.Error()}
	}
	return ComponentHealth{Status: StatusHealthy, ResponseTime: responseTime}
}

// Detailed adds host statistics of the current node to CheckBasic.
func (h *HealthChecker) Detailed(ctx context.Context) DetailedStatus {
	d := DetailedStatus{HealthStatus: h.CheckBasic(ctx)}
	d.System.Goroutines = runtime.NumGoroutine()
	d.System.Uptime = time.Since(h.started).Round(time.Second).String()

	if cpuPercents, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false); err == nil && len(cpuPercents) > 0 {
		d.System.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		d.System.MemoryPercent = memStats.UsedPercent
		d.System.MemoryUsed = formatBytes(memStats.Used)
		d.System.MemoryTotal = formatBytes(memStats.Total)
	}
	if diskStats, err := disk.UsageWithContext(ctx, "/"); err == nil {
		d.System.DiskPercent = diskStats.UsedPercent
		d.System.DiskUsed = formatBytes(diskStats.Used)
		d.System.DiskTotal = formatBytes(diskStats.Total)
	}
	return d
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}
