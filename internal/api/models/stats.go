package models

import (
	"time"

	"github.com/jroosing/dnslens/internal/correlate"
	"github.com/jroosing/dnslens/internal/inspect"
)

// ServerStatsResponse contains server runtime statistics.
type ServerStatsResponse struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
	GoRoutines    int       `json:"goroutines"`
	MemoryAllocMB float64   `json:"memory_alloc_mb"`

	CPU    CPUStats    `json:"cpu"`
	Memory MemoryStats `json:"memory"`

	Inspection       *inspect.Snapshot   `json:"inspection,omitempty"`
	Correlator       *correlate.Snapshot `json:"correlator,omitempty"`
	DroppedAnomalies uint64              `json:"dropped_anomalies"`
}

// CPUStats contains host CPU statistics.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// MemoryStats contains host memory statistics.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}
