package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jroosing/dnslens/internal/api/models"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Health godoc
// @Summary Health check
// @Description Returns server health status, degraded when the database is unreachable
// @Tags system
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Failure 503 {object} models.StatusResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, models.StatusResponse{Status: "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "ok"})
}

// Stats godoc
// @Summary Server statistics
// @Description Returns runtime statistics including memory, CPU, and inspection counters
// @Tags system
// @Produce json
// @Success 200 {object} models.ServerStatsResponse
// @Security ApiKeyAuth
// @Router /stats [get]
func (h *Handler) Stats(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.startTime)

	resp := models.ServerStatsResponse{
		Uptime:        uptime.Round(time.Second).String(),
		UptimeSeconds: int64(uptime.Seconds()),
		StartTime:     h.startTime,
		GoRoutines:    runtime.NumGoroutine(),
		MemoryAllocMB: float64(m.Alloc) / 1024 / 1024,
		CPU:           models.CPUStats{NumCPU: runtime.NumCPU()},
	}

	// Host statistics are best effort
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		resp.CPU.UsedPercent = pcts[0]
		resp.CPU.IdlePercent = 100 - pcts[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp.Memory = models.MemoryStats{
			TotalMB:     float64(vm.Total) / 1024 / 1024,
			FreeMB:      float64(vm.Free) / 1024 / 1024,
			UsedMB:      float64(vm.Used) / 1024 / 1024,
			UsedPercent: vm.UsedPercent,
		}
	}

	if insp := h.GetInspector(); insp != nil {
		snap := insp.Stats()
		resp.Inspection = &snap
		corr := insp.Correlator()
		resp.Correlator = &corr
		resp.DroppedAnomalies = insp.DroppedAnomalies()
	}

	c.JSON(http.StatusOK, resp)
}
