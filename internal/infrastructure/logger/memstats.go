package logger

import (
	"runtime"
	"time"
)

// MemStats is the subset of runtime memory statistics the service reports.
type MemStats struct {
	AllocMB     uint64 `json:"allocMb"`
	SysMB       uint64 `json:"sysMb"`
	HeapAllocMB uint64 `json:"heapAllocMb"`
	HeapSysMB   uint64 `json:"heapSysMb"`
	NumGC       uint32 `json:"numGc"`
}

// ReadMemStats samples the runtime.
func ReadMemStats() MemStats {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return MemStats{
		AllocMB:     stats.Alloc / 1024 / 1024,
		SysMB:       stats.Sys / 1024 / 1024,
		HeapAllocMB: stats.HeapAlloc / 1024 / 1024,
		HeapSysMB:   stats.HeapSys / 1024 / 1024,
		NumGC:       stats.NumGC,
	}
}

// MemStatsMonitor logs memory usage on a fixed interval.
type MemStatsMonitor struct {
	interval time.Duration
	stopped  chan struct{}
}

func NewMemStatsMonitor(interval time.Duration) *MemStatsMonitor {
	return &MemStatsMonitor{
		interval: interval,
		stopped:  make(chan struct{}),
	}
}

func (m *MemStatsMonitor) Start() {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				LogMemStatsOnce()
			case <-m.stopped:
				return
			}
		}
	}()
}

func (m *MemStatsMonitor) Stop() {
	close(m.stopped)
}

// LogMemStatsOnce writes one memory usage entry.
func LogMemStatsOnce() {
	s := ReadMemStats()
	Info("memory usage",
		"alloc_mb", s.AllocMB,
		"sys_mb", s.SysMB,
		"heap_alloc_mb", s.HeapAllocMB,
		"heap_sys_mb", s.HeapSysMB,
		"num_gc", s.NumGC)
}
