// Package performance samples process resource usage so long scans can
// report what they cost.
package performance

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// ResourceUsage contains resource usage information
type ResourceUsage struct {
	CPUPercent            float64
	MemoryRSS             uint64
	MemoryVMS             uint64
	SystemMemoryPercent   float64
	SystemMemoryAvailable uint64
	GoroutineCount        int
	ThreadCount           int32
	OpenFDs               int32
	Elapsed               time.Duration
}

// Fields returns the usage as zap fields.
func (u *ResourceUsage) Fields() []zap.Field {
	return []zap.Field{
		zap.Float64("cpu_percent", u.CPUPercent),
		zap.Uint64("rss_bytes", u.MemoryRSS),
		zap.Uint64("vms_bytes", u.MemoryVMS),
		zap.Float64("system_memory_percent", u.SystemMemoryPercent),
		zap.Int("goroutines", u.GoroutineCount),
		zap.Int32("threads", u.ThreadCount),
		zap.Int32("open_fds", u.OpenFDs),
		zap.Duration("elapsed", u.Elapsed),
	}
}

// ResourceMonitor monitors the current process from the moment it was
// created.
type ResourceMonitor struct {
	process      *process.Process
	startCPUTime float64
	startTime    time.Time
	mu           sync.RWMutex
}

// NewResourceMonitor creates a resource monitor for this process.
func NewResourceMonitor() (*ResourceMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	rm := &ResourceMonitor{process: proc, startTime: time.Now()}
	if cpuTime, err := proc.Times(); err == nil {
		rm.startCPUTime = cpuTime.Total()
	}
	return rm, nil
}

// Usage returns current resource usage. Probes the platform does not
// support are left zero.
func (rm *ResourceMonitor) Usage() *ResourceUsage {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	usage := &ResourceUsage{Elapsed: time.Since(rm.startTime)}

	if cpuTime, err := rm.process.Times(); err == nil && usage.Elapsed > 0 {
		usage.CPUPercent = ((cpuTime.Total() - rm.startCPUTime) / usage.Elapsed.Seconds()) * 100
	}

	if memInfo, err := rm.process.MemoryInfo(); err == nil {
		usage.MemoryRSS = memInfo.RSS
		usage.MemoryVMS = memInfo.VMS
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemoryPercent = vmStat.UsedPercent
		usage.SystemMemoryAvailable = vmStat.Available
	}

	usage.GoroutineCount = runtime.NumGoroutine()
	usage.ThreadCount, _ = rm.process.NumThreads()
	usage.OpenFDs, _ = rm.process.NumFDs()

	return usage
}

// Log writes the current usage at info level.
func (rm *ResourceMonitor) Log(log *zap.Logger, msg string) {
	log.Info(msg, rm.Usage().Fields()...)
}
