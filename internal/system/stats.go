package system

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a snapshot of the resources used by the running process.
type Stats struct {
	ProcessRSS    uint64
	ProcessCPU    float64 // percent since process start
	SystemUsedPct float64
	HeapAlloc     uint64
	Goroutines    int
}

func CollectStats() (Stats, error) {
	var s Stats

	vm, err := mem.VirtualMemory()
	if err != nil {
		return s, fmt.Errorf("virtual memory: %w", err)
	}
	s.SystemUsedPct = vm.UsedPercent

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return s, fmt.Errorf("process: %w", err)
	}
	if mi, err := proc.MemoryInfo(); err == nil {
		s.ProcessRSS = mi.RSS
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		s.ProcessCPU = cpu
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.HeapAlloc = ms.HeapAlloc
	s.Goroutines = runtime.NumGoroutine()
	return s, nil
}

func (s Stats) String() string {
	return fmt.Sprintf("RSS: %s | Heap: %s | CPU: %.1f%% | System memory: %.1f%% | Goroutines: %d",
		formatBytes(s.ProcessRSS), formatBytes(s.HeapAlloc), s.ProcessCPU, s.SystemUsedPct, s.Goroutines)
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
