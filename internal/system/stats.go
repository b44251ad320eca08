package system

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Stats is a point-in-time snapshot of host and process resource usage.
type Stats struct {
	CPUPercent float64
	MemUsed    uint64
	MemTotal   uint64
	ProcessRSS uint64
	ProcessCPU float64
}

// CollectStats samples host CPU over interval plus memory and this process'
// RSS. Fields that cannot be read stay zero.
func CollectStats(interval time.Duration) Stats {
	var s Stats

	if pct, err := cpu.Percent(interval, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemUsed = vm.Used
		s.MemTotal = vm.Total
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			s.ProcessRSS = mi.RSS
		}
		if pc, err := p.CPUPercent(); err == nil {
			s.ProcessCPU = pc
		}
	}
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("CPU: %.1f%% (process %.1f%%) | RAM: %s / %s | RSS: %s",
		s.CPUPercent, s.ProcessCPU,
		humanize.IBytes(s.MemUsed), humanize.IBytes(s.MemTotal),
		humanize.IBytes(s.ProcessRSS))
}
