package sysinfo

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// Source is the set of OS introspection queries the collector relies on.
type Source interface {
	HostInfo(ctx context.Context) (*host.InfoStat, error)
	BootTime(ctx context.Context) (uint64, error)
	CPUInfo(ctx context.Context) ([]cpu.InfoStat, error)
	CPUCounts(ctx context.Context, logical bool) (int, error)
	CPUPercent(ctx context.Context) (float64, error)
	VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error)
	Interfaces(ctx context.Context) (net.InterfaceStatList, error)
	NetIO(ctx context.Context) (net.IOCountersStat, error)
	LoadAvg(ctx context.Context) (*load.AvgStat, error)
}

// PsutilSource reads host state through gopsutil.
type PsutilSource struct{}

func (PsutilSource) HostInfo(ctx context.Context) (*host.InfoStat, error) {
	return host.InfoWithContext(ctx)
}

func (PsutilSource) BootTime(ctx context.Context) (uint64, error) {
	return host.BootTimeWithContext(ctx)
}

func (PsutilSource) CPUInfo(ctx context.Context) ([]cpu.InfoStat, error) {
	return cpu.InfoWithContext(ctx)
}

func (PsutilSource) CPUCounts(ctx context.Context, logical bool) (int, error) {
	return cpu.CountsWithContext(ctx, logical)
}

// CPUPercent reports usage since the previous call (interval 0).
func (PsutilSource) CPUPercent(ctx context.Context) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(pct) == 0 {
		return 0, nil
	}
	return pct[0], nil
}

func (PsutilSource) VirtualMemory(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (PsutilSource) Interfaces(ctx context.Context) (net.InterfaceStatList, error) {
	return net.InterfacesWithContext(ctx)
}

func (PsutilSource) NetIO(ctx context.Context) (net.IOCountersStat, error) {
	all, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return net.IOCountersStat{}, err
	}
	if len(all) == 0 {
		return net.IOCountersStat{Name: "all"}, nil
	}
	return all[0], nil
}

func (PsutilSource) LoadAvg(ctx context.Context) (*load.AvgStat, error) {
	return load.AvgWithContext(ctx)
}

// warmup primes the CPU percent baseline so the first live sample is not
// measured against boot.
func warmup(ctx context.Context, src Source) {
	cctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_, _ = src.CPUPercent(cctx)
}
