// Package sysinfo collects host facts and live samples for the dashboard.
package sysinfo

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/netip"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/net"
)

// BootTimeLayout renders boot time as YYYY-MM-DD HH:MM:SS.
const BootTimeLayout = "2006-01-02 15:04:05"

// Facts is the per-request platform record shown on /info.
type Facts struct {
	CollectedAt time.Time `json:"collected_at"`

	Platform PlatformInfo         `json:"platform"`
	CPU      CPUInfo              `json:"cpu"`
	Memory   MemInfo              `json:"memory"`
	Network  map[string][]Address `json:"network"`
	BootTime string               `json:"boot_time"`
}

type PlatformInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform"`
	PlatformFamily  string `json:"platform_family,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	KernelVersion   string `json:"kernel_version,omitempty"`
	KernelArch      string `json:"kernel_arch,omitempty"`
	Virtualization  string `json:"virtualization,omitempty"`
	VirtRole        string `json:"virtualization_role,omitempty"`
	GoOS            string `json:"go_os"`
	GoArch          string `json:"go_arch"`
}

type CPUInfo struct {
	ModelName     string   `json:"model_name"`
	VendorID      string   `json:"vendor_id,omitempty"`
	Family        string   `json:"family,omitempty"`
	Model         string   `json:"model,omitempty"`
	Stepping      int32    `json:"stepping,omitempty"`
	Mhz           float64  `json:"mhz,omitempty"`
	CacheSizeKB   int32    `json:"cache_size_kb,omitempty"`
	PhysicalCores int      `json:"physical_cores"`
	LogicalCores  int      `json:"logical_cores"`
	Flags         []string `json:"flags,omitempty"`
}

type MemInfo struct {
	Total       uint64  `json:"total"`
	Available   uint64  `json:"available"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"used_percent"`

	TotalHuman     string `json:"total_human"`
	AvailableHuman string `json:"available_human"`
	UsedHuman      string `json:"used_human"`
	FreeHuman      string `json:"free_human"`
}

// Address is one configured address of a network interface.
type Address struct {
	Family string `json:"family"` // ipv4, ipv6 or mac
	Addr   string `json:"addr"`
	Prefix int    `json:"prefix,omitempty"`
}

// Sample is a live reading streamed to the monitor page, the panel and /metrics.
type Sample struct {
	At       int64  `json:"at"`
	Hostname string `json:"hostname"`

	CPUPercent float64 `json:"cpu_percent"`

	MemUsed        uint64  `json:"mem_used"`
	MemTotal       uint64  `json:"mem_total"`
	MemUsedPercent float64 `json:"mem_used_percent"`

	Load1  float64 `json:"load1"`
	Load5  float64 `json:"load5"`
	Load15 float64 `json:"load15"`

	NetBytesSent uint64 `json:"net_bytes_sent"`
	NetBytesRecv uint64 `json:"net_bytes_recv"`

	UptimeSec uint64 `json:"uptime_sec"`
}

type Collector struct {
	src Source

	// SampleTTL bounds how long a live sample is reused. Set before serving.
	SampleTTL time.Duration
	// Location is used to format boot time; nil means time.Local.
	Location *time.Location

	mu       sync.Mutex
	cache    Sample
	cacheAt  time.Time
	hostname string
	now      func() time.Time
}

func NewCollector(src Source) *Collector {
	if src == nil {
		src = PsutilSource{}
	}
	hostname, _ := os.Hostname()
	c := &Collector{
		src:       src,
		SampleTTL: 1500 * time.Millisecond,
		hostname:  hostname,
		now:       time.Now,
	}
	warmup(context.Background(), src)
	return c
}

// Facts queries every source afresh. The first failure is returned as an
// *EnvironmentQueryError.
func (c *Collector) Facts(ctx context.Context) (Facts, error) {
	f := Facts{CollectedAt: c.now()}

	hi, err := c.src.HostInfo(ctx)
	if err != nil {
		return Facts{}, queryErr(SourceHost, err)
	}
	f.Platform = PlatformInfo{
		Hostname:        hi.Hostname,
		OS:              hi.OS,
		Platform:        hi.Platform,
		PlatformFamily:  hi.PlatformFamily,
		PlatformVersion: hi.PlatformVersion,
		KernelVersion:   hi.KernelVersion,
		KernelArch:      hi.KernelArch,
		Virtualization:  hi.VirtualizationSystem,
		VirtRole:        hi.VirtualizationRole,
		GoOS:            runtime.GOOS,
		GoArch:          runtime.GOARCH,
	}
	if f.Platform.OS == "" {
		f.Platform.OS = runtime.GOOS
	}

	cpus, err := c.src.CPUInfo(ctx)
	if err != nil {
		return Facts{}, queryErr(SourceCPU, err)
	}
	if len(cpus) == 0 {
		return Facts{}, queryErr(SourceCPU, errors.New("no cpu reported"))
	}
	first := cpus[0]
	f.CPU = CPUInfo{
		ModelName:   first.ModelName,
		VendorID:    first.VendorID,
		Family:      first.Family,
		Model:       first.Model,
		Stepping:    first.Stepping,
		Mhz:         first.Mhz,
		CacheSizeKB: first.CacheSize,
		Flags:       first.Flags,
	}
	if f.CPU.ModelName == "" {
		f.CPU.ModelName = "unknown " + runtime.GOARCH
	}

	if f.CPU.PhysicalCores, err = c.src.CPUCounts(ctx, false); err != nil {
		return Facts{}, queryErr(SourceCPUCounts, err)
	}
	if f.CPU.LogicalCores, err = c.src.CPUCounts(ctx, true); err != nil {
		return Facts{}, queryErr(SourceCPUCounts, err)
	}

	vm, err := c.src.VirtualMemory(ctx)
	if err != nil {
		return Facts{}, queryErr(SourceMemory, err)
	}
	f.Memory = MemInfo{
		Total:          vm.Total,
		Available:      vm.Available,
		Used:           vm.Used,
		Free:           vm.Free,
		UsedPercent:    clampPercent(vm.UsedPercent),
		TotalHuman:     HumanBytes(vm.Total),
		AvailableHuman: HumanBytes(vm.Available),
		UsedHuman:      HumanBytes(vm.Used),
		FreeHuman:      HumanBytes(vm.Free),
	}

	ifs, err := c.src.Interfaces(ctx)
	if err != nil {
		return Facts{}, queryErr(SourceNetwork, err)
	}
	f.Network = interfaceAddrs(ifs)

	bt, err := c.src.BootTime(ctx)
	if err != nil {
		return Facts{}, queryErr(SourceBootTime, err)
	}
	f.BootTime = FormatBootTime(bt, c.Location)

	return f, nil
}

// Sample returns a live reading, reusing the previous one while it is younger
// than SampleTTL. CPU and memory are required; load and network counters are
// best-effort since not every platform reports them.
func (c *Collector) Sample(ctx context.Context) (Sample, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.cacheAt.IsZero() && now.Sub(c.cacheAt) < c.SampleTTL {
		return c.cache, nil
	}

	s := Sample{At: now.UnixMilli(), Hostname: c.hostname}

	pct, err := c.src.CPUPercent(ctx)
	if err != nil {
		return Sample{}, queryErr(SourceCPU, err)
	}
	s.CPUPercent = clampPercent(pct)

	vm, err := c.src.VirtualMemory(ctx)
	if err != nil {
		return Sample{}, queryErr(SourceMemory, err)
	}
	s.MemUsed = vm.Used
	s.MemTotal = vm.Total
	s.MemUsedPercent = clampPercent(vm.UsedPercent)

	if la, err := c.src.LoadAvg(ctx); err == nil && la != nil {
		s.Load1, s.Load5, s.Load15 = la.Load1, la.Load5, la.Load15
	}
	if io, err := c.src.NetIO(ctx); err == nil {
		s.NetBytesSent = io.BytesSent
		s.NetBytesRecv = io.BytesRecv
	}
	if bt, err := c.src.BootTime(ctx); err == nil && bt > 0 && uint64(now.Unix()) > bt {
		s.UptimeSec = uint64(now.Unix()) - bt
	}

	c.cache = s
	c.cacheAt = now
	return s, nil
}

// FormatBootTime renders a unix boot timestamp in loc (time.Local when nil).
func FormatBootTime(unix uint64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(int64(unix), 0).In(loc).Format(BootTimeLayout)
}

func interfaceAddrs(ifs net.InterfaceStatList) map[string][]Address {
	out := make(map[string][]Address, len(ifs))
	for _, nic := range ifs {
		addrs := make([]Address, 0, len(nic.Addrs)+1)
		for _, a := range nic.Addrs {
			addrs = append(addrs, parseAddress(a.Addr))
		}
		sort.SliceStable(addrs, func(i, j int) bool {
			return familyRank(addrs[i].Family) < familyRank(addrs[j].Family)
		})
		if mac := strings.TrimSpace(nic.HardwareAddr); mac != "" {
			addrs = append(addrs, Address{Family: "mac", Addr: mac})
		}
		out[nic.Name] = addrs
	}
	return out
}

// parseAddress splits gopsutil's "addr/bits" form. Zoned link-local IPv6
// addresses (fe80::1%eth0/64) keep their zone.
func parseAddress(raw string) Address {
	host, bits, hasBits := strings.Cut(strings.TrimSpace(raw), "/")
	a, err := netip.ParseAddr(host)
	if err != nil {
		return Address{Family: "unknown", Addr: strings.TrimSpace(raw)}
	}
	out := Address{Family: family(a), Addr: a.String()}
	if hasBits {
		if n, err := strconv.Atoi(bits); err == nil {
			out.Prefix = n
		}
	}
	return out
}

func family(a netip.Addr) string {
	if a.Is4() || a.Is4In6() {
		return "ipv4"
	}
	return "ipv6"
}

func familyRank(f string) int {
	switch f {
	case "ipv4":
		return 0
	case "ipv6":
		return 1
	}
	return 2
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// PrettyJSON is used by the facts CLI command.
func (f Facts) PrettyJSON() (string, error) {
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
