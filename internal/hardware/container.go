package hardware

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/prometheus/procfs"
)

// Default filesystem roots.
const (
	DefaultCgroupRoot = "/sys/fs/cgroup"
	DefaultProcRoot   = "/proc"
)

// cgroupV1Unlimited is the threshold above which a v1 memory limit means
// "no limit" (the kernel reports a page-aligned LLONG_MAX).
const cgroupV1Unlimited = 1 << 50

const bytesPerMB = 1024 * 1024

// ContainerStats is one reading of the container's resource usage.
type ContainerStats struct {
	CgroupVersion int
	MemoryUsed    uint64 // bytes
	MemoryLimit   uint64 // bytes, zero when unknown
	CPUSeconds    float64
	NetworkRX     uint64 // bytes
	NetworkTX     uint64 // bytes
}

// MemoryPercent returns used/limit as an integer percentage.
func (c ContainerStats) MemoryPercent() int {
	if c.MemoryLimit == 0 {
		return 0
	}
	return int(c.MemoryUsed * 100 / c.MemoryLimit)
}

// Fields renders the reading as container/<field> values. Sizes are in MB.
func (c ContainerStats) Fields() map[string]string {
	return map[string]string{
		"memory_used":    strconv.FormatUint(c.MemoryUsed/bytesPerMB, 10),
		"memory_limit":   strconv.FormatUint(c.MemoryLimit/bytesPerMB, 10),
		"memory_percent": strconv.Itoa(c.MemoryPercent()),
		"cpu_seconds":    strconv.FormatFloat(c.CPUSeconds, 'f', 1, 64),
		"network_rx":     strconv.FormatUint(c.NetworkRX/bytesPerMB, 10),
		"network_tx":     strconv.FormatUint(c.NetworkTX/bytesPerMB, 10),
	}
}

// ContainerProbe reads cgroup and procfs accounting files.
type ContainerProbe struct {
	cgroupRoot string
	procRoot   string
}

// NewContainerProbe creates a probe. Empty roots use the defaults.
func NewContainerProbe(cgroupRoot, procRoot string) *ContainerProbe {
	if cgroupRoot == "" {
		cgroupRoot = DefaultCgroupRoot
	}
	if procRoot == "" {
		procRoot = DefaultProcRoot
	}
	return &ContainerProbe{cgroupRoot: cgroupRoot, procRoot: procRoot}
}

// Probe takes one reading. It reports Unavailable when no cgroup memory
// accounting is present.
func (p *ContainerProbe) Probe() Result[ContainerStats] {
	var (
		stats ContainerStats
		err   error
	)

	switch {
	case exists(filepath.Join(p.cgroupRoot, "cgroup.controllers")):
		stats, err = p.readV2()
	case exists(filepath.Join(p.cgroupRoot, "memory", "memory.usage_in_bytes")):
		stats, err = p.readV1()
	default:
		return Unavailable[ContainerStats]()
	}
	if err != nil {
		return Failed[ContainerStats](err)
	}

	if stats.MemoryLimit == 0 {
		stats.MemoryLimit = p.hostMemory()
	}

	// Network counters are best effort; a container without /proc/net/dev
	// still reports memory and CPU.
	stats.NetworkRX, stats.NetworkTX = p.network()

	return Ok(stats)
}

func (p *ContainerProbe) readV2() (ContainerStats, error) {
	stats := ContainerStats{CgroupVersion: 2}

	used, err := readUint(filepath.Join(p.cgroupRoot, "memory.current"))
	if err != nil {
		return stats, err
	}
	stats.MemoryUsed = used

	raw, err := readTrimmed(filepath.Join(p.cgroupRoot, "memory.max"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return stats, err
	}
	if raw != "" && raw != "max" {
		limit, perr := strconv.ParseUint(raw, 10, 64)
		if perr != nil {
			return stats, fmt.Errorf("hardware: parsing memory.max %q: %w", raw, perr)
		}
		stats.MemoryLimit = limit
	}

	if usec, ok := cpuStatUsage(filepath.Join(p.cgroupRoot, "cpu.stat")); ok {
		stats.CPUSeconds = float64(usec) / 1e6
	}
	return stats, nil
}

func (p *ContainerProbe) readV1() (ContainerStats, error) {
	stats := ContainerStats{CgroupVersion: 1}

	used, err := readUint(filepath.Join(p.cgroupRoot, "memory", "memory.usage_in_bytes"))
	if err != nil {
		return stats, err
	}
	stats.MemoryUsed = used

	limit, err := readUint(filepath.Join(p.cgroupRoot, "memory", "memory.limit_in_bytes"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return stats, err
	}
	if limit < cgroupV1Unlimited {
		stats.MemoryLimit = limit
	}

	if ns, err := readUint(filepath.Join(p.cgroupRoot, "cpu", "cpuacct.usage")); err == nil {
		stats.CPUSeconds = float64(ns) / 1e9
	} else if ns, err := readUint(filepath.Join(p.cgroupRoot, "cpuacct", "cpuacct.usage")); err == nil {
		stats.CPUSeconds = float64(ns) / 1e9
	}
	return stats, nil
}

// hostMemory returns MemTotal in bytes, or zero if it cannot be read.
func (p *ContainerProbe) hostMemory() uint64 {
	fs, err := procfs.NewFS(p.procRoot)
	if err != nil {
		return 0
	}
	mi, err := fs.Meminfo()
	if err != nil || mi.MemTotal == nil {
		return 0
	}
	return *mi.MemTotal * 1024
}

// network sums receive and transmit bytes over every interface except lo.
func (p *ContainerProbe) network() (rx, tx uint64) {
	fs, err := procfs.NewFS(p.procRoot)
	if err != nil {
		return 0, 0
	}
	dev, err := fs.NetDev()
	if err != nil {
		return 0, 0
	}
	for name, line := range dev {
		if name == "lo" {
			continue
		}
		rx += line.RxBytes
		tx += line.TxBytes
	}
	return rx, tx
}

func cpuStatUsage(path string) (uint64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), " ")
		if !ok || key != "usage_usec" {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hardware: reading %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func readUint(path string) (uint64, error) {
	raw, err := readTrimmed(path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("hardware: parsing %s %q: %w", path, raw, err)
	}
	return n, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
