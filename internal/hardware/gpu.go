package hardware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultGPUTimeout bounds one nvidia-smi run.
const DefaultGPUTimeout = 10 * time.Second

// gpuQuery is the nvidia-smi field list, in CSV column order.
const gpuQuery = "name,driver_version,temperature.gpu,utilization.gpu," +
	"memory.total,memory.used,memory.free,utilization.encoder," +
	"utilization.decoder,power.draw,fan.speed"

// minGPUColumns is the number of columns required for a usable reading.
const minGPUColumns = 9

// ErrUnexpectedOutput is returned when nvidia-smi output cannot be parsed.
var ErrUnexpectedOutput = errors.New("hardware: unexpected nvidia-smi output")

// GPUStats is one reading of the first GPU. Memory values are in MB.
type GPUStats struct {
	Name          string
	Driver        string
	Temperature   int
	Utilization   int
	MemoryTotal   int
	MemoryUsed    int
	MemoryFree    int
	MemoryPercent int
	Encoder       int
	Decoder       int
	Power         float64
	Fan           int
}

// Fields renders the reading as gpu/<field> values.
func (g GPUStats) Fields() map[string]string {
	return map[string]string{
		"name":           g.Name,
		"driver":         g.Driver,
		"temperature":    strconv.Itoa(g.Temperature),
		"utilization":    strconv.Itoa(g.Utilization),
		"memory_total":   strconv.Itoa(g.MemoryTotal),
		"memory_used":    strconv.Itoa(g.MemoryUsed),
		"memory_free":    strconv.Itoa(g.MemoryFree),
		"memory_percent": strconv.Itoa(g.MemoryPercent),
		"encoder":        strconv.Itoa(g.Encoder),
		"decoder":        strconv.Itoa(g.Decoder),
		"power":          strconv.FormatFloat(g.Power, 'f', 1, 64),
		"fan":            strconv.Itoa(g.Fan),
	}
}

// GPUProbe reads NVIDIA GPU metrics through nvidia-smi.
type GPUProbe struct {
	command string
	timeout time.Duration

	lookPath func(string) (string, error)
	run      func(ctx context.Context, path string, args ...string) ([]byte, error)
}

// NewGPUProbe creates a probe for the nvidia-smi binary named command.
func NewGPUProbe(command string, timeout time.Duration) *GPUProbe {
	if timeout <= 0 {
		timeout = DefaultGPUTimeout
	}
	return &GPUProbe{
		command:  command,
		timeout:  timeout,
		lookPath: exec.LookPath,
		run: func(ctx context.Context, path string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, path, args...).Output()
		},
	}
}

// Probe takes one reading.
func (p *GPUProbe) Probe(ctx context.Context) Result[GPUStats] {
	if p.command == "" {
		return Unavailable[GPUStats]()
	}
	path, err := p.lookPath(p.command)
	if err != nil {
		return Unavailable[GPUStats]()
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.run(ctx, path, "--query-gpu="+gpuQuery, "--format=csv,noheader,nounits")
	if err != nil {
		return Failed[GPUStats](fmt.Errorf("running %s: %w", p.command, err))
	}

	stats, err := parseNvidiaSMI(string(out))
	if err != nil {
		return Failed[GPUStats](err)
	}
	return Ok(stats)
}

// parseNvidiaSMI parses the first line of CSV output. Columns reported as
// "[N/A]" or otherwise unparseable read as zero.
func parseNvidiaSMI(out string) (GPUStats, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	cols := strings.Split(line, ",")
	if len(cols) < minGPUColumns {
		return GPUStats{}, fmt.Errorf("%w: %d columns in %q", ErrUnexpectedOutput, len(cols), line)
	}
	for i := range cols {
		cols[i] = strings.TrimSpace(cols[i])
	}
	col := func(i int) string {
		if i < len(cols) {
			return cols[i]
		}
		return ""
	}

	g := GPUStats{
		Name:        col(0),
		Driver:      col(1),
		Temperature: atoiOrZero(col(2)),
		Utilization: atoiOrZero(col(3)),
		MemoryTotal: atoiOrZero(col(4)),
		MemoryUsed:  atoiOrZero(col(5)),
		MemoryFree:  atoiOrZero(col(6)),
		Encoder:     atoiOrZero(col(7)),
		Decoder:     atoiOrZero(col(8)),
		Power:       floatOrZero(col(9)),
		Fan:         atoiOrZero(col(10)),
	}
	if g.MemoryTotal > 0 {
		g.MemoryPercent = g.MemoryUsed * 100 / g.MemoryTotal
	}
	return g, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) {
			return 0
		}
		return int(f)
	}
	return n
}

func floatOrZero(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}
