// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/envdump/lib/sysfs"
)

// Scheduling is the scheduler state of a process.
type Scheduling struct {
	// Policy is the sched_getscheduler result, or -1 on error.
	Policy int
	// Affinity has bit i set when CPU i (i < 64) is allowed.
	Affinity uint64
	// Nice is the process nice value.
	Nice int
}

// SchedulingOf reads the scheduler state of pid (0 for the caller).
func SchedulingOf(pid int) Scheduling {
	result := Scheduling{Policy: -1}

	policy, _, errno := unix.RawSyscall(unix.SYS_SCHED_GETSCHEDULER, uintptr(pid), 0, 0)
	if errno == 0 {
		result.Policy = int(policy)
	}

	var set unix.CPUSet
	if err := unix.SchedGetaffinity(pid, &set); err == nil {
		for i := 0; i < 64; i++ {
			if set.IsSet(i) {
				result.Affinity |= 1 << i
			}
		}
	}

	// The raw syscall returns 20 - nice.
	if raw, err := unix.Getpriority(unix.PRIO_PROCESS, pid); err == nil {
		result.Nice = 20 - raw
	}
	return result
}

// PolicyName maps a scheduling policy number to its SCHED_* name.
func PolicyName(policy int) string {
	switch policy {
	case 0:
		return "SCHED_OTHER"
	case 1:
		return "SCHED_FIFO"
	case 2:
		return "SCHED_RR"
	case 3:
		return "SCHED_BATCH"
	case 5:
		return "SCHED_IDLE"
	case -1:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// CPU records scheduler and frequency-scaling state.
type CPU struct {
	recorder   Recorder
	sysRoot    string
	pid        int
	scheduling func(pid int) Scheduling
}

// NewCPU returns the CPU probe for pid, reading sysfs below sysRoot.
func NewCPU(recorder Recorder, sysRoot string, pid int) *CPU {
	return &CPU{recorder: recorder, sysRoot: sysRoot, pid: pid, scheduling: SchedulingOf}
}

// Name implements lifecycle.Component.
func (c *CPU) Name() string { return "cpu" }

// Init writes SCHED, CPU_FREQ, THROTTLING and, when intel_pstate is
// active, INTEL_PSTATE.
func (c *CPU) Init() error {
	c.writeScheduling()
	c.writeFrequencies()
	c.writeThrottling()
	c.writeIntelPstate()
	return nil
}

// Fini writes the throttling counters again so the capture shows
// whether the run throttled.
func (c *CPU) Fini() error {
	c.writeThrottling()
	return nil
}

func (c *CPU) cpuBase() string {
	return filepath.Join(c.sysRoot, "devices", "system", "cpu")
}

// counts returns the configured and online CPU counts. Configured is
// the number of cpuN directories; online is parsed from the "online"
// range list. gopsutil fills in when sysfs is not visible.
func (c *CPU) counts() (configured, online int) {
	entries, err := os.ReadDir(c.cpuBase())
	if err == nil {
		for _, entry := range entries {
			if isCPUDirectory(entry.Name()) {
				configured++
			}
		}
	}
	online = countRangeList(sysfs.ReadString(filepath.Join(c.cpuBase(), "online")))

	if configured == 0 {
		if logical, err := cpu.Counts(true); err == nil {
			configured = logical
		}
	}
	if online == 0 {
		online = configured
	}
	return configured, online
}

func isCPUDirectory(name string) bool {
	suffix, ok := strings.CutPrefix(name, "cpu")
	if !ok || suffix == "" {
		return false
	}
	_, err := strconv.Atoi(suffix)
	return err == nil
}

// countRangeList counts the CPUs in a list such as "0-3,8,10-11".
func countRangeList(list string) int {
	if list == "" {
		return 0
	}
	count := 0
	for _, part := range strings.Split(list, ",") {
		low, high, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(low)
		if err != nil {
			return 0
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(high)
			if err != nil || last < first {
				return 0
			}
		}
		count += last - first + 1
	}
	return count
}

func (c *CPU) writeScheduling() {
	scheduling := c.scheduling(c.pid)
	configured, online := c.counts()
	c.recorder.Record("SCHED",
		PolicyName(scheduling.Policy),
		strconv.Itoa(configured),
		strconv.Itoa(online),
		strconv.FormatUint(scheduling.Affinity, 10),
		strconv.Itoa(scheduling.Nice))
}

func (c *CPU) writeFrequencies() {
	configured, _ := c.counts()
	fields := []string{strconv.Itoa(configured)}
	for i := 0; i < configured; i++ {
		cpufreq := filepath.Join(c.cpuBase(), "cpu"+strconv.Itoa(i), "cpufreq")
		fields = append(fields,
			sysfs.ReadString(filepath.Join(cpufreq, "scaling_min_freq")),
			sysfs.ReadString(filepath.Join(cpufreq, "scaling_max_freq")))
	}
	c.recorder.Record("CPU_FREQ", fields...)
}

func (c *CPU) writeThrottling() {
	configured, _ := c.counts()
	fields := []string{
		strconv.Itoa(configured),
		sysfs.ReadString(filepath.Join(c.cpuBase(), "cpu0", "thermal_throttle", "package_throttle_count")),
	}
	for i := 0; i < configured; i++ {
		fields = append(fields, sysfs.ReadString(filepath.Join(c.cpuBase(), "cpu"+strconv.Itoa(i), "thermal_throttle", "core_throttle_count")))
	}
	c.recorder.Record("THROTTLING", fields...)
}

func (c *CPU) writeIntelPstate() {
	pstate := filepath.Join(c.cpuBase(), "intel_pstate")
	if !sysfs.Exists(pstate) {
		return
	}
	c.recorder.Record("INTEL_PSTATE",
		sysfs.ReadString(filepath.Join(pstate, "num_pstates")),
		sysfs.ReadString(filepath.Join(pstate, "turbo_pct")),
		sysfs.ReadString(filepath.Join(pstate, "no_turbo")),
		sysfs.ReadString(filepath.Join(pstate, "min_perf_pct")),
		sysfs.ReadString(filepath.Join(pstate, "max_perf_pct")))
}
