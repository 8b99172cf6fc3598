package std

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/ZhuLinsen/MiniAgent/pkg/tools"
)

// NewSystemInfo - system_info: ОС, ядро, архитектура, hostname.
func NewSystemInfo() (tools.Tool, error) {
	return tools.NewDynamic("system_info",
		"Get detailed information about the system: OS, version, architecture, hostname.",
		nil,
		func(ctx context.Context, _ tools.Args) (any, error) {
			info := map[string]any{
				"platform":     runtime.GOOS,
				"architecture": runtime.GOARCH,
				"cpu_count":    runtime.NumCPU(),
				"go_version":   runtime.Version(),
				"time":         time.Now().Format(time.RFC3339),
			}
			if hostname, err := os.Hostname(); err == nil {
				info["hostname"] = hostname
			}

			// host.Info может быть частично недоступен (контейнеры, ограничения прав)
			if h, err := host.InfoWithContext(ctx); err == nil {
				info["platform_release"] = h.KernelVersion
				info["distribution"] = h.Platform
				info["distribution_version"] = h.PlatformVersion
				info["platform_family"] = h.PlatformFamily
				info["uptime"] = (time.Duration(h.Uptime) * time.Second).String()
				if h.VirtualizationSystem != "" {
					info["virtualization"] = h.VirtualizationSystem + "/" + h.VirtualizationRole
				}
			}
			return info, nil
		})
}

type diskUsageArgs struct {
	Path string `json:"path,omitempty" jsonschema:"description=Path to check disk usage,default=/"`
}

// NewDiskUsage - disk_usage: использование диска для пути.
func NewDiskUsage() (tools.Tool, error) {
	return tools.NewFunc("disk_usage",
		"Get disk usage information for a specified path.",
		func(ctx context.Context, args diskUsageArgs) (any, error) {
			path := args.Path
			if path == "" {
				path = "/"
			}

			usage, err := disk.UsageWithContext(ctx, path)
			if err != nil {
				return nil, fmt.Errorf("failed to get disk usage for '%s': %w", path, err)
			}

			return map[string]any{
				"path":         path,
				"fstype":       usage.Fstype,
				"total_bytes":  usage.Total,
				"used_bytes":   usage.Used,
				"free_bytes":   usage.Free,
				"percent_used": round2(usage.UsedPercent),
				"total_human":  humanize.IBytes(usage.Total),
				"used_human":   humanize.IBytes(usage.Used),
				"free_human":   humanize.IBytes(usage.Free),
				"updated_at":   time.Now().Format(time.RFC3339),
			}, nil
		})
}

type processListArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Maximum number of processes to return sorted by CPU usage,default=10,minimum=1"`
}

type processInfo struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Username      string  `json:"username,omitempty"`
}

// NewProcessList - process_list: процессы, отсортированные по загрузке CPU.
func NewProcessList() (tools.Tool, error) {
	return tools.NewFunc("process_list",
		"Get list of running processes sorted by CPU usage.",
		func(ctx context.Context, args processListArgs) (any, error) {
			limit := args.Limit
			if limit <= 0 {
				limit = 10
			}

			procs, err := process.ProcessesWithContext(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get process list: %w", err)
			}

			list := make([]processInfo, 0, len(procs))
			for _, p := range procs {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				// Процесс мог завершиться или быть недоступен: пропускаем
				name, err := p.NameWithContext(ctx)
				if err != nil {
					continue
				}
				info := processInfo{PID: p.Pid, Name: name}
				if v, err := p.CPUPercentWithContext(ctx); err == nil {
					info.CPUPercent = round2(v)
				}
				if v, err := p.MemoryPercentWithContext(ctx); err == nil {
					info.MemoryPercent = round2(float64(v))
				}
				if v, err := p.UsernameWithContext(ctx); err == nil {
					info.Username = v
				}
				list = append(list, info)
			}

			sort.SliceStable(list, func(i, j int) bool {
				return list[i].CPUPercent > list[j].CPUPercent
			})
			if len(list) > limit {
				list = list[:limit]
			}
			return list, nil
		})
}

// NewSystemLoad - system_load: загрузка CPU, память и корневой диск.
// sample - окно замера CPU; 0 даёт значение относительно предыдущего вызова.
func NewSystemLoad(sample time.Duration) (tools.Tool, error) {
	return tools.NewDynamic("system_load",
		"Get system load information including CPU, memory, and disk usage.",
		nil,
		func(ctx context.Context, _ tools.Args) (any, error) {
			cpuPercent, err := cpu.PercentWithContext(ctx, sample, false)
			if err != nil {
				return nil, fmt.Errorf("failed to get cpu usage: %w", err)
			}
			cpuCount, _ := cpu.CountsWithContext(ctx, true)

			vm, err := mem.VirtualMemoryWithContext(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get memory usage: %w", err)
			}

			cpuInfo := map[string]any{"count": cpuCount}
			if len(cpuPercent) > 0 {
				cpuInfo["percent"] = round2(cpuPercent[0])
			}
			if avg, err := load.AvgWithContext(ctx); err == nil {
				cpuInfo["load_avg"] = []float64{avg.Load1, avg.Load5, avg.Load15}
			}

			result := map[string]any{
				"cpu": cpuInfo,
				"memory": map[string]any{
					"total":           vm.Total,
					"available":       vm.Available,
					"used":            vm.Used,
					"free":            vm.Free,
					"percent":         round2(vm.UsedPercent),
					"total_human":     humanize.IBytes(vm.Total),
					"available_human": humanize.IBytes(vm.Available),
					"used_human":      humanize.IBytes(vm.Used),
					"free_human":      humanize.IBytes(vm.Free),
				},
				"updated_at": time.Now().Format(time.RFC3339),
			}

			if d, err := disk.UsageWithContext(ctx, "/"); err == nil {
				result["disk"] = map[string]any{
					"total":       d.Total,
					"used":        d.Used,
					"free":        d.Free,
					"percent":     round2(d.UsedPercent),
					"total_human": humanize.IBytes(d.Total),
					"used_human":  humanize.IBytes(d.Used),
					"free_human":  humanize.IBytes(d.Free),
				}
			}
			return result, nil
		})
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
