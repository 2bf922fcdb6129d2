package batch

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

// SysInfo describes the machine a run executed on, so that solve times from
// different shards can be compared.
type SysInfo struct {
	Platform string `json:"platform"`
	CPU      string `json:"cpu"`
	Cores    int    `json:"cores"`
	RAM      string `json:"ram"`
}

// CollectSysInfo gathers host details. Fields gopsutil cannot determine are
// left at their fallback values.
func CollectSysInfo() SysInfo {
	info := SysInfo{Platform: runtime.GOOS, CPU: "unknown", Cores: runtime.NumCPU(), RAM: "unknown"}
	if hostStat, err := host.Info(); err == nil && hostStat != nil {
		info.Platform = fmt.Sprintf("%s %s", hostStat.Platform, hostStat.PlatformVersion)
	}
	if cpuStat, err := cpu.Info(); err == nil && len(cpuStat) > 0 {
		info.CPU = cpuStat[0].ModelName
	}
	if vmStat, err := mem.VirtualMemory(); err == nil && vmStat != nil {
		info.RAM = fmt.Sprintf("%d GB", vmStat.Total/1024/1024/1024)
	}
	return info
}
