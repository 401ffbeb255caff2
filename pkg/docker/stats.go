package docker

import (
	"github.com/absmach/metricus/container"
	containertypes "github.com/docker/docker/api/types/container"
)

// NormalizeStats converts an Engine stats reading into a Sample. CPU is
// the share of host time used since the previous reading, scaled by the
// number of online CPUs, so one fully busy core reads 100.
func NormalizeStats(stats containertypes.StatsResponse, hostCPUs int) container.Sample {
	var netIn, netOut uint64
	for _, n := range stats.Networks {
		netIn += n.RxBytes
		netOut += n.TxBytes
	}

	return container.Sample{
		Timestamp: stats.Read,
		CPUPct:    cpuPercent(stats, hostCPUs),
		MemBytes:  memUsage(stats.MemoryStats),
		MemLimit:  stats.MemoryStats.Limit,
		NetIn:     netIn,
		NetOut:    netOut,
	}
}

func cpuPercent(stats containertypes.StatsResponse, hostCPUs int) float64 {
	cur, pre := stats.CPUStats, stats.PreCPUStats
	if cur.CPUUsage.TotalUsage < pre.CPUUsage.TotalUsage || cur.SystemUsage <= pre.SystemUsage {
		return 0
	}

	cpuDelta := float64(cur.CPUUsage.TotalUsage - pre.CPUUsage.TotalUsage)
	sysDelta := float64(cur.SystemUsage - pre.SystemUsage)

	online := int(cur.OnlineCPUs)
	if online == 0 {
		online = len(cur.CPUUsage.PercpuUsage)
	}
	if online == 0 {
		online = hostCPUs
	}

	pct := cpuDelta / sysDelta * float64(online) * 100
	if ceiling := float64(online) * 100; pct > ceiling {
		pct = ceiling
	}

	return pct
}

// memUsage excludes the page cache the way the docker CLI does: cgroup v2
// reports it as inactive_file, cgroup v1 as total_inactive_file.
func memUsage(m containertypes.MemoryStats) uint64 {
	if v, ok := m.Stats["inactive_file"]; ok && v < m.Usage {
		return m.Usage - v
	}
	if v, ok := m.Stats["total_inactive_file"]; ok && v < m.Usage {
		return m.Usage - v
	}

	return m.Usage
}
