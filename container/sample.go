package container

import "time"

// Sample is a single resource usage reading. Network counters are
// cumulative since the container started.
type Sample struct {
	Timestamp time.Time `json:"ts"`
	CPUPct    float64   `json:"cpuPct"`
	MemBytes  uint64    `json:"memBytes"`
	MemLimit  uint64    `json:"memLimit"`
	NetIn     uint64    `json:"netIn"`
	NetOut    uint64    `json:"netOut"`
}

type FleetMetrics struct {
	TotalContainers   int     `json:"totalContainers"`
	RunningContainers int     `json:"runningContainers"`
	AvgCPUPct         float64 `json:"avgCpuPct"`
	P50CPUPct         float64 `json:"p50CpuPct"`
	P95CPUPct         float64 `json:"p95CpuPct"`
	StaleCount        int     `json:"staleCount"`
}

// Record is a sample tagged with the container it was read from.
type Record struct {
	ContainerID string `json:"containerId"`
	Sample
}

type SamplePage struct {
	Total   uint64   `json:"total"`
	Offset  uint64   `json:"offset"`
	Limit   uint64   `json:"limit"`
	Samples []Sample `json:"samples"`
}
