package sdk

const (
	metricsEndpoint = "/metrics"
	healthEndpoint  = "/health"
)

type FleetMetrics struct {
	TotalContainers   int     `json:"totalContainers"`
	RunningContainers int     `json:"runningContainers"`
	AvgCPUPct         float64 `json:"avgCpuPct"`
	P50CPUPct         float64 `json:"p50CpuPct"`
	P95CPUPct         float64 `json:"p95CpuPct"`
	StaleCount        int     `json:"staleCount"`
}

type HealthInfo struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Description string `json:"description"`
	InstanceID  string `json:"instance_id"`
}

func (sdk *mSDK) FleetMetrics() (FleetMetrics, error) {
	var fm FleetMetrics
	if err := sdk.get(sdk.agentURL+apiPrefix+metricsEndpoint, &fm); err != nil {
		return FleetMetrics{}, err
	}

	return fm, nil
}

func (sdk *mSDK) Health() (HealthInfo, error) {
	var h HealthInfo
	if err := sdk.get(sdk.agentURL+healthEndpoint, &h); err != nil {
		return HealthInfo{}, err
	}

	return h, nil
}
