package sdk

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	CTJSON = "application/json"

	apiPrefix = "/api/v1"
)

// Error is returned for every response outside the 2xx range.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected response code: %d", e.StatusCode)
	}

	return fmt.Sprintf("unexpected response code: %d: %s", e.StatusCode, e.Message)
}

type SDK interface {
	// Containers lists every container the agent tracks.
	//
	// example:
	//  containers, _ := sdk.Containers()
	//  fmt.Println(containers)
	Containers() ([]Container, error)

	// Container gets a container by id.
	//
	// example:
	//  c, _ := sdk.Container("4f2c0b6e1a9d")
	//  fmt.Println(c.State)
	Container(id string) (Container, error)

	// ContainerStats returns the buffered samples of a container taken at or
	// after since. A zero since returns the whole buffer.
	//
	// example:
	//  samples, _ := sdk.ContainerStats("4f2c0b6e1a9d", time.Now().Add(-time.Minute))
	//  fmt.Println(len(samples))
	ContainerStats(id string, since time.Time) ([]Sample, error)

	// FleetMetrics returns the aggregate figures for all containers.
	//
	// example:
	//  fm, _ := sdk.FleetMetrics()
	//  fmt.Println(fm.P95CPUPct)
	FleetMetrics() (FleetMetrics, error)

	// ContainerHistory pages through archived samples.
	//
	// example:
	//  page, _ := sdk.ContainerHistory("4f2c0b6e1a9d", HistoryQuery{Limit: 50})
	//  fmt.Println(page.Total)
	ContainerHistory(id string, q HistoryQuery) (SamplePage, error)

	// ContainerLogs returns the last tail log lines of a container.
	//
	// example:
	//  logs, _ := sdk.ContainerLogs("4f2c0b6e1a9d", 20)
	//  fmt.Println(logs.Lines)
	ContainerLogs(id string, tail uint64) (Logs, error)

	// Health reports the agent health. An unreachable container runtime is
	// returned as an error.
	Health() (HealthInfo, error)
}

type mSDK struct {
	agentURL string
	client   *http.Client
}

type Config struct {
	AgentURL        string
	TLSVerification bool
	Timeout         time.Duration
}

func NewSDK(cfg Config) SDK {
	return &mSDK{
		agentURL: strings.TrimSuffix(cfg.AgentURL, "/"),
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: !cfg.TLSVerification,
				},
			},
		},
	}
}

// processRequest performs a single GET. Failures are never retried.
func (sdk *mSDK) processRequest(reqURL string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", CTJSON)

	resp, err := sdk.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &Error{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	return body, nil
}

func (sdk *mSDK) get(reqURL string, v any) error {
	body, err := sdk.processRequest(reqURL)
	if err != nil {
		return err
	}

	return json.Unmarshal(body, v)
}

func errorMessage(body []byte) string {
	var res struct {
		Err string `json:"error"`
	}
	if err := json.Unmarshal(body, &res); err == nil && res.Err != "" {
		return res.Err
	}

	return strings.TrimSpace(string(body))
}
