package sdk

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const containersEndpoint = "/containers"

type Container struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Sample struct {
	Timestamp time.Time `json:"ts"`
	CPUPct    float64   `json:"cpuPct"`
	MemBytes  uint64    `json:"memBytes"`
	MemLimit  uint64    `json:"memLimit"`
	NetIn     uint64    `json:"netIn"`
	NetOut    uint64    `json:"netOut"`
}

type SamplePage struct {
	Total   uint64   `json:"total"`
	Offset  uint64   `json:"offset"`
	Limit   uint64   `json:"limit"`
	Samples []Sample `json:"samples"`
}

type HistoryQuery struct {
	From   time.Time
	To     time.Time
	Offset uint64
	Limit  uint64
}

type Logs struct {
	ID    string   `json:"id"`
	Lines []string `json:"lines"`
}

func (sdk *mSDK) containerURL(id, suffix string) string {
	return sdk.agentURL + apiPrefix + containersEndpoint + "/" + url.PathEscape(id) + suffix
}

func (sdk *mSDK) Containers() ([]Container, error) {
	var cs []Container
	if err := sdk.get(sdk.agentURL+apiPrefix+containersEndpoint, &cs); err != nil {
		return nil, err
	}

	return cs, nil
}

func (sdk *mSDK) Container(id string) (Container, error) {
	var c Container
	if err := sdk.get(sdk.containerURL(id, ""), &c); err != nil {
		return Container{}, err
	}

	return c, nil
}

func (sdk *mSDK) ContainerStats(id string, since time.Time) ([]Sample, error) {
	reqURL := sdk.containerURL(id, "/stats")
	if !since.IsZero() {
		reqURL += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339Nano))
	}

	var samples []Sample
	if err := sdk.get(reqURL, &samples); err != nil {
		return nil, err
	}

	return samples, nil
}

func (sdk *mSDK) ContainerHistory(id string, q HistoryQuery) (SamplePage, error) {
	query := url.Values{}
	if !q.From.IsZero() {
		query.Set("from", q.From.UTC().Format(time.RFC3339Nano))
	}
	if !q.To.IsZero() {
		query.Set("to", q.To.UTC().Format(time.RFC3339Nano))
	}
	query.Set("offset", strconv.FormatUint(q.Offset, 10))
	if q.Limit > 0 {
		query.Set("limit", strconv.FormatUint(q.Limit, 10))
	}

	var page SamplePage
	if err := sdk.get(fmt.Sprintf("%s?%s", sdk.containerURL(id, "/history"), query.Encode()), &page); err != nil {
		return SamplePage{}, err
	}

	return page, nil
}

func (sdk *mSDK) ContainerLogs(id string, tail uint64) (Logs, error) {
	reqURL := sdk.containerURL(id, "/logs")
	if tail > 0 {
		reqURL += "?tail=" + strconv.FormatUint(tail, 10)
	}

	var logs Logs
	if err := sdk.get(reqURL, &logs); err != nil {
		return Logs{}, err
	}

	return logs, nil
}
