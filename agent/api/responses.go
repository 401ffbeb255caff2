package api

import (
	"net/http"

	"github.com/absmach/metricus/container"
	"github.com/absmach/metricus/pkg/api"
)

var (
	_ api.Response = (*listContainersRes)(nil)
	_ api.Response = (*containerRes)(nil)
	_ api.Response = (*statsRes)(nil)
	_ api.Response = (*fleetRes)(nil)
	_ api.Response = (*historyRes)(nil)
	_ api.Response = (*logsRes)(nil)
)

type okRes struct{}

func (okRes) Code() int {
	return http.StatusOK
}

func (okRes) Headers() map[string]string {
	return map[string]string{}
}

func (okRes) Empty() bool {
	return false
}

type listContainersRes []container.Container

func (listContainersRes) Code() int                  { return http.StatusOK }
func (listContainersRes) Headers() map[string]string { return map[string]string{} }
func (listContainersRes) Empty() bool                { return false }

type containerRes struct {
	okRes
	container.Container
}

type statsRes []container.Sample

func (statsRes) Code() int                  { return http.StatusOK }
func (statsRes) Headers() map[string]string { return map[string]string{} }
func (statsRes) Empty() bool                { return false }

type fleetRes struct {
	okRes
	container.FleetMetrics
}

type historyRes struct {
	okRes
	container.SamplePage
}

type logsRes struct {
	okRes
	ID    string   `json:"id"`
	Lines []string `json:"lines"`
}
