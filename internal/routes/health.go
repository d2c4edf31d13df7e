package routes

import (
	"time"

	"github.com/krumpled/krumd/internal/core"
	"github.com/krumpled/krumd/internal/httpd"
)

type healthCheckData struct {
	Time    int64  `json:"time"`
	Version string `json:"version"`
}

// HealthCheck reports the server time and build version.
func HealthCheck(ctx *httpd.Context, _ *httpd.Head) (*httpd.Response, error) {
	ctx.Logger().Debugf("health check")
	return httpd.JSON(healthCheckData{
		Time:    time.Now().UnixMilli(),
		Version: core.Version,
	})
}
