package routes

import (
	"github.com/krumpled/krumd/internal/httpd"
)

// FindJobs resolves the job identifiers named by the repeated ids[] query
// parameter into their current handles. Pending and unknown identifiers both
// come back with a null result; an unknown identifier is a valid outcome for
// an expired id, not an error.
func FindJobs(ctx *httpd.Context, head *httpd.Head) (*httpd.Response, error) {
	if ctx.Authority() == nil {
		return httpd.NotFound(), nil
	}

	ids := head.Query()["ids[]"]
	if len(ids) == 0 {
		return httpd.NotFound(), nil
	}

	handles, err := ctx.Jobs().Handles(ids)
	if err != nil {
		return nil, err
	}

	return httpd.JSON(handles)
}
