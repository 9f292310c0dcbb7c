package report

import "errors"

var (
	ErrReportTimeout = errors.New("report took too long to generate")
)
