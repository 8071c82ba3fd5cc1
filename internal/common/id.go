package common

import (
	"github.com/google/uuid"
)

// NewReportID generates a unique analysis report ID with the "rpt_" prefix
// Format: rpt_<uuid>
func NewReportID() string {
	return "rpt_" + uuid.New().String()
}
