package influxdb

import (
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by keygate.
const (
	MeasurementAuthDecision     = "auth_decisions"
	MeasurementCredentialIssued = "credential_issuance"
)

// Outcome tag values for auth_decisions.
const (
	OutcomeAllow = "allow"
	OutcomeDeny  = "deny"
)

// WriteAuthDecision records one authorization decision.
//
// role_id and outcome are tags (bounded cardinality). The required
// permission names are stored as a comma-separated field so they stay out
// of the series key.
func (c *Client) WriteAuthDecision(roleID string, required []string, allowed bool, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(decisionPoint(roleID, required, allowed, at))
}

// WriteCredentialIssued records a key/token or secret issuance.
//
// Parameters:
//   - kind: "key_token" or "secret"
//   - at: Issuance time
func (c *Client) WriteCredentialIssued(kind string, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(issuancePoint(kind, at))
}

func decisionPoint(roleID string, required []string, allowed bool, at time.Time) *write.Point {
	outcome := OutcomeDeny
	if allowed {
		outcome = OutcomeAllow
	}
	return write.NewPoint(
		MeasurementAuthDecision,
		map[string]string{
			"role_id": roleID,
			"outcome": outcome,
		},
		map[string]interface{}{
			"count":    1,
			"required": strings.Join(required, ","),
		},
		at,
	)
}

func issuancePoint(kind string, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementCredentialIssued,
		map[string]string{"kind": kind},
		map[string]interface{}{"count": 1},
		at,
	)
}
