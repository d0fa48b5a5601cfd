// Package influxdb writes keygate's authorization metrics to InfluxDB v2.
//
// Two measurements are produced:
//
//	auth_decisions       tags: role_id, outcome   fields: count, required
//	credential_issuance  tags: kind                fields: count
//
// The integration is optional. Connect returns ErrDisabled when
// influxdb.enabled is false, and every write method is a no-op on a
// disconnected client.
package influxdb
