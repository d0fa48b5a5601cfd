// Package audit persists keygate's security audit trail.
//
// Every security event (credential issuance, authorization denial, user and
// role changes) lands in the audit_logs table through the event bus. The
// admin API reads it back with filtering and pagination.
package audit
