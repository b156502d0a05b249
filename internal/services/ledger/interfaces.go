package ledger

import "context"

// SecurityAlerter receives alerts for conditions that need operator
// attention, such as a failed transfer compensation.
type SecurityAlerter interface {
	SendSecurityAlert(ctx context.Context, message string, metadata map[string]interface{}) error
}
