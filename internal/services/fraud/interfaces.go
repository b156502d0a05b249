package fraud

import (
	"corebank/internal/services/velocity"
)

// VelocityWindow is the view of the velocity cache the engine needs.
type VelocityWindow interface {
	Record(userID uint, e velocity.Entry)
	Count(userID uint) int
	KnownRecipient(userID uint, recipient string) bool
	LastLocation(userID uint) (velocity.Entry, bool)
}
