package cand

// ResetGate guards the reset operation with a static shared secret.
//
// This is a placeholder capability check, not authentication: the secret is a
// fixed configured string compared for exact equality, with no users, hashing or
// rate limiting.
type ResetGate struct {
	secret string
}

// NewResetGate creates a gate that opens for exactly secret.
func NewResetGate(secret string) *ResetGate {
	return &ResetGate{secret: secret}
}

// Check returns ErrAccessDenied unless attempt equals the configured secret.
func (g *ResetGate) Check(attempt string) error {
	if attempt != g.secret {
		return ErrAccessDenied
	}
	return nil
}
