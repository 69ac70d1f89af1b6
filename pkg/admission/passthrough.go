package admission

// PassGate is the secondary throttle stage. The current policy never denies;
// the stage exists so a graduated response (delay instead of reject, or
// tiered limits) can replace it without changing the pipeline call site.
type PassGate struct{}

// NewPassGate creates the always-admit gate.
func NewPassGate() *PassGate {
	return &PassGate{}
}

// TryAdmit implements Gate. It admits unconditionally.
func (*PassGate) TryAdmit(string) Decision {
	return Admitted
}
