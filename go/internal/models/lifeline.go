package models

// LifelineKind defines a one-shot team assistance affordance.
type LifelineKind string

const (
	LifelineFiftyFifty LifelineKind = "FIFTY_FIFTY"
	LifelinePhone      LifelineKind = "PHONE"
	LifelineDiscuss    LifelineKind = "DISCUSS"
)

// LifelineKinds lists every lifeline in display order.
var LifelineKinds = []LifelineKind{LifelineFiftyFifty, LifelinePhone, LifelineDiscuss}

// Valid reports whether k is a known lifeline.
func (k LifelineKind) Valid() bool {
	switch k {
	case LifelineFiftyFifty, LifelinePhone, LifelineDiscuss:
		return true
	}
	return false
}

// Label returns the name shown to players.
func (k LifelineKind) Label() string {
	switch k {
	case LifelineFiftyFifty:
		return "50-50"
	case LifelinePhone:
		return "Phone-a-Friend"
	case LifelineDiscuss:
		return "Team Discussion"
	}
	return string(k)
}

// ServerBacked reports whether using the lifeline needs the server's consent.
// Only the 50-50 is authorised remotely; the others are advisory.
func (k LifelineKind) ServerBacked() bool {
	return k == LifelineFiftyFifty
}
