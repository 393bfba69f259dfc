package effect

// Severity classifies how an effect landed (client picks the popup style from it).
type Severity uint8

const (
	SeverityNormal Severity = iota
	SeverityCritical
	SeverityDirectHit
	SeverityCriticalDirectHit
)

func (s Severity) String() string {
	switch s {
	case SeverityNormal:
		return "normal"
	case SeverityCritical:
		return "critical"
	case SeverityDirectHit:
		return "direct_hit"
	case SeverityCriticalDirectHit:
		return "critical_direct_hit"
	default:
		return "unknown"
	}
}
