package domain

import "fmt"

// Platform identifies one of the supported prediction-market exchanges.
// All per-platform dispatch (display names, adapter lookup) is keyed by
// this type instead of raw strings.
type Platform string

const (
	PlatformKalshi     Platform = "kalshi"
	PlatformPolymarket Platform = "polymarket"
	PlatformPredictIt  Platform = "predictit"
)

// AllPlatforms returns every supported platform in a stable order.
func AllPlatforms() []Platform {
	return []Platform{PlatformKalshi, PlatformPolymarket, PlatformPredictIt}
}

// ParsePlatform validates a platform string received from config or callers.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformKalshi, PlatformPolymarket, PlatformPredictIt:
		return Platform(s), nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// DisplayName returns the human-readable exchange name.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformKalshi:
		return "Kalshi"
	case PlatformPolymarket:
		return "Polymarket"
	case PlatformPredictIt:
		return "PredictIt"
	default:
		return string(p)
	}
}

// Emoji returns the marker used in notifications and log lines.
func (p Platform) Emoji() string {
	switch p {
	case PlatformKalshi:
		return "🟢"
	case PlatformPolymarket:
		return "🟣"
	case PlatformPredictIt:
		return "🔴"
	default:
		return "⚪"
	}
}
