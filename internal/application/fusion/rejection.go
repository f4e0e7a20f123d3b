package fusion

import "fmt"

// Reason clasifica por qué un tick no produjo señal.
type Reason string

const (
	ReasonInsufficientData  Reason = "insufficient_data"
	ReasonNoTrend           Reason = "no_trend"
	ReasonNoMomentum        Reason = "no_momentum"
	ReasonDirectionConflict Reason = "direction_conflict"
	ReasonLowConfidence     Reason = "low_confidence"
	ReasonCooldown          Reason = "cooldown"
	ReasonSession           Reason = "session"
	ReasonSpread            Reason = "spread"
)

// Rejection explica un tick sin señal. El valor cero es sin rechazo.
type Rejection struct {
	Reason Reason
	Detail string
}

// Rejected indica si el rechazo tiene motivo.
func (r Rejection) Rejected() bool {
	return r.Reason != ""
}

func (r Rejection) String() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

func reject(reason Reason, format string, args ...any) Rejection {
	return Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
