package fusion

import (
	"fmt"
	"time"
)

// HourRange es un rango inclusivo de horas UTC.
type HourRange struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Contains indica si hour cae dentro del rango.
func (r HourRange) Contains(hour int) bool {
	return hour >= r.Start && hour <= r.End
}

func (r HourRange) String() string {
	return fmt.Sprintf("%02d-%02d", r.Start, r.End)
}

// Weights es la aportación máxima de cada componente.
type Weights struct {
	Trend        float64
	Momentum     float64
	Confirmation float64
	Volatility   float64
	Volume       float64
}

// Config parametriza la generación de señales. Es de solo lectura una vez
// creado el Engine.
type Config struct {
	EMAFast int
	EMAMed  int
	EMASlow int

	RSIPeriod     int
	RSIOversold   float64
	RSIOverbought float64

	StochPeriod     int
	StochSmoothK    int
	StochSmoothD    int
	StochOversold   float64
	StochOverbought float64

	ATRPeriod     int
	ATRAvgSamples int // muestras de la media base de volatilidad

	VolumeLookback   int
	VolumeMultiplier float64

	Weights       Weights
	MinConfidence float64

	Cooldown      time.Duration
	SessionFilter bool
	AvoidHours    []HourRange
	MaxSpreadPips float64

	PipSize         float64
	DefaultSLPips   float64
	SLATRMultiplier float64
	SLSpreadBuffer  bool
	TPRiskReward    float64
}

// DefaultConfig devuelve los parámetros por defecto del scalping en XAUUSD.
func DefaultConfig() Config {
	return Config{
		EMAFast: 5, EMAMed: 10, EMASlow: 20,

		RSIPeriod: 14, RSIOversold: 30, RSIOverbought: 70,

		StochPeriod: 14, StochSmoothK: 3, StochSmoothD: 3,
		StochOversold: 20, StochOverbought: 80,

		ATRPeriod: 14, ATRAvgSamples: 10,

		VolumeLookback: 20, VolumeMultiplier: 1.5,

		Weights:       Weights{Trend: 40, Momentum: 25, Confirmation: 25, Volatility: 5, Volume: 5},
		MinConfidence: 70,

		Cooldown:      180 * time.Second,
		SessionFilter: true,
		AvoidHours: []HourRange{
			{Start: 7, End: 9},   // apertura de Londres
			{Start: 13, End: 15}, // noticias US
		},
		MaxSpreadPips: 5,

		PipSize:         0.01,
		DefaultSLPips:   25,
		SLATRMultiplier: 1.5,
		SLSpreadBuffer:  true,
		TPRiskReward:    1.8,
	}
}

// MinBars es el histórico del timeframe rápido necesario antes de cualquier señal.
func (c Config) MinBars() int {
	return max(c.EMASlow, c.RSIPeriod, c.StochPeriod, c.ATRPeriod)
}

// Validate rechaza parámetros con los que los indicadores no pueden trabajar.
func (c Config) Validate() error {
	periods := map[string]int{
		"ema_fast": c.EMAFast, "ema_med": c.EMAMed, "ema_slow": c.EMASlow,
		"rsi_period": c.RSIPeriod, "stoch_period": c.StochPeriod,
		"stoch_smooth_k": c.StochSmoothK, "stoch_smooth_d": c.StochSmoothD,
		"atr_period": c.ATRPeriod, "volume_lookback": c.VolumeLookback,
	}
	for name, p := range periods {
		if p <= 0 {
			return fmt.Errorf("fusion.Config: %s must be positive, got %d", name, p)
		}
	}
	if !(c.EMAFast < c.EMAMed && c.EMAMed < c.EMASlow) {
		return fmt.Errorf("fusion.Config: ema periods must satisfy fast < med < slow, got %d/%d/%d",
			c.EMAFast, c.EMAMed, c.EMASlow)
	}
	if c.PipSize <= 0 {
		return fmt.Errorf("fusion.Config: pip_size must be positive")
	}
	if c.TPRiskReward <= 0 {
		return fmt.Errorf("fusion.Config: tp_risk_reward must be positive")
	}
	for _, r := range c.AvoidHours {
		if r.Start < 0 || r.End > 23 || r.Start > r.End {
			return fmt.Errorf("fusion.Config: invalid session window %s", r)
		}
	}
	return nil
}
