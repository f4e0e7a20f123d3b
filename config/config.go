package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/xauscalp/internal/application/engine"
	"github.com/alejandrodnm/xauscalp/internal/application/fusion"
	"github.com/alejandrodnm/xauscalp/internal/application/lifecycle"
	"github.com/alejandrodnm/xauscalp/internal/application/risk"
)

// Config es la configuración completa del bot.
type Config struct {
	Strategy StrategyConfig `yaml:"strategy"`
	Risk     RiskConfig     `yaml:"risk"`
	Account  AccountConfig  `yaml:"account"`
	Market   MarketConfig   `yaml:"market"`
	Telegram TelegramConfig `yaml:"telegram"`
	HTTP     HTTPConfig     `yaml:"http"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// StrategyConfig parametriza los indicadores y la fusión de señales.
type StrategyConfig struct {
	EMAFast int `yaml:"ema_fast"`
	EMAMed  int `yaml:"ema_med"`
	EMASlow int `yaml:"ema_slow"`

	RSIPeriod     int     `yaml:"rsi_period"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`

	StochPeriod     int     `yaml:"stoch_period"`
	StochSmoothK    int     `yaml:"stoch_smooth_k"`
	StochSmoothD    int     `yaml:"stoch_smooth_d"`
	StochOversold   float64 `yaml:"stoch_oversold"`
	StochOverbought float64 `yaml:"stoch_overbought"`

	ATRPeriod     int `yaml:"atr_period"`
	ATRAvgSamples int `yaml:"atr_avg_samples"`

	VolumeLookback   int     `yaml:"volume_lookback"`
	VolumeMultiplier float64 `yaml:"volume_multiplier"`

	Weights       WeightsConfig `yaml:"weights"`
	MinConfidence float64       `yaml:"min_confidence"`

	CooldownSeconds int                `yaml:"cooldown_seconds"`
	SessionFilter   *bool              `yaml:"session_filter"`
	AvoidHours      []fusion.HourRange `yaml:"avoid_hours"`
	MaxSpreadPips   float64            `yaml:"max_spread_pips"`

	DefaultSLPips   float64 `yaml:"default_sl_pips"`
	SLATRMultiplier float64 `yaml:"sl_atr_multiplier"`
	SLSpreadBuffer  *bool   `yaml:"sl_spread_buffer"`
	TPRiskReward    float64 `yaml:"tp_risk_reward"`
}

// WeightsConfig son los puntos máximos de cada componente del score.
type WeightsConfig struct {
	Trend        float64 `yaml:"trend"`
	Momentum     float64 `yaml:"momentum"`
	Confirmation float64 `yaml:"confirmation"`
	Volatility   float64 `yaml:"volatility"`
	Volume       float64 `yaml:"volume"`
}

// RiskConfig controla los límites diarios.
type RiskConfig struct {
	MaxTradesPerDay  int     `yaml:"max_trades_per_day"`
	DailyLossPercent float64 `yaml:"daily_loss_percent"`
	MaxConcurrent    int     `yaml:"max_concurrent"`
	EvaluationMode   bool    `yaml:"evaluation_mode"` // sin límite de trades diarios
}

// AccountConfig describe la cuenta virtual y el instrumento.
type AccountConfig struct {
	Instrument     string  `yaml:"instrument"`
	PipSize        float64 `yaml:"pip_size"`
	PipValuePerLot float64 `yaml:"pip_value_per_lot"`
	LotSize        float64 `yaml:"lot_size"`
	InitialBalance float64 `yaml:"initial_balance"`
}

// MarketConfig controla el polling de velas.
type MarketConfig struct {
	PollSeconds     int            `yaml:"poll_seconds"`
	FastBars        int            `yaml:"fast_bars"`
	SlowBars        int            `yaml:"slow_bars"`
	SyntheticSpread float64        `yaml:"synthetic_spread"` // usado si el proveedor no da bid/ask
	HistorySize     int            `yaml:"history_size"`
	Polygon         ProviderConfig `yaml:"polygon"`
	TwelveData      ProviderConfig `yaml:"twelvedata"`
}

// ProviderConfig configura un proveedor REST. Sin API key se omite.
type ProviderConfig struct {
	BaseURL       string  `yaml:"base_url"`
	APIKey        string  `yaml:"api_key"`
	RatePerMinute float64 `yaml:"rate_per_minute"`
}

// TelegramConfig habilita la entrega por Telegram si hay token y chat.
type TelegramConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChatID    string `yaml:"chat_id"`
	BaseURL   string `yaml:"base_url"`
	QueueSize int    `yaml:"queue_size"`
}

// HTTPConfig controla el servidor de health/status/metrics.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // vacío desactiva el servidor
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben los valores del YAML. Con path vacío
// solo se aplican entorno y defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// PollInterval devuelve el intervalo de polling como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Market.PollSeconds) * time.Second
}

// TelegramEnabled indica si hay credenciales de Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Fusion construye la configuración del motor de señales.
func (c *Config) Fusion() fusion.Config {
	s := c.Strategy
	return fusion.Config{
		EMAFast: s.EMAFast, EMAMed: s.EMAMed, EMASlow: s.EMASlow,

		RSIPeriod: s.RSIPeriod, RSIOversold: s.RSIOversold, RSIOverbought: s.RSIOverbought,

		StochPeriod: s.StochPeriod, StochSmoothK: s.StochSmoothK, StochSmoothD: s.StochSmoothD,
		StochOversold: s.StochOversold, StochOverbought: s.StochOverbought,

		ATRPeriod: s.ATRPeriod, ATRAvgSamples: s.ATRAvgSamples,

		VolumeLookback: s.VolumeLookback, VolumeMultiplier: s.VolumeMultiplier,

		Weights: fusion.Weights{
			Trend:        s.Weights.Trend,
			Momentum:     s.Weights.Momentum,
			Confirmation: s.Weights.Confirmation,
			Volatility:   s.Weights.Volatility,
			Volume:       s.Weights.Volume,
		},
		MinConfidence: s.MinConfidence,

		Cooldown:      time.Duration(s.CooldownSeconds) * time.Second,
		SessionFilter: *s.SessionFilter,
		AvoidHours:    s.AvoidHours,
		MaxSpreadPips: s.MaxSpreadPips,

		PipSize:         c.Account.PipSize,
		DefaultSLPips:   s.DefaultSLPips,
		SLATRMultiplier: s.SLATRMultiplier,
		SLSpreadBuffer:  *s.SLSpreadBuffer,
		TPRiskReward:    s.TPRiskReward,
	}
}

// Lifecycle construye la configuración del gestor de trades.
func (c *Config) Lifecycle() lifecycle.Config {
	return lifecycle.Config{
		Instrument:     c.Account.Instrument,
		PipSize:        c.Account.PipSize,
		PipValuePerLot: c.Account.PipValuePerLot,
		LotSize:        c.Account.LotSize,
		InitialBalance: c.Account.InitialBalance,
	}
}

// Gate construye la configuración del risk gate.
func (c *Config) Gate() risk.Config {
	return risk.Config{
		MaxTradesPerDay:  c.Risk.MaxTradesPerDay,
		DailyLossPercent: c.Risk.DailyLossPercent,
		MaxConcurrent:    c.Risk.MaxConcurrent,
		InitialBalance:   c.Account.InitialBalance,
		EvaluationMode:   c.Risk.EvaluationMode,
	}
}

// Engine construye la configuración del loop.
func (c *Config) Engine() engine.Config {
	return engine.Config{
		PollInterval:    c.PollInterval(),
		FastBars:        c.Market.FastBars,
		SlowBars:        c.Market.SlowBars,
		SyntheticSpread: c.Market.SyntheticSpread,
		HistorySize:     c.Market.HistorySize,
	}
}

// Validate rechaza combinaciones sin sentido.
func (c *Config) Validate() error {
	if err := c.Fusion().Validate(); err != nil {
		return err
	}
	var errs []error
	if c.Risk.MaxTradesPerDay <= 0 {
		errs = append(errs, errors.New("risk.max_trades_per_day must be positive"))
	}
	if c.Risk.DailyLossPercent <= 0 || c.Risk.DailyLossPercent > 100 {
		errs = append(errs, fmt.Errorf("risk.daily_loss_percent must be in (0, 100], got %g", c.Risk.DailyLossPercent))
	}
	if c.Risk.MaxConcurrent <= 0 {
		errs = append(errs, errors.New("risk.max_concurrent must be positive"))
	}
	if c.Account.LotSize <= 0 || c.Account.PipValuePerLot <= 0 || c.Account.InitialBalance <= 0 {
		errs = append(errs, errors.New("account: lot_size, pip_value_per_lot and initial_balance must be positive"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.Market.Polygon.APIKey = v
	}
	if v := os.Getenv("TWELVEDATA_API_KEY"); v != "" {
		cfg.Market.TwelveData.APIKey = v
	}
	if v := os.Getenv("APP_PORT"); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("APP_PORT: %w", err)
		}
		cfg.HTTP.Addr = ":" + v
	}
	if v := os.Getenv("EVALUATION_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("EVALUATION_MODE: %w", err)
		}
		cfg.Risk.EvaluationMode = b
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	d := fusion.DefaultConfig()
	s := &cfg.Strategy

	setInt(&s.EMAFast, d.EMAFast)
	setInt(&s.EMAMed, d.EMAMed)
	setInt(&s.EMASlow, d.EMASlow)
	setInt(&s.RSIPeriod, d.RSIPeriod)
	setFloat(&s.RSIOversold, d.RSIOversold)
	setFloat(&s.RSIOverbought, d.RSIOverbought)
	setInt(&s.StochPeriod, d.StochPeriod)
	setInt(&s.StochSmoothK, d.StochSmoothK)
	setInt(&s.StochSmoothD, d.StochSmoothD)
	setFloat(&s.StochOversold, d.StochOversold)
	setFloat(&s.StochOverbought, d.StochOverbought)
	setInt(&s.ATRPeriod, d.ATRPeriod)
	setInt(&s.ATRAvgSamples, d.ATRAvgSamples)
	setInt(&s.VolumeLookback, d.VolumeLookback)
	setFloat(&s.VolumeMultiplier, d.VolumeMultiplier)
	if s.Weights == (WeightsConfig{}) {
		s.Weights = WeightsConfig(d.Weights)
	}
	setFloat(&s.MinConfidence, d.MinConfidence)
	setInt(&s.CooldownSeconds, int(d.Cooldown/time.Second))
	if s.SessionFilter == nil {
		s.SessionFilter = &d.SessionFilter
	}
	if s.AvoidHours == nil {
		s.AvoidHours = d.AvoidHours
	}
	setFloat(&s.MaxSpreadPips, d.MaxSpreadPips)
	setFloat(&s.DefaultSLPips, d.DefaultSLPips)
	setFloat(&s.SLATRMultiplier, d.SLATRMultiplier)
	if s.SLSpreadBuffer == nil {
		s.SLSpreadBuffer = &d.SLSpreadBuffer
	}
	setFloat(&s.TPRiskReward, d.TPRiskReward)

	setInt(&cfg.Risk.MaxTradesPerDay, 5)
	setFloat(&cfg.Risk.DailyLossPercent, 3)
	setInt(&cfg.Risk.MaxConcurrent, 1)

	if cfg.Account.Instrument == "" {
		cfg.Account.Instrument = "XAUUSD"
	}
	setFloat(&cfg.Account.PipSize, d.PipSize)
	setFloat(&cfg.Account.PipValuePerLot, 1.0)
	setFloat(&cfg.Account.LotSize, 0.01)
	setFloat(&cfg.Account.InitialBalance, 1_000_000)

	setInt(&cfg.Market.PollSeconds, 60)
	setInt(&cfg.Market.FastBars, 100)
	setInt(&cfg.Market.SlowBars, 100)
	setFloat(&cfg.Market.SyntheticSpread, 0.04)
	setInt(&cfg.Market.HistorySize, 500)

	setInt(&cfg.Telegram.QueueSize, 64)

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "xauscalp.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func setInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

func setFloat(v *float64, def float64) {
	if *v <= 0 {
		*v = def
	}
}
