package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pcgujuancarlos/AG1VR/internal/domain"
)

// Config es la configuración completa del evaluador.
type Config struct {
	Analysis AnalysisConfig          `yaml:"analysis"`
	Tickers  map[string]TickerConfig `yaml:"tickers"`
	API      APIConfig               `yaml:"api"`
	Storage  StorageConfig           `yaml:"storage"`
	Log      LogConfig               `yaml:"log"`
}

// AnalysisConfig controla indicadores, políticas y límites del pipeline.
type AnalysisConfig struct {
	RSIPeriod    int     `yaml:"rsi_period"`
	BBPeriod     int     `yaml:"bb_period"`
	BBStdDev     float64 `yaml:"bb_std_dev"`
	RSIThreshold float64 `yaml:"rsi_threshold"` // default global, sobreescribible por ticker
	BBThreshold  float64 `yaml:"bb_threshold"`

	SignalPolicy  string  `yaml:"signal_policy"`  // strict | weighted
	PassThreshold float64 `yaml:"pass_threshold"` // score mínimo para señal fuerte (weighted)
	WeakThreshold float64 `yaml:"weak_threshold"` // score mínimo para señal débil (weighted)

	SelectionPolicy   string  `yaml:"selection_policy"`   // first_in_range | max_gain
	GainCapPct        float64 `yaml:"gain_cap_pct"`       // techo de ganancia reportable
	FallbackTolerance float64 `yaml:"fallback_tolerance"` // múltiplo del ancho de banda
	CandidateCap      int     `yaml:"candidate_cap"`      // máximo de contratos a escanear
	IntradayMinutes   int     `yaml:"intraday_minutes"`
	Workers           int     `yaml:"workers"`

	FridayRule string       `yaml:"friday_rule"` // same_day | next_week
	Cohort     CohortConfig `yaml:"cohort"`
}

// CohortConfig controla la estimación histórica.
type CohortConfig struct {
	MinN int    `yaml:"min_n"`
	Stat string `yaml:"stat"` // mean | median | p10
}

// TickerConfig es la configuración por ticker: banda de primas y regla de
// vencimiento. Se carga una vez y nunca se muta en runtime.
type TickerConfig struct {
	PremiumMin     float64 `yaml:"premium_min"`
	PremiumMax     float64 `yaml:"premium_max"`
	ExpirationRule string  `yaml:"expiration_rule"` // next_trading_day | next_friday
	RSIThreshold   float64 `yaml:"rsi_threshold"`   // 0 = usar el default global
	BBThreshold    float64 `yaml:"bb_threshold"`    // 0 = usar el default global
}

// APIConfig contiene el base URL y la API key del proveedor de datos.
type APIConfig struct {
	PolygonBase string `yaml:"polygon_base"`
	PolygonKey  string `yaml:"-"` // solo desde POLYGON_API_KEY, nunca del YAML
}

// StorageConfig controla dónde se persiste el histórico.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben el YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return &cfg, nil
}

// Ticker devuelve la configuración del ticker con los defaults globales
// aplicados. El segundo valor es false si el ticker no está en la tabla de
// primas: el caller lo evalúa igualmente marcándolo como no validado.
func (c *Config) Ticker(name string) (TickerConfig, bool) {
	tc, ok := c.Tickers[name]
	if !ok {
		return TickerConfig{
			ExpirationRule: string(domain.ExpireNextFriday),
			RSIThreshold:   c.Analysis.RSIThreshold,
			BBThreshold:    c.Analysis.BBThreshold,
		}, false
	}
	if tc.RSIThreshold == 0 {
		tc.RSIThreshold = c.Analysis.RSIThreshold
	}
	if tc.BBThreshold == 0 {
		tc.BBThreshold = c.Analysis.BBThreshold
	}
	if tc.ExpirationRule == "" {
		tc.ExpirationRule = string(domain.ExpireNextFriday)
	}
	return tc, true
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		cfg.API.PolygonKey = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	a := &cfg.Analysis
	if a.RSIPeriod <= 0 {
		a.RSIPeriod = 14
	}
	if a.BBPeriod <= 0 {
		a.BBPeriod = 20
	}
	if a.BBStdDev <= 0 {
		a.BBStdDev = 2
	}
	if a.RSIThreshold <= 0 {
		a.RSIThreshold = 70
	}
	if a.BBThreshold <= 0 {
		a.BBThreshold = 0.8
	}
	if a.SignalPolicy == "" {
		a.SignalPolicy = "strict"
	}
	if a.PassThreshold <= 0 {
		a.PassThreshold = 80
	}
	if a.WeakThreshold <= 0 {
		a.WeakThreshold = 65
	}
	if a.SelectionPolicy == "" {
		a.SelectionPolicy = "first_in_range"
	}
	if a.GainCapPct <= 0 {
		a.GainCapPct = domain.DefaultGainCapPct
	}
	if a.FallbackTolerance <= 0 {
		a.FallbackTolerance = 1.5
	}
	if a.CandidateCap <= 0 {
		a.CandidateCap = 50
	}
	if a.IntradayMinutes <= 0 {
		a.IntradayMinutes = 30
	}
	if a.Workers <= 0 {
		a.Workers = 4
	}
	if a.FridayRule == "" {
		a.FridayRule = string(domain.FridaySameDay)
	}
	if a.Cohort.MinN <= 0 {
		a.Cohort.MinN = 3
	}
	if a.Cohort.Stat == "" {
		a.Cohort.Stat = string(domain.StatMean)
	}

	if cfg.API.PolygonBase == "" {
		cfg.API.PolygonBase = "https://api.polygon.io"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "ag1vr.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// validate rechaza combinaciones que romperían el pipeline en runtime.
func validate(cfg *Config) error {
	a := cfg.Analysis
	switch a.SignalPolicy {
	case "strict", "weighted":
	default:
		return fmt.Errorf("unknown signal_policy %q", a.SignalPolicy)
	}
	switch a.SelectionPolicy {
	case "first_in_range", "max_gain":
	default:
		return fmt.Errorf("unknown selection_policy %q", a.SelectionPolicy)
	}
	switch domain.FridayRule(a.FridayRule) {
	case domain.FridaySameDay, domain.FridayNextWeek:
	default:
		return fmt.Errorf("unknown friday_rule %q", a.FridayRule)
	}
	switch domain.CohortStat(a.Cohort.Stat) {
	case domain.StatMean, domain.StatMedian, domain.StatP10:
	default:
		return fmt.Errorf("unknown cohort stat %q", a.Cohort.Stat)
	}

	for name, tc := range cfg.Tickers {
		if tc.PremiumMin <= 0 || tc.PremiumMax <= tc.PremiumMin {
			return fmt.Errorf("ticker %s: invalid premium band [%.2f, %.2f]", name, tc.PremiumMin, tc.PremiumMax)
		}
		switch domain.ExpirationRule(tc.ExpirationRule) {
		case domain.ExpireNextTradingDay, domain.ExpireNextFriday, "":
		default:
			return fmt.Errorf("ticker %s: unknown expiration_rule %q", name, tc.ExpirationRule)
		}
	}
	return nil
}
