package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config armazena as configurações da aplicação
type Config struct {
	DeliveriesURL      string        `yaml:"deliveries_url"`
	VisibleCount       int           `yaml:"-"`
	Port               string        `yaml:"port"`
	GinMode            string        `yaml:"gin_mode"`
	LogLevel           string        `yaml:"log_level"`
	LogJSON            bool          `yaml:"log_json"`
	FetchTimeout       time.Duration `yaml:"fetch_timeout"`
	FetchRatePerMinute int           `yaml:"-"`
	RefreshInterval    time.Duration `yaml:"refresh_interval"`
	SearchCacheTTL     time.Duration `yaml:"search_cache_ttl"`
	Timezone           string        `yaml:"timezone"`
	DateLayout         string        `yaml:"date_layout"`

	visibleCountSet bool
	fetchRateSet    bool
}

var (
	// ErrMissingURL indica que o endereço do feed não foi configurado
	ErrMissingURL = errors.New("DELIVERIES_URL não configurado")

	// ErrMissingVisibleCount indica que o limite de itens visíveis não foi configurado
	ErrMissingVisibleCount = errors.New("VISIBLE_COUNT não configurado")
)

// Load carrega as configurações: arquivo YAML opcional, depois variáveis de ambiente
func Load() (*Config, error) {
	// Tenta carregar .env de múltiplos locais
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg := &Config{}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.overrideFromEnv(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile lê a configuração base de um arquivo YAML
func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("abrir %s: %w", path, err)
	}
	defer f.Close()

	var raw struct {
		Config             `yaml:",inline"`
		VisibleCount       *int `yaml:"visible_count"`
		FetchRatePerMinute *int `yaml:"fetch_rate_per_minute"`
	}
	if err := yaml.NewDecoder(f).Decode(&raw); err != nil {
		return fmt.Errorf("decodificar %s: %w", path, err)
	}

	*c = raw.Config
	if raw.VisibleCount != nil {
		c.VisibleCount = *raw.VisibleCount
		c.visibleCountSet = true
	}
	if raw.FetchRatePerMinute != nil {
		c.FetchRatePerMinute = *raw.FetchRatePerMinute
		c.fetchRateSet = true
	}
	return nil
}

// overrideFromEnv aplica as variáveis de ambiente por cima do arquivo
func (c *Config) overrideFromEnv() error {
	if v := os.Getenv("DELIVERIES_URL"); v != "" {
		c.DeliveriesURL = v
	}
	if v := os.Getenv("VISIBLE_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VISIBLE_COUNT inválido: %w", err)
		}
		c.VisibleCount = n
		c.visibleCountSet = true
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		c.GinMode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_JSON"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_JSON inválido: %w", err)
		}
		c.LogJSON = b
	}
	if v := os.Getenv("FETCH_RATE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FETCH_RATE_PER_MINUTE inválido: %w", err)
		}
		c.FetchRatePerMinute = n
		c.fetchRateSet = true
	}
	if v := os.Getenv("TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("DATE_LAYOUT"); v != "" {
		c.DateLayout = v
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"FETCH_TIMEOUT", &c.FetchTimeout},
		{"REFRESH_INTERVAL", &c.RefreshInterval},
		{"SEARCH_CACHE_TTL", &c.SearchCacheTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s inválido: %w", d.env, err)
		}
		*d.dst = parsed
	}

	return nil
}

// applyDefaults preenche os valores opcionais. VISIBLE_COUNT não tem default.
func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.GinMode == "" {
		c.GinMode = "debug"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = 30 * time.Second
	}
	// 0 explícito desativa o limitador
	if !c.fetchRateSet {
		c.FetchRatePerMinute = 30
	}
	if c.SearchCacheTTL == 0 {
		c.SearchCacheTTL = 5 * time.Minute
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.DateLayout == "" {
		c.DateLayout = "1/2/2006, 3:04:05 PM"
	}
}

// Validate verifica os campos obrigatórios
func (c *Config) Validate() error {
	if c.DeliveriesURL == "" {
		return ErrMissingURL
	}
	if !c.visibleCountSet {
		return ErrMissingVisibleCount
	}
	if c.VisibleCount < 0 {
		return fmt.Errorf("VISIBLE_COUNT deve ser >= 0, recebido %d", c.VisibleCount)
	}
	if c.FetchRatePerMinute < 0 {
		return fmt.Errorf("FETCH_RATE_PER_MINUTE deve ser >= 0, recebido %d", c.FetchRatePerMinute)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("REFRESH_INTERVAL deve ser >= 0, recebido %s", c.RefreshInterval)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE inválido: %w", err)
	}
	return nil
}

// Location retorna o fuso configurado para formatar datas
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
