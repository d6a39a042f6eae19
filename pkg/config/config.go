package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App      AppConfig
	DB       DBConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	Hacienda HaciendaConfig
	DTE      DTEConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN arma el connection string con la contraseña escapada.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HaciendaConfig configuración de la integración con el Ministerio de Hacienda.
type HaciendaConfig struct {
	AppEnv          string // dev (simulado), test, prod
	Ambiente        string // "00" = pruebas, "01" = producción
	BaseURL         string // API de recepción (apitest.dtes.mh.gob.sv / api.dtes.mh.gob.sv)
	FirmadorURL     string // servicio de firma (svfe-api-firmador)
	Timeout         time.Duration
	RatePerSecond   float64
	RateBurst       int
	BreakerFailures int
	BreakerCooldown time.Duration
}

// DTEConfig parámetros fiscales.
type DTEConfig struct {
	TaxFactor decimal.Decimal // 1 + tasa de IVA
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	taxFactor, err := decimal.NewFromString(getString(v, "DTE_TAX_FACTOR", "1.13"))
	if err != nil {
		return nil, fmt.Errorf("config: DTE_TAX_FACTOR inválido: %w", err)
	}
	if taxFactor.LessThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("config: DTE_TAX_FACTOR debe ser mayor que 1")
	}

	haciendaEnv := getString(v, "HACIENDA_APP_ENV", "dev")
	ambiente := getString(v, "HACIENDA_AMBIENTE", "00")
	if ambiente != "00" && ambiente != "01" {
		return nil, fmt.Errorf("config: HACIENDA_AMBIENTE debe ser 00 o 01, recibido %q", ambiente)
	}
	defaultBase := "https://apitest.dtes.mh.gob.sv"
	if ambiente == "01" {
		defaultBase = "https://api.dtes.mh.gob.sv"
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "dte-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "dte"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "dte-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Hacienda: HaciendaConfig{
			AppEnv:          haciendaEnv,
			Ambiente:        ambiente,
			BaseURL:         strings.TrimRight(getString(v, "HACIENDA_BASE_URL", defaultBase), "/"),
			FirmadorURL:     strings.TrimRight(getString(v, "FIRMADOR_URL", "http://localhost:8113/firmardocumento"), "/"),
			Timeout:         time.Duration(getInt(v, "HACIENDA_TIMEOUT_SECONDS", 30)) * time.Second,
			RatePerSecond:   getFloat(v, "HACIENDA_RATE_PER_SECOND", 2),
			RateBurst:       getInt(v, "HACIENDA_RATE_BURST", 4),
			BreakerFailures: getInt(v, "HACIENDA_BREAKER_FAILURES", 5),
			BreakerCooldown: time.Duration(getInt(v, "HACIENDA_BREAKER_COOLDOWN_SECONDS", 60)) * time.Second,
		},
		DTE: DTEConfig{TaxFactor: taxFactor},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	if s, ok := v.Get(key).(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return def
		}
		return n
	}
	return v.GetInt(key)
}

func getFloat(v *viper.Viper, key string, def float64) float64 {
	if !v.IsSet(key) {
		return def
	}
	if s, ok := v.Get(key).(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return def
		}
		return f
	}
	return v.GetFloat64(key)
}
