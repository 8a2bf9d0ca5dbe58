package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/agebe/pingalert/internal/model"
)

const (
	DefaultInterval     = 60
	MinInterval         = 1
	MaxInterval         = 86400
	DefaultMaxFail      = 5
	MinMaxFail          = 1
	MaxMaxFail          = 1000
	MaxTargets          = 1024
	DefaultRedisChannel = "pingalert:events"

	// EnvAPIKey permite pasar el token de Notifyre sin exponerlo en la linea de comandos.
	EnvAPIKey = "PINGALERT_NOTIFYRE_API_KEY"
)

var (
	ErrInvalidTarget   = errors.New("target invalido")
	ErrDuplicateTarget = errors.New("target duplicado")
	ErrTooManyTargets  = errors.New("demasiados targets")
)

// Duration permite parsear strings como "30s" desde archivos YAML.
type Duration time.Duration

// UnmarshalYAML convierte strings en time.Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("duracion invalida: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("no se pudo parsear duracion %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config es la configuracion del proceso. No se modifica despues de Normalize.
type Config struct {
	Interval     int
	MaxFail      int
	DefaultGroup string
	SMSPrefix    string
	SMSAPIToken  string
	NotifyExec   string
	WarnExec     string
	Verbose      bool
	Syslog       bool
	Timeout      time.Duration
	Addr         string
	DBPath       string
	RedisURL     string
	RedisChannel string
	ExecFailFast bool
	Targets      []model.Target
}

// Default devuelve la configuracion con los valores por defecto.
func Default() Config {
	return Config{
		Interval:     DefaultInterval,
		MaxFail:      DefaultMaxFail,
		RedisChannel: DefaultRedisChannel,
	}
}

type rawConfig struct {
	Interval     *int      `yaml:"interval"`
	MaxFail      *int      `yaml:"max_fail"`
	Group        string    `yaml:"group"`
	Prefix       string    `yaml:"prefix"`
	APIKey       string    `yaml:"notifyre_api_key"`
	NotifyExec   string    `yaml:"notify_exec"`
	WarnExec     string    `yaml:"warn_exec"`
	Verbose      bool      `yaml:"verbose"`
	Syslog       bool      `yaml:"syslog"`
	Timeout      *Duration `yaml:"timeout"`
	Addr         string    `yaml:"addr"`
	DB           string    `yaml:"db"`
	RedisURL     string    `yaml:"redis_url"`
	RedisChannel string    `yaml:"redis_channel"`
	ExecFailFast bool      `yaml:"exec_fail_fast"`
	Targets      []string  `yaml:"targets"`
}

// Load lee un archivo YAML y lo aplica sobre cfg.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("no se pudo abrir config %q: %w", path, err)
	}
	return Parse(data, cfg)
}

// Parse aplica sobre cfg el contenido YAML recibido.
func Parse(data []byte, cfg *Config) error {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("configuracion YAML invalida: %w", err)
	}
	if raw.Interval != nil {
		cfg.Interval = *raw.Interval
	}
	if raw.MaxFail != nil {
		cfg.MaxFail = *raw.MaxFail
	}
	setString(&cfg.DefaultGroup, raw.Group)
	setString(&cfg.SMSPrefix, raw.Prefix)
	setString(&cfg.SMSAPIToken, raw.APIKey)
	setString(&cfg.NotifyExec, raw.NotifyExec)
	setString(&cfg.WarnExec, raw.WarnExec)
	setString(&cfg.Addr, raw.Addr)
	setString(&cfg.DBPath, raw.DB)
	setString(&cfg.RedisURL, raw.RedisURL)
	setString(&cfg.RedisChannel, raw.RedisChannel)
	cfg.Verbose = cfg.Verbose || raw.Verbose
	cfg.Syslog = cfg.Syslog || raw.Syslog
	cfg.ExecFailFast = cfg.ExecFailFast || raw.ExecFailFast
	if raw.Timeout != nil {
		cfg.Timeout = time.Duration(*raw.Timeout)
	}
	for _, spec := range raw.Targets {
		if err := cfg.AddTarget(spec); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnv toma del entorno los valores que no conviene pasar por flags.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.SMSAPIToken = v
	}
}

// AddTarget parsea spec y lo agrega al final de la lista de targets.
func (c *Config) AddTarget(spec string) error {
	target, err := ParseTarget(spec)
	if err != nil {
		return err
	}
	c.Targets = append(c.Targets, target)
	return nil
}

// ParseTarget interpreta el formato <ping|http|https>://<address>[,name[,group]].
func ParseTarget(spec string) (model.Target, error) {
	fields := strings.Split(spec, ",")
	displayURL := strings.TrimSpace(fields[0])

	var (
		kind     model.TargetKind
		endpoint string
	)
	switch {
	case strings.HasPrefix(displayURL, "ping://"):
		kind = model.KindPing
		endpoint = strings.TrimPrefix(displayURL, "ping://")
	case strings.HasPrefix(displayURL, "http://"), strings.HasPrefix(displayURL, "https://"):
		kind = model.KindHTTP
		if u, err := url.Parse(displayURL); err == nil && u.Host != "" {
			endpoint = displayURL
		}
	default:
		return model.Target{}, fmt.Errorf("%w: %q, use ping://<ip>, http://<address> o https://<address>", ErrInvalidTarget, spec)
	}
	if endpoint == "" {
		return model.Target{}, fmt.Errorf("%w: %q sin direccion", ErrInvalidTarget, spec)
	}

	target := model.Target{
		Kind:       kind,
		Endpoint:   endpoint,
		DisplayURL: displayURL,
	}
	if len(fields) > 1 {
		target.Name = strings.TrimSpace(fields[1])
	}
	if len(fields) > 2 {
		target.Group = strings.TrimSpace(fields[2])
	}
	target.ID = TargetID(target.DisplayURL, target.Name, target.Group)
	return target, nil
}

// TargetID deriva un identificador estable de la definicion completa del
// target. Un mismo host con distinto nombre o grupo es otro target.
func TargetID(displayURL, name, group string) string {
	key := strings.Join([]string{displayURL, name, group}, ",")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// Normalize acota los valores numericos a sus rangos validos.
func (c *Config) Normalize() {
	c.Interval = clamp(c.Interval, MinInterval, MaxInterval)
	c.MaxFail = clamp(c.MaxFail, MinMaxFail, MaxMaxFail)
	if c.RedisChannel == "" {
		c.RedisChannel = DefaultRedisChannel
	}
	if c.Timeout < 0 {
		c.Timeout = 0
	}
}

// Validate verifica limites que no pueden corregirse automaticamente.
func (c *Config) Validate() error {
	if len(c.Targets) > MaxTargets {
		return fmt.Errorf("%w: %d configurados, maximo %d", ErrTooManyTargets, len(c.Targets), MaxTargets)
	}
	seen := make(map[string]struct{}, len(c.Targets))
	for _, t := range c.Targets {
		switch t.Kind {
		case model.KindPing, model.KindHTTP:
		default:
			return fmt.Errorf("%w: %q tiene kind desconocido %s", ErrInvalidTarget, t.DisplayURL, t.Kind)
		}
		// solo se rechaza la misma definicion repetida
		if _, ok := seen[t.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateTarget, strings.Join([]string{t.DisplayURL, t.Name, t.Group}, ","))
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// SMSEnabled indica si hay token para el gateway de SMS.
func (c *Config) SMSEnabled() bool {
	return c.SMSAPIToken != ""
}

// IntervalDuration devuelve el intervalo como time.Duration.
func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// Summary describe los parametros de arranque en una linea.
func (c *Config) Summary() string {
	return fmt.Sprintf("intervalo '%d' segundos, max fail '%d', targets '%d', sms %s, notify exec '%s', warn exec '%s'",
		c.Interval, c.MaxFail, len(c.Targets), onOff(c.SMSEnabled()), c.NotifyExec, c.WarnExec)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func onOff(b bool) string {
	if b {
		return "habilitado"
	}
	return "deshabilitado"
}
