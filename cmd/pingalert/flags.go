package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"

	"github.com/agebe/pingalert/internal/config"
)

const defaultEnvFile = ".env"

// targetList acumula los -target repetidos.
type targetList []string

func (l *targetList) String() string { return strings.Join(*l, " ") }

func (l *targetList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type cliOptions struct {
	showVersion bool
}

// parseConfig arma la configuracion final: defaults, archivo YAML, entorno
// (incluido el archivo .env) y por ultimo los flags dados explicitamente.
func parseConfig(args []string, lookupEnv func(string) (string, bool), output io.Writer) (config.Config, cliOptions, error) {
	fsFlags := flag.NewFlagSet("pingalert", flag.ContinueOnError)
	fsFlags.SetOutput(output)

	def := config.Default()
	var (
		targets      targetList
		opts         cliOptions
		interval     = fsFlags.Int("interval", def.Interval, "segundos entre ciclos de chequeo (1-86400)")
		verbose      = fsFlags.Bool("verbose", false, "habilita logs de depuracion")
		syslog       = fsFlags.Bool("syslog", false, "envia los logs a syslog en lugar de stdout")
		group        = fsFlags.String("group", "", "grupo de notificacion por defecto")
		prefix       = fsFlags.String("prefix", "", "prefijo de los mensajes SMS")
		maxFail      = fsFlags.Int("max-fail", def.MaxFail, "fallas consecutivas antes de alertar (1-1000)")
		apiKey       = fsFlags.String("notifyre-api-key", "", "token de la API de Notifyre; habilita SMS")
		notifyExec   = fsFlags.String("notify-exec", "", "ejecutable a lanzar en alertas y recuperaciones")
		warnExec     = fsFlags.String("warn-exec", "", "ejecutable a lanzar en cada falla previa a la alerta")
		timeout      = fsFlags.Duration("timeout", 0, "timeout por chequeo (0 = sin limite)")
		addr         = fsFlags.String("addr", "", "direccion para la API y la pagina de estado (vacio = deshabilitado)")
		dbPath       = fsFlags.String("db", "", "archivo SQLite para el historial de eventos (vacio = deshabilitado)")
		redisURL     = fsFlags.String("redis-url", "", "URL de Redis para publicar eventos (vacio = deshabilitado)")
		redisChannel = fsFlags.String("redis-channel", def.RedisChannel, "canal de Redis para los eventos")
		execFailFast = fsFlags.Bool("exec-fail-fast", false, "termina el proceso si un ejecutable no puede lanzarse")
		configPath   = fsFlags.String("config", "", "archivo de configuracion YAML")
		envFile      = fsFlags.String("env-file", defaultEnvFile, "archivo .env con secretos")
	)
	fsFlags.Var(&targets, "target", "target a monitorear: <ping|http|https>://<address>[,name[,group]] (repetible)")
	fsFlags.BoolVar(&opts.showVersion, "version", false, "muestra la version y termina")

	if err := fsFlags.Parse(args); err != nil {
		return config.Config{}, opts, err
	}
	if fsFlags.NArg() > 0 {
		return config.Config{}, opts, fmt.Errorf("argumentos inesperados: %v", fsFlags.Args())
	}
	if opts.showVersion {
		return config.Config{}, opts, nil
	}

	set := make(map[string]bool)
	fsFlags.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := def
	if *configPath != "" {
		if err := config.Load(*configPath, &cfg); err != nil {
			return config.Config{}, opts, err
		}
	}

	fileEnv, err := godotenv.Read(*envFile)
	if err != nil {
		if set["env-file"] || !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, opts, fmt.Errorf("no se pudo leer %q: %w", *envFile, err)
		}
		fileEnv = nil
	}
	cfg.ApplyEnv(func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	})

	if set["interval"] {
		cfg.Interval = *interval
	}
	if set["max-fail"] {
		cfg.MaxFail = *maxFail
	}
	if set["verbose"] {
		cfg.Verbose = *verbose
	}
	if set["syslog"] {
		cfg.Syslog = *syslog
	}
	if set["exec-fail-fast"] {
		cfg.ExecFailFast = *execFailFast
	}
	if set["timeout"] {
		cfg.Timeout = *timeout
	}
	overrideString(set, "group", &cfg.DefaultGroup, *group)
	overrideString(set, "prefix", &cfg.SMSPrefix, *prefix)
	overrideString(set, "notifyre-api-key", &cfg.SMSAPIToken, *apiKey)
	overrideString(set, "notify-exec", &cfg.NotifyExec, *notifyExec)
	overrideString(set, "warn-exec", &cfg.WarnExec, *warnExec)
	overrideString(set, "addr", &cfg.Addr, *addr)
	overrideString(set, "db", &cfg.DBPath, *dbPath)
	overrideString(set, "redis-url", &cfg.RedisURL, *redisURL)
	overrideString(set, "redis-channel", &cfg.RedisChannel, *redisChannel)

	// los -target de la linea de comandos reemplazan a los del archivo
	if len(targets) > 0 {
		cfg.Targets = nil
		for _, spec := range targets {
			if err := cfg.AddTarget(spec); err != nil {
				return config.Config{}, opts, err
			}
		}
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, opts, err
	}
	return cfg, opts, nil
}

func overrideString(set map[string]bool, name string, dst *string, v string) {
	if set[name] {
		*dst = v
	}
}
