package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address            string
		DebugHost          string // empty disables the debug server
		ShutdownTimeout    time.Duration
		SecretKey          string
		JWTExpirationDelta time.Duration
	}

	Config struct {
		Debug    bool
		TestMode bool
		Env      string
		Build    string
		AppName  string

		// SuiteRoot holds the labs/ folder, the submit manifest, the instructor key
		// and the launcher expansion state.
		SuiteRoot string
		LabsDir   string
		Python    string
		LabPort   int

		// BuilderDir holds layout.json, session_state.json and assignments/.
		BuilderDir string

		Server ServerConfig

		RollbarToken   string
		SendgridApiKey string
		FromEmail      string
	}
)

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("build", "dev")
	conf.SetDefault("appName", "KT Lab Launcher")
	conf.SetDefault("suiteRoot", "lab_suite")
	conf.SetDefault("python", defaultPython())
	conf.SetDefault("labPort", 8081)
	conf.SetDefault("builderDir", "")
	conf.SetDefault("server.address", ":8082")
	conf.SetDefault("server.debugHost", "")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.secretKey", "kt-lab-launcher-local-secret")
	conf.SetDefault("server.jwtExpirationDelta", 8*time.Hour)
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("fromEmail", "noreply@localhost")

	env := strings.ToUpper(CleanString(os.Getenv("APP_ENV"))) // DEV (local; default), TEST, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}

	// load .env.<env> then .env if they exist (ignore if they do not)
	for _, name := range []string{".env." + strings.ToLower(env), ".env"} {
		dotEnvPath := filepath.Join(".", name)
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
		}
	}

	conf.SetEnvPrefix("KT")
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	conf.AutomaticEnv()

	suiteRoot := conf.GetString("suiteRoot")
	if abs, err := filepath.Abs(suiteRoot); err == nil {
		suiteRoot = abs
	}

	builderDir := conf.GetString("builderDir")
	if builderDir == "" {
		builderDir = filepath.Join(suiteRoot, "builder")
	}

	return &Config{
		Debug:     conf.GetBool("debug"),
		TestMode:  conf.GetBool("testMode"),
		Env:       env,
		Build:     conf.GetString("build"),
		AppName:   conf.GetString("appName"),
		SuiteRoot: suiteRoot,
		LabsDir:   filepath.Join(suiteRoot, "labs"),
		Python:    conf.GetString("python"),
		LabPort:   conf.GetInt("labPort"),

		BuilderDir: builderDir,
		Server: ServerConfig{
			Address:            conf.GetString("server.address"),
			DebugHost:          conf.GetString("server.debugHost"),
			ShutdownTimeout:    conf.GetDuration("server.shutdownTimeout"),
			SecretKey:          conf.GetString("server.secretKey"),
			JWTExpirationDelta: conf.GetDuration("server.jwtExpirationDelta"),
		},
		RollbarToken:   conf.GetString("rollbarToken"),
		SendgridApiKey: conf.GetString("sendgridApiKey"),
		FromEmail:      conf.GetString("fromEmail"),
	}
}

func defaultPython() string {
	if os.PathSeparator == '\\' {
		return "python"
	}
	return "python3"
}
