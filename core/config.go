package core

import (
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		RollbarToken     string
		SendgridApiKey   string
		defaultFromEmail string

		Server     ServerConfig
		Database   DatabaseConfig
		GenAI      GenAIConfig
		Storage    StorageConfig
		Sessions   SessionsConfig
		Assignment AssignmentConfig
	}

	ServerConfig struct {
		Host               string
		Address            string
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		CORSOrigins        []string
		MaxUploadSize      string
	}

	DatabaseConfig struct {
		Engine        string // postgres | pgx | sqlite
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	GenAIConfig struct {
		APIKey string
		Model  string
	}

	StorageConfig struct {
		Driver    string // fs | b2
		BasePath  string
		B2Account string
		B2Key     string
		B2Bucket  string
	}

	SessionsConfig struct {
		Path string
	}

	AssignmentConfig struct {
		// DueDateLayouts are tried in order when parsing an assignment's due date.
		DueDateLayouts []string
	}
)

func (c Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	if addr.Name == "" {
		addr.Name = c.AppName
	}
	return *addr
}

// Address returns the database "host:port".
func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

// IsSQLite reports whether the configured engine is the embedded SQLite driver.
func (c DatabaseConfig) IsSQLite() bool {
	return c.Engine == "sqlite"
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Smart Classroom")
	conf.SetDefault("secretKey", "k7!x9q2#mz@4vt8&wl1$hy6^rd3*nb5(pc0)")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")

	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddress", ":8000")
	conf.SetDefault("serverDebugHost", ":4000")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", 24*time.Hour)
	conf.SetDefault("corsOrigins", []string{"*"})
	conf.SetDefault("maxUploadSize", "20M")

	conf.SetDefault("dbEngine", "postgres")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", "5432")
	conf.SetDefault("dbName", "smartclassroom")
	conf.SetDefault("dbUser", "smartclassroom")
	conf.SetDefault("dbPassword", "smartclassroom")
	conf.SetDefault("dbAdminUser", "postgres")
	conf.SetDefault("dbAdminPassword", "")
	conf.SetDefault("dbDisableTLS", true)

	conf.SetDefault("genaiApiKey", "")
	conf.SetDefault("genaiModel", "gemini-2.0-flash")

	conf.SetDefault("storageDriver", "fs")
	conf.SetDefault("storageBasePath", "uploads")
	conf.SetDefault("storageB2Account", "")
	conf.SetDefault("storageB2Key", "")
	conf.SetDefault("storageB2Bucket", "")

	conf.SetDefault("sessionsPath", "sessions.db")

	conf.SetDefault("dueDateLayouts", []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	})

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:              env,
		Build:            conf.GetString("build"),
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		AppName:          conf.GetString("appName"),
		SecretKey:        conf.GetString("secretKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		defaultFromEmail: conf.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:               conf.GetString("serverHost"),
			Address:            conf.GetString("serverAddress"),
			DebugHost:          conf.GetString("serverDebugHost"),
			ShutdownTimeout:    conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta: conf.GetDuration("jwtExpirationDelta"),
			CORSOrigins:        conf.GetStringSlice("corsOrigins"),
			MaxUploadSize:      conf.GetString("maxUploadSize"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("dbEngine"),
			Host:          conf.GetString("dbHost"),
			Port:          conf.GetString("dbPort"),
			Name:          conf.GetString("dbName"),
			User:          conf.GetString("dbUser"),
			Password:      conf.GetString("dbPassword"),
			AdminUser:     conf.GetString("dbAdminUser"),
			AdminPassword: conf.GetString("dbAdminPassword"),
			DisableTLS:    conf.GetBool("dbDisableTLS"),
		},
		GenAI: GenAIConfig{
			APIKey: conf.GetString("genaiApiKey"),
			Model:  conf.GetString("genaiModel"),
		},
		Storage: StorageConfig{
			Driver:    conf.GetString("storageDriver"),
			BasePath:  conf.GetString("storageBasePath"),
			B2Account: conf.GetString("storageB2Account"),
			B2Key:     conf.GetString("storageB2Key"),
			B2Bucket:  conf.GetString("storageB2Bucket"),
		},
		Sessions: SessionsConfig{
			Path: conf.GetString("sessionsPath"),
		},
		Assignment: AssignmentConfig{
			DueDateLayouts: conf.GetStringSlice("dueDateLayouts"),
		},
	}
}

// NewTestConfig returns the configuration used by tests: debug off, test mode on.
func NewTestConfig() *Config {
	conf := NewConfig()
	conf.Env = "TEST"
	conf.Debug = false
	conf.TestMode = true
	conf.SecretKey = "secret"
	return conf
}

func (c Config) String() string {
	return fmt.Sprintf("%s (%s) env=%s debug=%t", c.AppName, c.Build, c.Env, c.Debug)
}
