package config

import (
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/omimic12/proxy6-automator/pkg"
)

type Config struct {
	Debug bool `long:"debug" env:"DEBUG" description:"development logging"`

	API struct {
		Key         string        `long:"key" env:"KEY" description:"px6 API key"`
		BaseURL     string        `long:"base-url" env:"BASE_URL" default:"https://px6.link/api" description:""`
		RelayPrefix string        `long:"relay-prefix" env:"RELAY_PREFIX" default:"https://corsproxy.io/?" description:"prefix the escaped API url is appended to when relayed"`
		UseRelay    bool          `long:"use-relay" env:"USE_RELAY" description:"route API calls through the relay"`
		Timeout     time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:""`
		Rate        float64       `long:"rate" env:"RATE" default:"3" description:"requests per second"`
	} `group:"API" namespace:"api" env-namespace:"PX6_API"`

	Profile struct {
		Count       int    `long:"count" env:"COUNT" default:"1" description:""`
		Period      int    `long:"period" env:"PERIOD" default:"30" description:"lease days"`
		Country     string `long:"country" env:"COUNTRY" default:"br" description:"ISO-3166 alpha-2, lower case"`
		Version     string `long:"version" env:"VERSION" default:"4" choice:"4" choice:"3" choice:"6" description:"4 dedicated, 3 shared, 6 IPv6"`
		Type        string `long:"type" env:"TYPE" default:"socks" choice:"http" choice:"socks" description:""`
		Tag         string `long:"tag" env:"TAG" description:"text written before the usage counter"`
		AutoProlong bool   `long:"auto-prolong" env:"AUTO_PROLONG" description:""`
	} `group:"Profile" namespace:"profile" env-namespace:"PX6_PROFILE"`

	Reuse struct {
		Delay time.Duration `long:"delay" env:"DELAY" default:"400ms" description:"pause after each description update"`
	} `group:"Reuse" namespace:"reuse" env-namespace:"PX6_REUSE"`

	Balance struct {
		Refresh time.Duration `long:"refresh" env:"REFRESH" default:"5m" description:""`
	} `group:"Balance" namespace:"balance" env-namespace:"PX6_BALANCE"`

	Cache struct {
		Size int           `long:"size" env:"SIZE" default:"64" description:""`
		TTL  time.Duration `long:"ttl" env:"TTL" default:"10m" description:""`
	} `group:"Cache" namespace:"cache" env-namespace:"PX6_CACHE"`

	Clipboard struct {
		Disabled bool   `long:"disabled" env:"DISABLED" description:"never copy results to the terminal clipboard"`
		Mux      string `long:"mux" env:"MUX" choice:"" choice:"tmux" choice:"screen" description:"terminal multiplexer to wrap the sequence for"`
	} `group:"Clipboard" namespace:"clipboard" env-namespace:"PX6_CLIPBOARD"`

	Redis struct {
		Enabled bool          `long:"enabled" env:"ENABLED" description:"store settings and the journal in Redis"`
		DSN     string        `long:"dsn" env:"DSN" default:"redis://localhost:6379" description:""`
		DB      int           `long:"db" env:"DB" default:"0" description:""`
		Key     string        `long:"journal-key" env:"JOURNAL_KEY" default:"px6:journal" description:""`
		Channel string        `long:"journal-channel" env:"JOURNAL_CHANNEL" default:"px6:journal:live" description:""`
		Buffer  int           `long:"journal-buffer" env:"JOURNAL_BUFFER" default:"100" description:""`
		Flush   time.Duration `long:"journal-flush" env:"JOURNAL_FLUSH" default:"1s" description:""`
	} `group:"Redis" namespace:"redis" env-namespace:"PX6_REDIS"`

	Postgres struct {
		Enabled  bool   `long:"enabled" env:"ENABLED" description:"archive the journal in Postgres"`
		Host     string `long:"host" env:"HOST" default:"localhost" description:""`
		Port     int    `long:"port" env:"PORT" default:"5432" description:""`
		User     string `long:"user" env:"USER" default:"postgres" description:""`
		Password string `long:"password" env:"PASSWORD" description:""`
		DBName   string `long:"db-name" env:"DB_NAME" default:"px6" description:""`
		SSLMode  string `long:"ssl-mode" env:"SSLMODE" default:"disable" description:""`
	} `group:"Postgres" namespace:"postgres" env-namespace:"PX6_POSTGRES"`

	InfluxDB struct {
		Enabled      bool          `long:"enabled" env:"ENABLED" description:""`
		URL          string        `long:"url" env:"URL" default:"http://localhost:8086" description:""`
		Token        string        `long:"token" env:"TOKEN" description:""`
		Organization string        `long:"org" env:"ORG" description:""`
		Bucket       string        `long:"bucket" env:"BUCKET" default:"px6" description:""`
		Period       time.Duration `long:"period" env:"PERIOD" default:"10s" description:""`
	} `group:"InfluxDB" namespace:"influxdb" env-namespace:"PX6_INFLUXDB"`
}

// Load reads .env into the environment, when present, and returns a parser
// that fills cfg from flags and the environment.
func Load(cfg *Config) (*flags.Parser, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load .env")
	}

	return flags.NewParser(cfg, flags.Default), nil
}

func (c *Config) DefaultProfile() pkg.Profile {
	return pkg.Profile{
		Version:     pkg.IPVersion(c.Profile.Version),
		Protocol:    pkg.Protocol(c.Profile.Type),
		Country:     c.Profile.Country,
		Count:       c.Profile.Count,
		Period:      c.Profile.Period,
		Tag:         c.Profile.Tag,
		AutoProlong: c.Profile.AutoProlong,
	}
}
