package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const DefaultPath = "./config/application.yaml"

type Application struct {
	Host     string   `koanf:"host"`
	Listen   string   `koanf:"listen"`
	Google   Google   `koanf:"google"`
	Sync     Sync     `koanf:"sync"`
	Database Database `koanf:"db"`
}

type Google struct {
	ApiBaseUrl   string `koanf:"apibaseurl"`
	AccessToken  string `koanf:"accesstoken"`
	ClientHeader string `koanf:"clientheader"`
	// ClientId, ClientSecret and RefreshToken are only needed when the access token
	// should be refreshed by the service itself instead of being rotated in config.
	ClientId       string        `koanf:"clientid"`
	ClientSecret   string        `koanf:"clientsecret"`
	RefreshToken   string        `koanf:"refreshtoken"`
	RequestTimeout time.Duration `koanf:"requesttimeout"`
}

type Sync struct {
	Enabled  bool   `koanf:"enabled"`
	Schedule string `koanf:"schedule"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

func defaults() Application {
	return Application{
		Host:   "http://localhost:8181",
		Listen: ":8181",
		Google: Google{
			ApiBaseUrl:     "https://www.googleapis.com/calendar/v3",
			ClientHeader:   "Google APIs Explorer",
			RequestTimeout: 30 * time.Second,
		},
		Sync: Sync{
			Enabled:  false,
			Schedule: "0 */6 * * *",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "calsync",
			Pass:   "",
			Name:   "calsync",
			Schema: "calsync",
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Debugf("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Debugf("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "CALSYNC_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "CALSYNC_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
