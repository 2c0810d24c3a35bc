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

const DefaultAPIBaseURL = "https://dbbackend.devnexussolutions.com/auth/api"

type Application struct {
	Host    string  `koanf:"host"`
	Listen  string  `koanf:"listen"`
	API     API     `koanf:"api"`
	Session Session `koanf:"session"`
	Storage Storage `koanf:"storage"`
}

// API describes the remote appointment backend.
type API struct {
	BaseURL string        `koanf:"baseurl"`
	Timeout time.Duration `koanf:"timeout"`
	// RateLimit caps outgoing requests per second. Zero means unlimited.
	RateLimit float64 `koanf:"ratelimit"`
}

type Session struct {
	Key string `koanf:"key"`
}

type Storage struct {
	Path string `koanf:"path"`
}

func defaults() Application {
	return Application{
		Host:   "http://localhost:3000",
		Listen: ":8181",
		API: API{
			BaseURL: DefaultAPIBaseURL,
		},
		Session: Session{
			Key: "userDetails",
		},
		Storage: Storage{
			Path: "scheduler.db",
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
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "SCHEDULER_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "SCHEDULER_")), "_", ".")
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
	app.API.BaseURL = strings.TrimRight(app.API.BaseURL, "/")

	return app, nil
}
