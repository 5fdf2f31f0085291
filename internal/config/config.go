package config

import (
	"flag"
	"github.com/ilyakaznacheev/cleanenv"
	"os"
	"time"
)

type Config struct {
	Env      string `yaml:"env" env-default:"local" env-description:"Environment" env-choices:"local,dev,prod"`
	ApiPort  int    `yaml:"api_port" env-default:"8080"`
	ApiHost  string `yaml:"api_host" env-default:"localhost"`
	Postgres `yaml:"postgres"`
	Redis    `yaml:"redis"`
	Session  `yaml:"session"`
}

type Postgres struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"5432"`
	User string `yaml:"user" env-default:"campus"`
	Pass string `yaml:"pass" env-default:"campus"`
	Db   string `yaml:"db" env-default:"campus_idle"`
}

type Redis struct {
	Addr     string        `yaml:"addr" env-default:"localhost:6379"`
	CacheTTL time.Duration `yaml:"cache_ttl" env-default:"30s"`
}

type Session struct {
	JwtSecret string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"campus-idle-dev-secret"`
	TTL       time.Duration `yaml:"ttl" env-default:"24h"`
}

func MustLoad() *Config {
	path := fetchConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		panic("config file does not exist: " + path)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
