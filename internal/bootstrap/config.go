package bootstrap

import (
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	RedisUrl    string `mapstructure:"REDIS_URL"`
	MongoUri    string `mapstructure:"MONGO_URI"`
	MongoDb     string `mapstructure:"MONGO_DB"`
	IsLocalCors bool   `mapstructure:"LOCAL_CORS"`
	SelfPingUrl string `mapstructure:"SELF_PING_URL"`
}

func Setup(cfgPath string) (*Config, error) {
	viper.SetConfigFile(cfgPath)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	if cfg.MongoDb == "" {
		cfg.MongoDb = "chess_sync"
	}

	return &cfg, nil
}
