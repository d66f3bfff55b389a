package config

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Game    GameConfig    `mapstructure:"game"`
	Ranking RankingConfig `mapstructure:"ranking"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	MQ      MQConfig      `mapstructure:"mq"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	GrpcPort int    `mapstructure:"grpc_port"`
	TickRate int    `mapstructure:"tick_rate"`
	Mode     string `mapstructure:"mode"`
}

type GameConfig struct {
	MaxPlayers  int     `mapstructure:"max_players"`
	MinPlayers  int     `mapstructure:"min_players"`
	Variant     string  `mapstructure:"variant"`
	AimBotSpeed float64 `mapstructure:"aimbot_speed"`
}

type RankingConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	TickLockTimeoutMs int  `mapstructure:"tick_lock_timeout_ms"`
	HTTPLockTimeoutMs int  `mapstructure:"http_lock_timeout_ms"`
}

type MySQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type MQConfig struct {
	Url       string `mapstructure:"url"`
	QueueName string `mapstructure:"queue_name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

var AppConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8082)
	v.SetDefault("server.grpc_port", 9092)
	v.SetDefault("server.tick_rate", 50)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("game.max_players", 16)
	v.SetDefault("game.min_players", 2)
	v.SetDefault("game.variant", "laser")
	v.SetDefault("game.aimbot_speed", 0)

	v.SetDefault("ranking.enabled", true)
	v.SetDefault("ranking.tick_lock_timeout_ms", 1)
	v.SetDefault("ranking.http_lock_timeout_ms", 500)

	v.SetDefault("mysql.host", "127.0.0.1")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.username", "")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.database", "")

	// empty url / addr turns the integration off
	v.SetDefault("mq.url", "")
	v.SetDefault("mq.queue_name", "zcatch_round_results")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
}

// Load 读取配置文件，文件不存在时使用默认值。环境变量 ZCATCH_SERVER_PORT 等可覆盖
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("zcatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		log.Printf("No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func InitConfig() {
	cfg, err := Load("")
	if err != nil {
		log.Fatalf("Error reading config: %v", err)
	}
	AppConfig = cfg
}
