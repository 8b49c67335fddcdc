package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Env         string `mapstructure:"env"`
	Port        int    `mapstructure:"port"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

type MongoConfig struct {
	URI                     string `mapstructure:"uri"`
	Database                string `mapstructure:"database"`
	UsersCollection         string `mapstructure:"users_collection"`
	ConversationsCollection string `mapstructure:"conversations_collection"`
	MessagesCollection      string `mapstructure:"messages_collection"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaConfig struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicEvents string   `mapstructure:"topic_events"`
}

type JWTConfig struct {
	PublicKeyPath string `mapstructure:"public_key_path"`
}

type Config struct {
	App   AppConfig   `mapstructure:"app"`
	Mongo MongoConfig `mapstructure:"mongodb"`
	Redis RedisConfig `mapstructure:"redis"`
	Kafka KafkaConfig `mapstructure:"kafka"`
	JWT   JWTConfig   `mapstructure:"jwt"`
	// derived
	RequestTimeout time.Duration
}

func Load(path string) (*Config, error) {
	// .env is optional; env vars override file values below.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}

	// sensible defaults
	c.RequestTimeout = 10 * time.Second
	if c.App.Port == 0 {
		c.App.Port = 8081
	}
	if c.App.MetricsPort == 0 {
		c.App.MetricsPort = 9091
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "dm_service"
	}
	if c.Mongo.UsersCollection == "" {
		c.Mongo.UsersCollection = "users"
	}
	if c.Mongo.ConversationsCollection == "" {
		c.Mongo.ConversationsCollection = "conversations"
	}
	if c.Mongo.MessagesCollection == "" {
		c.Mongo.MessagesCollection = "messages"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "dm"
	}
	if c.Kafka.TopicEvents == "" {
		c.Kafka.TopicEvents = "dm.events"
	}
	return &c, nil
}
