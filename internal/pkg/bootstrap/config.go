package bootstrap

import (
	"os"
	"strings"
	"sync"

	"flashmall/internal/pkg/logger"

	"gopkg.in/yaml.v3"
)

// Config 描述一个服务运行所需的全部外部依赖配置。
// 默认值面向本地开发环境，线上通过配置文件 + 环境变量覆盖。
type Config struct {
	App struct {
		Env string `yaml:"env"`
	} `yaml:"app"`
	Infra struct {
		Mysql struct {
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			User     string `yaml:"user"`
			Password string `yaml:"password"`
			Database string `yaml:"database"`
		} `yaml:"mysql"`
		Redis struct {
			Addr string `yaml:"addr"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers           []string `yaml:"brokers"`
			NotificationTopic string   `yaml:"notification_topic"`
			AlertTopic        string   `yaml:"alert_topic"`
		} `yaml:"kafka"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Zookeeper struct {
			Servers []string `yaml:"servers"`
		} `yaml:"zookeeper"`
		Nacos struct {
			ServerAddrs string `yaml:"server_addrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`
}

var (
	currentConfig Config
	configOnce    sync.Once
)

// Init 加载配置。必须在 StartService 之前调用一次。
func Init() {
	configOnce.Do(func() {
		currentConfig = defaultConfig()
		path := getEnv("CONFIG_PATH", "config.yaml")
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Logger().Warn().Err(err).Str("path", path).Msg("config file not found, using defaults and env overrides")
		} else if err := yaml.Unmarshal(data, &currentConfig); err != nil {
			logger.Logger().Fatal().Err(err).Str("path", path).Msg("failed to parse config file")
		}
		applyEnvOverrides(&currentConfig)
	})
}

// GetCurrentConfig 返回已加载的配置。
func GetCurrentConfig() *Config {
	return &currentConfig
}

func defaultConfig() Config {
	var c Config
	c.App.Env = "dev"
	c.Infra.Mysql.Host = "localhost"
	c.Infra.Mysql.Port = 3306
	c.Infra.Mysql.User = "root"
	c.Infra.Mysql.Database = "flashmall"
	c.Infra.Redis.Addr = "localhost:6379"
	c.Infra.Kafka.Brokers = []string{"localhost:9092"}
	c.Infra.Kafka.NotificationTopic = "notifications"
	c.Infra.Kafka.AlertTopic = "ops-alerts"
	c.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	c.Infra.Zookeeper.Servers = []string{"localhost:2181"}
	c.Infra.Nacos.ServerAddrs = "localhost:8848"
	c.Infra.Nacos.Group = "DEFAULT_GROUP"
	return c
}

// 环境变量优先级高于配置文件，便于容器化部署时按实例覆盖。
func applyEnvOverrides(c *Config) {
	if v, ok := os.LookupEnv("MYSQL_HOST"); ok {
		c.Infra.Mysql.Host = v
	}
	if v, ok := os.LookupEnv("MYSQL_PASSWORD"); ok {
		c.Infra.Mysql.Password = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok {
		c.Infra.Redis.Addr = v
	}
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		c.Infra.Kafka.Brokers = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("JAEGER_ENDPOINT"); ok {
		c.Infra.Jaeger.Endpoint = v
	}
	if v, ok := os.LookupEnv("ZK_SERVERS"); ok {
		c.Infra.Zookeeper.Servers = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("NACOS_SERVER_ADDRS"); ok {
		c.Infra.Nacos.ServerAddrs = v
	}
	if v, ok := os.LookupEnv("NACOS_NAMESPACE"); ok {
		c.Infra.Nacos.Namespace = v
	}
	if v, ok := os.LookupEnv("NACOS_GROUP"); ok {
		c.Infra.Nacos.Group = v
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
