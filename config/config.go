package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Game     GameConfig     `mapstructure:"game"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
}

type CatalogConfig struct {
	// DataPath points at the directory of store definition JSON files.
	DataPath string `mapstructure:"data_path"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type GameConfig struct {
	StartingBalance     int64         `mapstructure:"starting_balance"`
	DivorceFee          int64         `mapstructure:"divorce_fee"`
	MoodEffectTTL       time.Duration `mapstructure:"mood_effect_ttl"`
	HungerDecayInterval time.Duration `mapstructure:"hunger_decay_interval"`
	HungerDecayStep     int           `mapstructure:"hunger_decay_step"`
	SobrietyInterval    time.Duration `mapstructure:"sobriety_interval"`
	SobrietyStep        int           `mapstructure:"sobriety_step"`
	ReconcileInterval   time.Duration `mapstructure:"reconcile_interval"`
	RankingInterval     time.Duration `mapstructure:"ranking_interval"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("catalog.data_path", "./data/stores")
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/game.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("game.starting_balance", 500)
	v.SetDefault("game.divorce_fee", 1000)
	v.SetDefault("game.mood_effect_ttl", "60m")
	v.SetDefault("game.hunger_decay_interval", "5m")
	v.SetDefault("game.hunger_decay_step", 1)
	v.SetDefault("game.sobriety_interval", "60s")
	v.SetDefault("game.sobriety_step", 2)
	v.SetDefault("game.reconcile_interval", "10m")
	v.SetDefault("game.ranking_interval", "5m")
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
