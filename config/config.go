package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 从环境变量 / .env / config.yaml 读取
type Config struct {
	Port string

	DBDriver   string // postgres | sqlite
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string
	SQLitePath string

	RedisAddr string
	RedisPwd  string
	RedisDB   int

	WebOrigin    string
	SessionTTL   time.Duration
	SeenThrottle time.Duration
	JWTSecret    string

	EmployeesCSVPath string

	AMQPURL     string
	EventsQueue string

	LockBackend string // redis | local
	LockTTL     time.Duration
	LockWait    time.Duration

	BootstrapAdmin string
}

// LoadEnv loads .env into the process environment; a missing file is fine.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
}

func Load() Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("PORT", "3001")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "127.0.0.1")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "tsd")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "tsd.db")
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("WEB_ORIGIN", "http://localhost:5173")
	v.SetDefault("SESSION_TTL_SECONDS", 24*60*60)
	v.SetDefault("SEEN_THROTTLE_SECONDS", 300)
	v.SetDefault("EMPLOYEES_CSV_PATH", "data/employees.csv")
	v.SetDefault("EVENTS_QUEUE", "tsd.events")
	v.SetDefault("LOCK_BACKEND", "redis")
	v.SetDefault("LOCK_TTL_SECONDS", 10)
	v.SetDefault("LOCK_WAIT_MS", 5000)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("config.yaml: %v", err)
		}
	}

	return Config{
		Port:       v.GetString("PORT"),
		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBPort:     v.GetString("DB_PORT"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),
		SQLitePath: v.GetString("SQLITE_PATH"),

		RedisAddr: v.GetString("REDIS_ADDR"),
		RedisPwd:  v.GetString("REDIS_PASSWORD"),
		RedisDB:   v.GetInt("REDIS_DB"),

		WebOrigin:    v.GetString("WEB_ORIGIN"),
		SessionTTL:   time.Duration(v.GetInt("SESSION_TTL_SECONDS")) * time.Second,
		SeenThrottle: time.Duration(v.GetInt("SEEN_THROTTLE_SECONDS")) * time.Second,
		JWTSecret:    v.GetString("JWT_SECRET"),

		EmployeesCSVPath: v.GetString("EMPLOYEES_CSV_PATH"),

		AMQPURL:     v.GetString("AMQP_URL"),
		EventsQueue: v.GetString("EVENTS_QUEUE"),

		LockBackend: strings.ToLower(v.GetString("LOCK_BACKEND")),
		LockTTL:     time.Duration(v.GetInt("LOCK_TTL_SECONDS")) * time.Second,
		LockWait:    time.Duration(v.GetInt("LOCK_WAIT_MS")) * time.Millisecond,

		BootstrapAdmin: strings.TrimSpace(v.GetString("BOOTSTRAP_ADMIN")),
	}
}

// PostgresDSN 拼接 gorm postgres 连接串
func (c Config) PostgresDSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode
}
