package main

import "time"

type Config struct {
	RedisURL        string        `env:"REDIS_URL,required=true"`
	JWTSecret       string        `env:"JWT_SECRET,required=true"`
	JWTIssuer       string        `env:"JWT_ISSUER,required=true"`
	NodeAddr        string        `env:"NODE_ADDR,required=true"`
	ReadIdleTimeout time.Duration `env:"READ_IDLE_TIMEOUT,required=true"`
	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,required=true"`
	SinkBufferSize  int           `env:"SINK_BUFFER_SIZE,required=true"`
	SinkMaxInFlight int           `env:"SINK_MAX_IN_FLIGHT,required=true"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL,required=true"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,required=true"`
	AuthDevMode     bool          `env:"AUTH_DEV_MODE,default=false"`
	LogLevel        string        `env:"LOG_LEVEL,required=true"`
	Host            string        `env:"HOST,default=localhost"`
	Port            int           `env:"PORT,default=8080"`
}
