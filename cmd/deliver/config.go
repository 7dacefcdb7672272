package main

type Config struct {
	RedisURL       string `env:"REDIS_URL,required=true"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	Concurrency    int    `env:"CONCURRENCY,default=10"`
	LimitMessages  *int   `env:"LIMIT_MESSAGES"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`
}
