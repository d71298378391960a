// Package config loads typed configuration structs from the environment.
//
// Values come from process environment variables; a .env file in the working
// directory is read once per process via github.com/joho/godotenv and never
// overrides variables that are already set. Struct fields are populated with
// github.com/caarlos0/env/v11 tags:
//
//	type Config struct {
//		Addr    string        `env:"HTTP_ADDR" envDefault:":8080"`
//		Timeout time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config
