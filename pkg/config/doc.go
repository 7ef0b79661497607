// Package config loads typed configuration structs from environment variables
// using github.com/caarlos0/env/v11, optionally seeding the environment from
// dotenv files with github.com/joho/godotenv.
//
// Config structs declare their variables with env tags and may implement
// Validator to reject inconsistent values at startup.
package config
