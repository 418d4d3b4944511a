// Package config loads environment-driven configuration structs.
//
// Each package that needs settings declares its own Config struct with
// github.com/caarlos0/env tags and defaults. A .env file in the working
// directory is read once per process through github.com/joho/godotenv
// (missing files are ignored; real environment variables win) and every
// struct type is parsed at most once. Later calls for the same type return
// the cached copy, so packages can load their config independently without
// paying for repeated parsing.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// MustLoad panics instead of returning the error. The server uses it for
// settings it cannot start without:
//
//	var (
//	    policy billing.Config
//	    quota  usage.Config
//	)
//	config.MustLoad(&policy)
//	config.MustLoad(&quota)
//
// Settings of optional backends are loaded with Load only when the backend
// is selected, so a missing PG_CONN_URL does not fail a memory-only
// deployment.
//
// # Errors
//
// Parse failures, including missing required variables, are joined with
// ErrParsingConfig. A nil pointer yields ErrNilPointer.
package config
