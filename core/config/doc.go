// Package config provides configuration management for the reconciler.
//
// It utilizes Viper for loading configuration from environment variables and
// a .env file, with defaults declared as struct tags. Command-line flags
// override loaded values at the command layer.
//
// # Configuration Structure
//
// The Config struct is the central repository for all settings:
//   - scan parameters at the top level (PROVIDER, START, END, RANGE, STEP,
//     MIN_RANGE, CONTRACT, TOPIC, ...)
//   - RPC: transport timeouts and retry policy (RPC_*)
//   - Database: connection URL or split pieces (DATABASE_*)
//   - Log: logging level and format (LOG_*)
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Provider)
package config
