// Package config loads tradesync configuration from YAML.
//
// ${VAR} references are expanded from the environment before parsing. An
// optional .env file in the config file's directory is loaded into the
// environment first.
//
// Example:
//
//	api:
//	  base_url: ${MARKET_API_BASE_URL}
//	  timeout: 5s
//	market:
//	  id: default_market
//	  trades_limit: 20
//	poller:
//	  interval: 4s
//	gateway:
//	  addr: ":8090"
//	log:
//	  level: info
package config
