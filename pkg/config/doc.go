// Package config loads kintree settings.
//
// Values come from three layers, later ones winning:
//
//  1. [Default]
//  2. a TOML file, by default $XDG_CONFIG_HOME/kintree/config.toml
//  3. KINTREE_* environment variables, optionally seeded from a .env file
//
// A minimal file:
//
//	persona = "Ada"
//
//	[layout]
//	vertical_spacing = 140
//
//	[server]
//	addr = ":8080"
//
//	[storage]
//	backend = "sqlite"
//	path = "/var/lib/kintree/trees.db"
package config
