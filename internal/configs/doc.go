// Package configs manages debrief's directories and configuration.
//
// Two platform directories are used:
//
//   - Config dir: <UserConfigDir>/workday-debrief (master.key, config.toml)
//   - Data dir: $XDG_DATA_HOME/workday-debrief, defaulting to
//     ~/.local/share/workday-debrief (secrets.enc, audit.jsonl)
//
// # config.toml
//
// The optional config file tunes the vault:
//
//	[vault]
//	data_dir = "/srv/debrief"
//	scrypt_work_factor = 18
//	legacy_migration = true
//	audit = true
//
// # Key source
//
// The master key override (WORKDAY_DEBRIEF_MASTER_KEY) is read once by the
// CLI into a KeySource value and passed down explicitly. Nothing below the
// cmd package reads the environment for key material.
//
// Call InitSettings() before accessing DebriefSettings.
package configs
