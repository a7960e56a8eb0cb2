package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Watch reloads the configuration whenever the dotenv file read by v changes
// and hands the result to onChange. Invalid edits are logged and skipped.
// It is a no-op when no file was read.
func Watch(v *viper.Viper, onChange func(*Config)) bool {
	if v.ConfigFileUsed() == "" {
		return false
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		cfg, err := Load(v)
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("Ignoring invalid configuration change")
			return
		}

		log.Info().Str("file", e.Name).Msg("Configuration reloaded")
		onChange(cfg)
	})
	v.WatchConfig()

	return true
}
