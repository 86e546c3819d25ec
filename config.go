package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/horgh/config"
)

// Config holds a server's configuration. The listen port and the admission
// password always come from the command line; everything here has a
// default and may be overridden from a config file.
type Config struct {
	ListenHost  string
	ServerName  string
	Version     string
	CreatedDate string

	MaxNickLength int

	// Period of time to wait before waking the server up (maximum).
	WakeupTime time.Duration

	// Period of time a client can be idle before we send it a PING.
	PingTime time.Duration

	// Period of time a client can be idle before we consider it dead.
	DeadTime time.Duration

	// Period of time a connection has to complete registration.
	RegistrationTime time.Duration

	// Address to serve prometheus metrics on. Blank disables the listener.
	MetricsListen string
}

func defaultConfig() Config {
	return Config{
		ListenHost:       "0.0.0.0",
		ServerName:       "volebox",
		Version:          "volebox-1.0",
		CreatedDate:      "today",
		MaxNickLength:    9,
		WakeupTime:       10 * time.Second,
		PingTime:         2 * time.Minute,
		DeadTime:         4 * time.Minute,
		RegistrationTime: time.Minute,
	}
}

// loadConfig builds the configuration, applying the file's keys over the
// defaults. A blank filename means defaults only.
//
// Every key is optional. We parse some values into alternate
// representations.
func loadConfig(file string) (Config, error) {
	cfg := defaultConfig()

	if len(file) == 0 {
		return cfg, nil
	}

	configMap, err := config.ReadStringMap(file)
	if err != nil {
		return Config{}, err
	}

	if v, ok := configMap["listen-host"]; ok {
		cfg.ListenHost = v
	}
	if v, ok := configMap["server-name"]; ok {
		cfg.ServerName = v
	}
	if v, ok := configMap["version"]; ok {
		cfg.Version = v
	}
	if v, ok := configMap["created-date"]; ok {
		cfg.CreatedDate = v
	}
	if v, ok := configMap["metrics-listen"]; ok {
		cfg.MetricsListen = v
	}

	if v, ok := configMap["max-nick-length"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("max nick length is not valid: %s", v)
		}
		cfg.MaxNickLength = n
	}

	if v, ok := configMap["wakeup-time"]; ok {
		cfg.WakeupTime, err = time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("wakeup time is in an invalid format: %s", err)
		}
	}

	if v, ok := configMap["ping-time"]; ok {
		cfg.PingTime, err = time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("ping time is in an invalid format: %s", err)
		}
	}

	if v, ok := configMap["dead-time"]; ok {
		cfg.DeadTime, err = time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("dead time is in an invalid format: %s", err)
		}
	}

	if v, ok := configMap["registration-time"]; ok {
		cfg.RegistrationTime, err = time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("registration time is in an invalid format: %s", err)
		}
	}

	return cfg, nil
}
