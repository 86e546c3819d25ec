package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Args are command line arguments.
type Args struct {
	Port       uint16
	Password   string
	ConfigFile string
}

func getArgs() (Args, error) {
	configFile := flag.String("conf", "", "Optional configuration file.")

	flag.Parse()

	if flag.NArg() != 2 {
		flag.PrintDefaults()
		return Args{}, fmt.Errorf("usage: %s [-conf file] <port> <password>",
			os.Args[0])
	}

	port, err := strconv.ParseUint(flag.Arg(0), 10, 16)
	if err != nil || port == 0 {
		return Args{}, fmt.Errorf("invalid port: %s", flag.Arg(0))
	}

	args := Args{
		Port:     uint16(port),
		Password: flag.Arg(1),
	}

	if len(*configFile) > 0 {
		configPath, err := filepath.Abs(*configFile)
		if err != nil {
			return Args{}, fmt.Errorf("unable to determine absolute path to config file: %s: %s",
				*configFile, err)
		}
		args.ConfigFile = configPath
	}

	return args, nil
}
