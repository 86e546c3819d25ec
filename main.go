package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	log.SetFlags(0)

	args, err := getArgs()
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := loadConfig(args.ConfigFile)
	if err != nil {
		log.Fatalf("Configuration problem: %s", err)
	}

	server := newServer(cfg, args.Port, args.Password)

	if err := server.Setup(); err != nil {
		log.Fatal(err)
	}

	// The signal handler may not touch server state. It only asks the event
	// loop to stop; teardown happens on the loop's goroutine.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-signalChan
		log.Printf("Received signal: %s", sig)
		server.Stop()
	}()

	server.Run()

	log.Printf("Server shutdown cleanly.")
}
