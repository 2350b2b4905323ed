package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

var (
	serverURL   = flag.String("server", "http://localhost:8080", "Bridge HTTP base URL")
	token       = flag.String("token", "", "Bearer token for the bridge API")
	userID      = flag.String("user", "sim-host", "User ID reported on the WebSocket")
	language    = flag.String("lang", "en", "Transcript language")
	interactive = flag.Bool("interactive", true, "Enable interactive mode")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// Setup logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	config := &SimulatorConfig{
		ServerURL: *serverURL,
		Token:     *token,
		UserID:    *userID,
		Language:  *language,
	}

	simulator := NewSimulator(config, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down simulator...")
		simulator.Stop()
		os.Exit(0)
	}()

	// Connect the action stream and push the seed snapshot
	if err := simulator.Connect(); err != nil {
		logger.Fatal("Failed to connect to bridge", zap.Error(err))
	}
	if err := simulator.PushState(); err != nil {
		logger.Fatal("Failed to push initial snapshot", zap.Error(err))
	}

	if *interactive {
		runInteractiveMode(simulator)
	} else {
		fmt.Printf("VoiceBridge host simulator started\n")
		fmt.Printf("  Server: %s\n", *serverURL)
		fmt.Printf("  User:   %s\n", *userID)
		fmt.Println("\nPress Ctrl+C to stop")

		select {}
	}
}

func runInteractiveMode(sim *Simulator) {
	fmt.Println("\nVoiceBridge Host Simulator - Interactive Mode")
	fmt.Println("=============================================")
	fmt.Println("Commands:")
	fmt.Println("  say <transcript>        - Submit a voice transcript")
	fmt.Println("  confirm <id> yes|no     - Resolve a pending confirmation")
	fmt.Println("  show                    - Print the current snapshot")
	fmt.Println("  route <path>            - Simulate host navigation")
	fmt.Println("  hide / visible          - Simulate tab visibility changes")
	fmt.Println("  push                    - Re-push the snapshot")
	fmt.Println("  quit                    - Exit simulator")
	fmt.Println("")

	sim.RunInteractive()
}
