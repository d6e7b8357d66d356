// FilePath: cmd/main.go
package main

import (
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	nuts "github.com/vaudience/go-nuts"

	"github.com/TomSft15/TelloDroneHub/internal/config"
	"github.com/TomSft15/TelloDroneHub/internal/server"
)

func main() {
	// Clear console and draw logo
	ClearConsole()
	DrawLogo()
	// Initialize version info
	nuts.InitVersion()
	nuts.L.Infof("[Main] Starting Tello Drone Hub v%s", nuts.GetVersion())

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create and start server
	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen and draws the logo.
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		" ______     ____                     __  __      __  ",
		"/_  __/__  / / /___ ____  ____  ___ / / / /_  __/ /_ ",
		" / / / _ \\/ / / __ \\  _ \\/ __ \\/ _ \\ /_/ / / / / __ \\",
		"/ / /  __/ / / /_/ / /_/ / / / /  __/ __  / /_/ / /_/ /",
		"/_/  \\___/_/_/\\____/____/_/ /_/\\___/_/ /_/\\__,_/_.___/ ",
		"...................................................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
