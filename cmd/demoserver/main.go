// Command demoserver starts the PageWatch demo server for demonstrating
// change detection.
// Usage: go run ./cmd/demoserver [port]
// Default port: 9999
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/raysh454/pagewatch/internal/demoserver"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   PageWatch Demo Server")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("This server provides pages with multiple versions that")
	fmt.Println("can be switched on-the-fly. Point PageWatch at them to")
	fmt.Println("watch change detection in action.")
	fmt.Println()
	fmt.Println("Volatile pages inject per-request timestamps and session")
	fmt.Println("tokens; observing the same version twice still reads as")
	fmt.Println("unchanged.")
	fmt.Println()

	server := demoserver.NewDemoServer(cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
