// Package main — entry point of realtime-service (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/wovlf02/Cooperate-Up-sub001/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
