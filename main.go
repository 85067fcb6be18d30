package main

import (
	"log"

	"eventpass/cmd"
	_ "eventpass/migrations"
)

func main() {
	if err := cmd.Start(); err != nil {
		log.Fatal(err)
	}
}
