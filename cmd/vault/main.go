package main

import (
	"log"

	"github.com/anoideaopen/custody/core/logger"
	"github.com/anoideaopen/custody/vault"
)

func main() {
	l := logger.Logger()
	l.Warning("start vault")

	if err := vault.NewChaincode().Start(); err != nil {
		log.Fatal(err)
	}
}
