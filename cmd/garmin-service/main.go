package main

import (
	"os"

	"github.com/apedley/SparkyFitness/garminservice"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := garminservice.Run(); err != nil {
		log.Error().Err(err).Msg("garmin-service exited with error")
		os.Exit(1)
	}
}
