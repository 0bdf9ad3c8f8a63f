package service

import (
	"github.com/rs/zerolog/log"
	"os"
	"os/signal"
	"syscall"
)

// Service is a long running process. Start must not block.
type Service interface {
	Init() error
	Start() error
	Stop() error
}

// Run starts s and blocks until the process receives SIGINT or SIGTERM, then
// stops s.
func Run(s Service) error {
	if err := s.Init(); err != nil {
		return err
	}

	if err := s.Start(); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	log.Info().Msgf("received signal %v, stopping", <-sig)

	return s.Stop()
}
