package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/warden/pkg/cli"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if os.Getenv("WARDEN_DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := cli.NewRootCommand(os.Stdout, log).Execute(os.Args[1:]); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
