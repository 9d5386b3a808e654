package main

import (
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"

	"signalrouter/cmd/api"
	"signalrouter/src/utils"
)

func main() {
	utils.SetupLogger(utils.GetLogConfig())
	defer handlePanic()

	if err := (&api.API{}).Start(); err != nil {
		logger.WithError(err).Fatal("Failed to start settings API")
	}
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Errorf("Application %s panic", api.GetConfig().AppName)
	}
	//nolint
	time.Sleep(time.Second * 5)
}
