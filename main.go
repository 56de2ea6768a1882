package main

import (
	"context"
	"os/signal"
	"syscall"

	relay "github.com/tanwk/relay/app"
)

func main() {
	ctx, _ := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	config, err := relay.LoadConfig()
	if err != nil {
		panic(err)
	}

	app := relay.New(ctx, config)
	app.Start()
}
