package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/deemkeen/dodo/broker"
	"github.com/deemkeen/dodo/engine"
	"github.com/deemkeen/dodo/store"
	"github.com/deemkeen/dodo/tools"
	"github.com/deemkeen/dodo/ui"
	"github.com/deemkeen/dodo/util"
	"github.com/deemkeen/dodo/web"
	"github.com/gin-gonic/gin"
	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {

	// Stdout carries the MCP stream, everything else goes to stderr.
	log.SetOutput(os.Stderr)
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = os.Stderr
	gin.DefaultErrorWriter = os.Stderr

	conf, err := util.ReadConf()
	if err != nil {
		log.Fatalln(err)
	}

	log.Println("Configuration:", util.PrettyPrint(conf.Conf))

	st := store.NewStore(store.DefaultStatePath())
	avatars := store.NewAvatarCache(store.DefaultAvatarPath())
	gateway := broker.NewClient(conf)
	eng := engine.New(st, avatars, gateway)

	if len(os.Args) > 1 && os.Args[1] == "tui" {
		if err := ui.RunTui(eng); err != nil {
			log.Fatalln(err)
		}
		return
	}

	server := mcp.NewServer(&mcp.Implementation{Name: util.Name, Version: util.GetVersion()}, nil)
	tools.RegisterTools(server, eng)

	startServing(server, conf, eng)
}

func startServing(server *mcp.Server, conf *util.AppConfig, eng *engine.Engine) {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if conf.Conf.WithWeb {
		go func() {
			if err := web.Router(conf, eng); err != nil {
				log.Fatalln(err)
			}
		}()
	}

	log.Printf("Starting MCP server on stdio (%s)", util.GetNameAndVersion())
	finished := make(chan error, 1)
	go func() {
		finished <- server.Run(ctx, &mcp.StdioTransport{})
	}()

	select {
	case <-done:
		log.Println("Stopping MCP server")
		cancel()
	case err := <-finished:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Fatalln(err)
		}
	}
}
