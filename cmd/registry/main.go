package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"

	"github.com/duelgrid/duelgrid/discovery"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <listen-addr>\n", os.Args[0])
		os.Exit(1)
	}
	addr := os.Args[1]

	handler := pterm.NewSlogHandler(&pterm.DefaultLogger)
	logger := slog.New(handler)

	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("R", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("egistry", pterm.FgDarkGray.ToStyle()),
	).Render()

	registry := discovery.NewRegistry(discovery.WithLogger(logger))
	stop := make(chan struct{})
	defer close(stop)
	go registry.RunSweeper(10*time.Minute, stop)

	pterm.Info.Printfln("Listening on %s", addr)
	if err := http.ListenAndServe(addr, registry.Handler()); err != nil {
		logger.Error("registry stopped", "err", err)
		os.Exit(1)
	}
}
