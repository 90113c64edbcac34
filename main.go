package main

import (
	"embed"
	"io/fs"
	"log"
	"os"

	"sm4desk/internal/cli"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	dist, err := fs.Sub(assets, "frontend/dist")
	if err != nil {
		log.Fatal(err)
	}

	os.Exit(cli.Execute(cli.Options{Assets: dist}, os.Args[1:]))
}
