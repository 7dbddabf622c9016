package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Scaffolds a timestamped up/down migration pair:
//
//	migrate-create [-dir db/migrations] add_players_table
func main() {
	dir := flag.String("dir", filepath.Join("db", "migrations"), "migrations directory")
	flag.Parse()

	name := flag.Arg(0)
	if name == "" {
		log.Fatal("usage: migrate-create [-dir path] <name>")
	}
	if strings.ContainsAny(name, " /") {
		log.Fatalf("invalid migration name %q", name)
	}

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("create %s: %v", *dir, err)
	}

	stamp := time.Now().UTC().Format("20060102150405")
	for _, direction := range []string{"up", "down"} {
		path := filepath.Join(*dir, fmt.Sprintf("%s_%s.%s.sql", stamp, name, direction))
		if _, err := os.Stat(path); err == nil {
			log.Fatalf("%s already exists", path)
		}
		header := fmt.Sprintf("-- %s (%s)\n", name, direction)
		if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
			log.Fatalf("write %s: %v", path, err)
		}
		log.Printf("created %s", path)
	}
}
