// Command viewer serves a read-only HTTP API over match journal shards so
// recorded matches can be browsed and stepped through.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	listen := fs.String("listen", "127.0.0.1:8081", "HTTP listen address")
	dataDirs := fs.String("data-dirs", strings.Join(defaultDataDirs(), ","), "Comma-separated list of directories containing journal parquet shards")
	staticDir := fs.String("static-dir", "", "Optional directory to serve as SPA static")
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("flag parse: %v", err)
	}

	roots := parseDataRoots(*dataDirs)
	log.Printf("Viewer data roots: %s", strings.Join(roots, ","))

	s := NewServer(roots)
	defer s.Close()

	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	if strings.TrimSpace(*staticDir) != "" {
		mux.Handle("/", newSPAHandler(*staticDir))
		log.Printf("Serving SPA from %s", *staticDir)
	}

	srv := &http.Server{
		Addr:              *listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("Viewer API listening on http://%s", *listen)
	log.Fatal(srv.ListenAndServe())
}

func defaultDataDirs() []string {
	return []string{
		filepath.Join("data", "journal"),
		filepath.Join("data", "matches"),
	}
}
