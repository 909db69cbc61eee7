// The calc-fixture command serves the reference calculator page,
// by default on the address the harness tests.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-rod/calce2e/lib/fixture"
)

func main() {
	addr := flag.String("addr", ":8000", "the address to listen to")
	flag.Parse()

	srv, err := fixture.Serve(*addr)
	if err != nil {
		log.Fatalln(err)
	}

	log.Println("calculator is served on", srv.URL)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	if err := srv.Close(); err != nil {
		log.Fatalln(err)
	}
}
