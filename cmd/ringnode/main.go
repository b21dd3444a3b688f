// Command ringnode runs a single token-ring participant: it loads a node
// config, binds a UDP socket, and drives the protocol engine until the
// operator shuts it down from stdin.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ring "github.com/Schnorren/ring-network-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")
	retryCap := flag.Int("retry-cap", ring.DefaultRetryCap, "number of send attempts a NAK'd message gets before being dropped")
	corrupt := flag.Bool("inject-corruption", false, "enable the pseudo-random single-character corruption injector")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() != 2 {
		printUsage()
		os.Exit(2)
	}
	configPath := flag.Arg(0)
	localPort, err := parsePort(flag.Arg(1))
	if err != nil {
		log.Fatalf("invalid local UDP port: %v", err)
	}

	cfg, err := ring.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg.LocalBindPort = localPort

	opts := []ring.Option{ring.WithRetryCap(*retryCap)}
	if *corrupt {
		opts = append(opts, ring.WithCorruptionInjector(ring.NewRandomCorruptor(nil)))
	}

	node, err := ring.NewNode(cfg, opts...)
	if err != nil {
		log.Fatalf("node: %v", err)
	}
	defer node.Close()

	fmt.Printf("ringnode: %s bound on :%d, right neighbor %s, hold time %s, originator=%v\n",
		cfg.Nickname, localPort, cfg.RightNeighbor, cfg.TokenHoldTime, cfg.IsTokenOriginator)
	fmt.Printf("ringnode: logging to %s.log; type '<dest> <message>' or a /command, /sair or Ctrl-C to stop\n", cfg.Nickname)

	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(node.Metrics())
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Printf("metrics server stopped: %v", err)
			}
		}()
		fmt.Printf("ringnode: serving metrics on %s/metrics\n", *metricsAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := node.Run(ctx, os.Stdin); err != nil {
		log.Fatalf("run: %v", err)
	}
	fmt.Println("ringnode: shut down cleanly")
}

func parsePort(s string) (int, error) {
	var port int
	_, err := fmt.Sscanf(s, "%d", &port)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%q is not a valid port number", s)
	}
	return port, nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] <config_file> <local_udp_port>\n\n", os.Args[0])
	flag.PrintDefaults()
}
