// Command nsca_server is a minimal example NSCA server: it accepts
// reports and prints each one as it is received.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/metricq/nscago"
)

func main() {
	var (
		host             = flag.String("host", "", "address to bind (empty binds all interfaces)")
		port             = flag.Uint("port", 5667, "port to listen on")
		encryptionMethod = flag.String("encryption-method", "plaintext", "encryption method: plaintext or blowfish")
		password         = flag.String("password", os.Getenv("NSCA_HOST_PASSWORD"), "password used to decrypt reports (default: $NSCA_HOST_PASSWORD)")
	)
	flag.Parse()

	method, err := parseMethod(*encryptionMethod)
	if err != nil {
		log.Fatalf("invalid --encryption-method: %v", err)
	}

	server := nsca.NewServer(nsca.ServerConfig{
		Host:             *host,
		Port:             uint16(*port),
		EncryptionMethod: method,
		Password:         *password,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}

	go func() {
		<-ctx.Done()
		if err := server.Stop(); err != nil {
			log.Printf("error stopping server: %v", err)
		}
	}()

	for report := range server.Reports() {
		printReport(report)
	}
}

func printReport(r nsca.Report) {
	fmt.Printf(
		"Received report:\n"+
			"  host: %s\n"+
			"  service: %s\n"+
			"  state: %s\n"+
			"  time: %s\n"+
			"  message:\n%s\n",
		r.Hostname,
		r.Service,
		r.State,
		time.Unix(int64(r.Timestamp), 0).Format(time.RFC3339),
		indent(r.Message, "    "),
	)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func parseMethod(s string) (nsca.EncryptionMethod, error) {
	switch strings.ToLower(s) {
	case "plaintext":
		return nsca.Plaintext, nil
	case "blowfish":
		return nsca.Blowfish, nil
	default:
		return 0, fmt.Errorf("unrecognized encryption method %q", s)
	}
}
