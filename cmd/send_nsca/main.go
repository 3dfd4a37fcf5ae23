// Command send_nsca reads check-result lines from standard input and
// submits them to an NSCA host, one report per line.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/metricq/nscago"
	"github.com/metricq/nscago/config"
)

func main() {
	var (
		port       = flag.Uint("port", 5667, "NSCA host port")
		delimiter  = flag.String("delimiter", "\t", "delimiter used when parsing input lines")
		configFile = flag.String("config-file", "", "path to a send_nsca config file")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s ADDRESS [flags]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	address := "localhost"
	if flag.NArg() > 0 {
		address = flag.Arg(0)
		// flag.Parse stops at ADDRESS; parse the flags that follow it.
		_ = flag.CommandLine.Parse(flag.Args()[1:])
	}

	password := ""
	method := nsca.Plaintext
	if *configFile != "" {
		cfg, err := config.Read(*configFile)
		if err != nil {
			log.Printf("failed to parse config file: %v", err)
			os.Exit(1)
		}
		password = cfg.Password
		method = cfg.EncryptionMethod
	}

	client := nsca.NewClient(nsca.ClientConfig{
		Host:             address,
		Port:             uint16(*port),
		EncryptionMethod: method,
		Password:         password,
	})

	ctx := context.Background()
	if err := client.Connect(ctx); err != nil {
		log.Printf("failed to connect: %v", err)
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(true) }()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := sendLine(ctx, client, scanner.Text(), *delimiter); err != nil {
			log.Printf("failed to send report: %v", err)
			os.Exit(1)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("failed to read input: %v", err)
		os.Exit(1)
	}
}

func sendLine(ctx context.Context, client *nsca.Client, line, delimiter string) error {
	fields := strings.SplitN(line, delimiter, 4)

	var checkHost, service, rawState, message string
	switch len(fields) {
	case 4:
		checkHost, service, rawState, message = fields[0], fields[1], fields[2], fields[3]
	case 3:
		checkHost, rawState, message = fields[0], fields[1], fields[2]
	default:
		return fmt.Errorf("invalid report line: %q", line)
	}

	stateNum, err := strconv.Atoi(strings.TrimSpace(rawState))
	if err != nil {
		return fmt.Errorf("invalid state %q: %w", rawState, err)
	}
	state := nsca.State(stateNum)
	if !state.Valid() {
		return &nsca.InvalidStateError{Raw: uint16(stateNum)}
	}

	return client.SendReport(ctx, checkHost, service, state, message, nsca.DefaultRetries)
}
