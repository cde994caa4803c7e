package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"launchprobe/host/probe"
	"launchprobe/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", serial.DefaultBaud, "Baud rate")
	timeout = flag.Duration("timeout", 2*time.Second, "Time to wait for a reply")
)

func main() {
	flag.Parse()

	fmt.Println("probectl - launchprobe console client")
	fmt.Println("=====================================")
	fmt.Println()

	p := probe.New()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Connecting to probe on %s...\n", *device)
	if err := p.ConnectWithConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()

	// One-shot mode: probectl status
	if flag.NArg() > 0 {
		if err := run(p, strings.Join(flag.Args(), " ")); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return
		}

		if err := run(p, line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func run(p *probe.Probe, line string) error {
	reply, err := p.Command(line, *timeout)
	if err != nil {
		return err
	}
	for _, l := range reply {
		fmt.Println(l)
	}
	if len(reply) > 0 && strings.HasPrefix(reply[0], "ERR") {
		return fmt.Errorf("probe rejected %q", line)
	}
	return nil
}
