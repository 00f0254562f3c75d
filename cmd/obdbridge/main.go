package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/obdmon/obd-bridge/internal/elm"
	"github.com/obdmon/obd-bridge/internal/logger"
	"github.com/obdmon/obd-bridge/internal/serial"
	"github.com/obdmon/obd-bridge/internal/server"
	"github.com/obdmon/obd-bridge/web"
)

func main() {
	configPath := flag.String("config", "/etc/obdbridge/config.yaml", "Path to config file")
	serialName := flag.String("serial", "", "Override serial port name (e.g. ttyUSB0)")
	baud := flag.Int("baud", 0, "Override serial baud rate")
	selfTest := flag.Bool("selftest", false, "Run the interface check after opening the port")
	monitorAddr := flag.String("monitor", "", "Enable the monitor page on this address (e.g. :8080)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: obdbridge [flags] <udp-port>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] obdbridge starting")

	if flag.NArg() < 1 {
		log.Fatal("[main] no UDP port provided (usage: obdbridge [flags] <udp-port>)")
	}
	udpPort, err := strconv.Atoi(flag.Arg(0))
	if err != nil || udpPort < 1 || udpPort > 65535 {
		log.Fatalf("[main] invalid UDP port %q", flag.Arg(0))
	}

	cfg := server.LoadConfig(*configPath)
	cfg.Bridge.UDPPort = udpPort
	if *serialName != "" {
		cfg.Serial.Port = *serialName
	}
	if *baud != 0 {
		cfg.Serial.BaudRate = *baud
	}
	if *selfTest {
		cfg.Bridge.SelfTest = true
	}
	if *monitorAddr != "" {
		cfg.Monitor.Enabled = true
		cfg.Monitor.ListenAddr = *monitorAddr
	}

	journal, err := logger.Open(cfg.Journal)
	if err != nil {
		log.Fatalf("[main] %v", err)
	}
	defer journal.Close()

	portPath, err := serial.Find(cfg.Serial.Port)
	if err != nil {
		log.Fatalf("[main] %v", err)
	}
	port, err := serial.Open(portPath, cfg.Serial.BaudRate)
	if err != nil {
		log.Fatalf("[main] %v", err)
	}
	defer port.Close()

	disp := elm.NewDispatcher(port, journal,
		time.Duration(cfg.Bridge.ReplyTimeoutMs)*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[main] received %v, shutting down", sig)
		cancel()
	}()

	if cfg.Bridge.SelfTest {
		elm.SelfTest(disp)
	}

	var mon *server.Monitor
	if cfg.Monitor.Enabled {
		mon = server.NewMonitor(cfg.Monitor.ListenAddr, web.FS)
		go func() {
			if err := mon.Run(ctx); err != nil {
				log.Printf("[monitor] exited: %v", err)
			}
		}()
	}

	srv := server.New(cfg, disp, mon)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("[main] %v", err)
	}
	log.Println("[main] obdbridge stopped")
}
