package main

import (
	"context"
	"flag"
	"os"
	"time"

	"ai-notecopilot/internal/config"
	"ai-notecopilot/internal/pkg/logger"
	pktNats "ai-notecopilot/pkg/nats"
	"ai-notecopilot/pkg/rag/command"

	"github.com/fatih/color"
)

// send_trigger fires a selection command at a session running in another
// process, through the JetStream trigger stream.
func main() {
	session := flag.String("session", "", "target session id")
	name := flag.String("name", command.Summarize, "command name")
	selection := flag.String("selection", "", "selected text")
	param := flag.String("param", "", "language, tone or custom prompt")
	flag.Parse()

	if *session == "" || *selection == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		color.Red("NATS_URL is not set")
		os.Exit(1)
	}

	pub, err := pktNats.NewPublisher(cfg.App.NatsURL, logger.NewNopLogger())
	if err != nil {
		color.Red("Failed to connect to NATS: %v", err)
		os.Exit(1)
	}
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t := command.Trigger{Name: *name, Selection: *selection, Param: *param}
	if err := pub.PublishTrigger(ctx, *session, t); err != nil {
		color.Red("Publish failed: %v", err)
		os.Exit(1)
	}
	color.Green("Sent %s to %s", t.Name, pktNats.Subject(*session))
}
