// Command pushrelay sends one notification from the command line. Credentials
// come from the environment (PUSHPLUS_TOKEN, TELEGRAM_BOT_TOKEN and
// TELEGRAM_CHAT_ID, WXPUSHER_SPT, DINGTALK_WEBHOOK and DINGTALK_SECRET).
//
// Usage:
//
//	pushrelay -method dingtalk -title "deploy" "v1.2.3 is live"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/kart-io/pushrelay"
	"github.com/kart-io/pushrelay/pkg/logger"
	"github.com/kart-io/pushrelay/pkg/message"
)

func main() {
	var (
		method  = flag.String("method", "pushplus", "delivery channel: pushplus, telegram, wxpusher or dingtalk")
		title   = flag.String("title", "", "optional message title")
		verbose = flag.Bool("v", false, "log every delivery attempt")
	)
	flag.Parse()

	content := strings.Join(flag.Args(), " ")
	if content == "" {
		fmt.Fprintln(os.Stderr, "usage: pushrelay [-method CHANNEL] [-title TITLE] CONTENT")
		os.Exit(2)
	}

	log := logger.New()
	if *verbose {
		log = log.LogMode(logger.Debug)
	}

	client, err := pushrelay.New(
		pushrelay.WithEnvDefaults(),
		pushrelay.WithLogger(log),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pushrelay: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = client.Close() }()

	ch, err := pushrelay.ParseChannel(*method)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pushrelay: %v\n", err)
		os.Exit(2)
	}

	result, err := client.Send(context.Background(), message.NewText(*title, content), ch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pushrelay: %v\n", err)
		os.Exit(1)
	}
	if !result.Success {
		fmt.Fprintf(os.Stderr, "pushrelay: delivery failed after %d attempts: %s\n",
			len(result.Attempts), result.Error)
		os.Exit(1)
	}

	fmt.Printf("delivered via %s in %s (%d attempts)\n", result.Channel, result.Duration, len(result.Attempts))
}
