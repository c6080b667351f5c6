package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/vuelink/config"
	"github.com/user/vuelink/protocol"
	"github.com/user/vuelink/simradio"
	"github.com/user/vuelink/vuelinkcore"
)

var (
	advertiseText     string
	advertisePriority string
	advertiseRepeat   bool
)

// advertiseCmd exercises the Advertiser Sequencer in isolation. Since the
// platform BLE adapter is out of scope, it runs against a single-node
// simradio medium: there is no peer to receive it, but the adapter's
// advertising flag is printed every 50ms until the sequence completes.
var advertiseCmd = &cobra.Command{
	Use:   "advertise",
	Short: "Advertise a free-text message and print the adapter's advertising state",
	Run: func(cmd *cobra.Command, args []string) {
		runAdvertise(advertiseText, protocol.ParsePriority(advertisePriority), advertiseRepeat)
	},
}

func init() {
	advertiseCmd.Flags().StringVar(&advertiseText, "text", "Test message", "free-text content to advertise")
	advertiseCmd.Flags().StringVar(&advertisePriority, "priority", "medium", "low, medium, high, urgent, emergency, system, or test")
	advertiseCmd.Flags().BoolVar(&advertiseRepeat, "repeat", false, "set the repeat flag")
	rootCmd.AddCommand(advertiseCmd)
}

func runAdvertise(text string, prio protocol.Priority, repeat bool) {
	medium := simradio.NewMedium()
	node := medium.Register(config.DefaultDeviceName)

	cfg := config.Default()
	core := vuelinkcore.NewEphemeral(cfg, node)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	core.Run(ctx)
	defer core.Stop()

	m := protocol.GeneralText{Text: text, Repeat: repeat, Prio: prio}
	done := make(chan error, 1)
	if !core.Advertise(ctx, m, cfg.AdvertiseDwell, func(err error) { done <- err }) {
		fmt.Fprintln(os.Stderr, "failed to start advertising: message too large or malformed")
		os.Exit(1)
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if err != nil {
				fmt.Fprintf(os.Stderr, "advertise sequence ended with error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("advertise sequence complete")
			return
		case <-ticker.C:
			fmt.Printf("adapter advertising: %v\n", node.IsAdvertising())
		case <-ctx.Done():
			return
		}
	}
}
