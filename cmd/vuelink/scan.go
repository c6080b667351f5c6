package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/user/vuelink/config"
	"github.com/user/vuelink/simradio"
	"github.com/user/vuelink/vuelinkcore"
)

// scanCmd exercises the Scanner Pipeline in isolation. Like advertise, it
// runs against a single-node simradio medium (the real adapter is out of
// scope); with nothing else on the medium it will simply idle, printing
// each event if another local process shared the same medium were
// possible. Its purpose is to demonstrate the pipeline's lifecycle.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Start the Scanner Pipeline and print every accepted message",
	Run: func(cmd *cobra.Command, args []string) {
		runScan()
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan() {
	medium := simradio.NewMedium()
	node := medium.Register(config.DefaultDeviceName)

	cfg := config.Default()
	core := vuelinkcore.NewEphemeral(cfg, node)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !core.Run(ctx) {
		fmt.Fprintln(os.Stderr, "failed to start scanning")
		os.Exit(1)
	}
	defer core.Stop()

	fmt.Println("scanning for Vuelink advertisements (Ctrl-C to stop)...")
	events := core.Subscribe()
	for {
		select {
		case ev := <-events:
			fmt.Printf("[%s] %s (willForward=%v, rssi=%d)\n", ev.Source, describe(ev.Message), ev.WillForward, ev.RSSI)
		case <-ctx.Done():
			return
		}
	}
}
