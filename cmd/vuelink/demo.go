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
	"github.com/user/vuelink/scanner"
	"github.com/user/vuelink/simradio"
	"github.com/user/vuelink/vuelinkcore"
)

var demoNodes int

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run an in-process simulated mesh of nodes exchanging messages over simradio",
	Run: func(cmd *cobra.Command, args []string) {
		runDemo(demoNodes)
	},
}

func init() {
	demoCmd.Flags().IntVar(&demoNodes, "nodes", 3, "number of simulated nodes")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(n int) {
	if n < 2 {
		n = 2
	}
	medium := simradio.NewMedium()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cores := make([]*vuelinkcore.Core, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("node-%d", i)
		node := medium.Register(name)

		cfg := config.Default()
		cfg.DeviceName = name
		cfg.AdvertiseDwell = 250 * time.Millisecond
		cfg.InterChunkGap = 20 * time.Millisecond

		core := vuelinkcore.NewEphemeral(cfg, node)
		core.Run(ctx)
		cores[i] = core

		go func(nodeName string, events <-chan scanner.ReceivedMessage) {
			for ev := range events {
				fmt.Printf("[%s] received from %s: %s\n", nodeName, ev.Source, describe(ev.Message))
			}
		}(name, core.Subscribe())
	}

	fmt.Printf("demo mesh running with %d nodes; node-0 will advertise a gate change shortly\n", n)
	time.Sleep(500 * time.Millisecond)
	cores[0].Advertise(ctx, protocol.FlightUpdateGeneral{
		FlightID: "VL123",
		Text:     "Gate changed to B17, please proceed promptly",
		Prio:     protocol.PriorityUrgent,
	}, 250*time.Millisecond, func(err error) {
		if err != nil {
			fmt.Fprintf(os.Stderr, "advertise failed: %v\n", err)
		}
	})

	<-ctx.Done()
	for _, c := range cores {
		c.Stop()
	}
}

func describe(m protocol.Message) string {
	switch v := m.(type) {
	case protocol.GeneralText:
		return v.Text
	case protocol.GeneralBasic:
		return string(v.Content)
	case protocol.FlightUpdate:
		return fmt.Sprintf("%s: %s", v.FlightID, v.UpdateType)
	case protocol.FlightUpdateGeneral:
		return fmt.Sprintf("%s: %s", v.FlightID, v.Text)
	default:
		return "<unknown>"
	}
}
