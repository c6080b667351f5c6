package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/vuelink/config"
	"github.com/user/vuelink/forward"
	"github.com/user/vuelink/history"
	"github.com/user/vuelink/protocol"
	"github.com/user/vuelink/snapshot"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and manage the persisted dedup history store",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries in the persisted history",
	Run: func(cmd *cobra.Command, args []string) {
		runHistoryList()
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all persisted history, in memory and on disk",
	Run: func(cmd *cobra.Command, args []string) {
		runHistoryClear()
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the persisted history as a shared-snapshot blob",
	Run: func(cmd *cobra.Command, args []string) {
		runHistoryExport()
	},
}

var importBlob string

var historyImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a shared-snapshot blob into the persisted history",
	Run: func(cmd *cobra.Command, args []string) {
		runHistoryImport(importBlob)
	},
}

func init() {
	historyImportCmd.Flags().StringVar(&importBlob, "blob", "", "the base64 shared-snapshot blob to import")
	historyCmd.AddCommand(historyListCmd, historyClearCmd, historyExportCmd, historyImportCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory() *history.Store {
	path := config.HistoryPath(config.DataDir())
	h, err := history.Open(path, config.HistoryCapacity, config.DedupWindow)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open history at %s: %v\n", path, err)
		os.Exit(1)
	}
	return h
}

func runHistoryList() {
	entries := openHistory().List()
	if len(entries) == 0 {
		fmt.Println("history is empty")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s %s %s\n", e.ReceivedAt.Format(time.RFC3339), e.Message.Kind(), describe(e.Message))
	}
}

func runHistoryClear() {
	if err := openHistory().Clear(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to clear history: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("history cleared")
}

func runHistoryExport() {
	entries := openHistory().List()
	msgs := make([]protocol.Message, len(entries))
	shouldForward := make([]bool, len(entries))
	for i, e := range entries {
		msgs[i] = e.Message
		shouldForward[i] = forward.Eligible(e.Message)
	}
	blob, err := snapshot.Encode(msgs, shouldForward)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to export snapshot: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(blob)
}

func runHistoryImport(blob string) {
	if blob == "" {
		fmt.Fprintln(os.Stderr, "--blob is required")
		os.Exit(1)
	}
	decoded, err := snapshot.Decode(blob)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to decode snapshot: %v\n", err)
		os.Exit(1)
	}

	h := openHistory()
	now := time.Now()
	accepted := 0
	for _, d := range decoded {
		if h.Accept(d.Message, now) {
			accepted++
		}
	}
	fmt.Printf("imported %d message(s)\n", accepted)
}
