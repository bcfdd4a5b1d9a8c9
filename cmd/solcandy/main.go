// Solcandy lists the mints distributed by Metaplex candy machines.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.firedancer.io/solcandy/cmd/solcandy/batch"
	"go.firedancer.io/solcandy/cmd/solcandy/creator"
	"go.firedancer.io/solcandy/cmd/solcandy/mints"
	"go.firedancer.io/solcandy/pkg/versioninfo"
	"k8s.io/klog/v2"
)

var cmd = cobra.Command{
	Use:   "solcandy",
	Short: "Candy machine mint discovery",
}

func init() {
	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.AddCommand(
		&batch.Cmd,
		&creator.Cmd,
		&mints.Cmd,
		&versionCmd,
	)
}

func main() {
	// A missing .env is fine; SOLANA_RPC_URL may come from the real environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		klog.Warningf("Failed to load .env: %s", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	cobra.CheckErr(cmd.ExecuteContext(ctx))
}

var versionCmd = cobra.Command{
	Use:   "version",
	Short: "Print the version number of solcandy",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := versioninfo.Get()
		if !ok {
			klog.Warning("Binary carries no build info")
		}
		klog.Info(info.String())
	},
}
