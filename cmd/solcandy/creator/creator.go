package creator

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.firedancer.io/solcandy/pkg/candy"
	"go.firedancer.io/solcandy/pkg/keyfmt"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "creator <candy-machine>",
	Short: "Print the creator authority of a candy machine",
	Long: "Derives the address that a candy machine records as first creator of its mints.\n" +
		"Works offline.",
	Args: cobra.ExactArgs(1),
}

var flags = Cmd.Flags()

var (
	flagVersion = candy.V2
	flagFormat  = keyfmt.FormatLines
)

func init() {
	flags.VarP(&flagVersion, "candy-version", "c", "Candy machine version (1, 2)")
	flags.VarP(&flagFormat, "format", "f", "Output format (json, lines, hex)")
	Cmd.Run = run
}

type output struct {
	CandyMachine string        `json:"candyMachine"`
	Version      candy.Version `json:"version"`
	Creator      string        `json:"creator"`
	Bump         uint8         `json:"bump"`
}

func run(c *cobra.Command, args []string) {
	key, err := keyfmt.ParseKey(args[0])
	if err != nil {
		klog.Exitf("Invalid candy machine: %s", err)
	}
	cm := candy.New(key, flagVersion)
	creator, bump, err := cm.CreatorWithBump()
	if err != nil {
		klog.Exitf("Failed to derive creator: %s", err)
	}
	klog.V(1).Infof("Candy machine %s: creator %s (bump %d)", cm, creator, bump)

	if flagFormat == keyfmt.FormatJSON {
		err = keyfmt.WriteJSON(c.OutOrStdout(), output{
			CandyMachine: flagFormat.Encode(cm.Key),
			Version:      cm.Version,
			Creator:      flagFormat.Encode(creator),
			Bump:         bump,
		})
	} else {
		_, err = fmt.Fprintln(c.OutOrStdout(), flagFormat.Encode(creator))
	}
	if err != nil {
		klog.Exitf("Failed to write output: %s", err)
	}
}
