package mints

import (
	"errors"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.firedancer.io/solcandy/cmd/solcandy/rpcflags"
	"go.firedancer.io/solcandy/pkg/candy"
	"go.firedancer.io/solcandy/pkg/discovery"
	"go.firedancer.io/solcandy/pkg/keyfmt"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:   "mints <candy-machine>",
	Short: "List mints distributed by a candy machine",
	Long: "Finds every token minted by a candy machine by querying the Token Metadata\n" +
		"program for accounts whose first creator is the candy machine's creator authority.\n" +
		"\n" +
		"v1 machines are their own creator; v2 machines sign through a PDA of the v2 program.",
	Args: cobra.ExactArgs(1),
}

var flags = Cmd.Flags()

var (
	flagVersion      = candy.V2
	flagFormat       = keyfmt.FormatJSON
	flagRPC          = rpcflags.Register(flags)
	flagOut          = flags.StringP("out", "o", "", "Write output to file instead of stdout")
	flagWithMetadata = flags.Bool("with-metadata", false, "Fetch and decode whole metadata accounts instead of mint keys only (JSON output only)")
)

func init() {
	flags.VarP(&flagVersion, "candy-version", "c", "Candy machine version (1, 2)")
	flags.VarP(&flagFormat, "format", "f", "Output format of mint keys (json, lines, hex)")
	Cmd.Run = run
}

var errFormatWithMetadata = errors.New("--with-metadata only supports --format=json")

func checkFlags() error {
	if *flagWithMetadata && flagFormat != keyfmt.FormatJSON {
		return errFormatWithMetadata
	}
	return nil
}

func run(c *cobra.Command, args []string) {
	start := time.Now()

	if err := checkFlags(); err != nil {
		klog.Exitf("Invalid flags: %s", err)
	}

	key, err := keyfmt.ParseKey(args[0])
	if err != nil {
		klog.Exitf("Invalid candy machine: %s", err)
	}
	cm := candy.New(key, flagVersion)

	client, err := flagRPC.Client()
	if err != nil {
		klog.Exitf("Invalid RPC flags: %s", err)
	}
	defer client.Close()
	klog.V(1).Infof("Querying %s for mints of candy machine %s", flagRPC.Endpoint(), cm)

	out, closeOut, err := keyfmt.OpenOutput(*flagOut)
	if err != nil {
		klog.Exitf("Failed to open output: %s", err)
	}
	defer closeOut()

	var found int
	if *flagWithMetadata {
		records, err := discovery.ListRecords(c.Context(), client, cm)
		if err != nil {
			klog.Exitf("Failed to list metadata of candy machine %s: %s", cm, err)
		}
		found = len(records)
		err = keyfmt.WriteJSON(out, records)
		if err != nil {
			klog.Exitf("Failed to write output: %s", err)
		}
	} else {
		keys, err := discovery.ListMintKeys(c.Context(), client, cm)
		if err != nil {
			klog.Exitf("Failed to list mints of candy machine %s: %s", cm, err)
		}
		found = len(keys)
		err = keyfmt.WriteKeys(out, flagFormat, keys)
		if err != nil {
			klog.Exitf("Failed to write output: %s", err)
		}
	}
	klog.Infof("Found %s mints of candy machine %s in %s", humanize.Comma(int64(found)), cm, time.Since(start).Round(time.Millisecond))
}
