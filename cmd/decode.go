package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kestrel-tools/xfiledump/internal/config"
	"github.com/kestrel-tools/xfiledump/internal/logger"
	"github.com/kestrel-tools/xfiledump/internal/xfile/assets"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/clipmap"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/destructible"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/font"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/fx"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/gameworld"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/gfxworld"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/menu"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/misc"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/sound"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/techset"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/weapon"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/xanim"
	_ "github.com/kestrel-tools/xfiledump/internal/xfile/assets/xmodel"
	"github.com/kestrel-tools/xfiledump/internal/xfile/container"
	"github.com/kestrel-tools/xfiledump/internal/xfile/decode"
	"github.com/kestrel-tools/xfiledump/internal/xfile/diag"
	"github.com/kestrel-tools/xfiledump/internal/xfile/inflate"
	"github.com/kestrel-tools/xfiledump/internal/xfile/stream"
)

// dirWorkers bounds the batch mode's concurrent file decodes. Each file's
// own Decode call remains single-threaded with itself; this only bounds how
// many files are in flight at once.
const dirWorkers = 8

var (
	decodeStrict   bool
	decodeJSON     bool
	decodeDumpKind string
	decodeDir      bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode <path>",
	Short: "Decode a Fastfile (XFile) container and report its asset list",
	Long: `decode opens the Fastfile at <path>, validates its header, inflates its
payload, and walks the asset list, printing a summary of every decoded asset
and any warnings raised along the way.

Under --strict, any warning (non-PC platform, unverified signature, trailing
bytes) is promoted to a fatal error - in practice a --strict run either exits
clean or fails outright; a plain run that finishes with warnings is the
signal that a follow-up --strict run on the same file would have failed.
An asset kind with no decoder stops the decode with an error in either mode.

With --dir, <path> is treated as a directory and every file in it is decoded
on a bounded worker pool; the reports are printed in filename order.`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeStrict, "strict", false, "promote warnings to fatal errors")
	decodeCmd.Flags().BoolVar(&decodeJSON, "json", false, "print the decode report as JSON")
	decodeCmd.Flags().StringVar(&decodeDumpKind, "dump-kind", "", "only report assets of this kind (e.g. material)")
	decodeCmd.Flags().BoolVar(&decodeDir, "dir", false, "treat <path> as a directory of Fastfiles")
}

// report is the --json output shape: the decoded assets (filtered by
// --dump-kind, if set), the combined container+dispatcher warning list, and
// the asset-list indices that produced at least one warning.
type report struct {
	Path                string         `json:"path,omitempty"`
	Platform            string         `json:"platform"`
	Signed              bool           `json:"signed"`
	Assets              []reportAsset  `json:"assets"`
	Warnings            []diag.Warning `json:"warnings"`
	FlaggedAssetIndices []int          `json:"flagged_asset_indices"`
}

type reportAsset struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

func runDecode(cmd *cobra.Command, args []string) error {
	if decodeDir {
		return runDecodeDir(cmd, args[0])
	}

	rpt, err := decodeOne(cmd, args[0])
	if err != nil {
		return err
	}
	return emitReport(rpt)
}

func runDecodeDir(cmd *cobra.Command, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory %s: %w", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}

	g, _ := errgroup.WithContext(cmd.Context())
	g.SetLimit(dirWorkers)

	reports := make([]report, len(paths))
	var mu sync.Mutex // guards logger.LogError only; reports writes are index-disjoint
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			rpt, err := decodeOne(cmd, p)
			if err != nil {
				mu.Lock()
				logger.LogError("decode failed", err, map[string]interface{}{"path": p})
				mu.Unlock()
				return nil
			}
			reports[i] = rpt
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })
	nonEmpty := reports[:0]
	for _, r := range reports {
		if r.Path != "" {
			nonEmpty = append(nonEmpty, r)
		}
	}
	return emitReportList(nonEmpty)
}

func decodeOne(cmd *cobra.Command, path string) (report, error) {
	f, err := os.Open(path)
	if err != nil {
		return report{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	containerDiag := diag.New(logger.Logger)
	cctx, err := container.Open(f, config.Instance.Decode.AllowNonPCPlatform, containerDiag)
	if err != nil {
		return report{}, err
	}
	if decodeStrict && len(containerDiag.Warnings()) > 0 {
		w := containerDiag.Warnings()[0]
		return report{}, fmt.Errorf("%s: %s: %s", w.Kind, w.Detail, path)
	}

	zr, err := inflate.NewReader(f)
	if err != nil {
		return report{}, err
	}
	defer zr.Close()

	s := stream.New(zr)
	result, err := decode.Decode(cmd.Context(), s, decode.Config{
		StrictUnknownKinds: decodeStrict,
		Log:                logger.Logger,
	})
	if err != nil {
		return report{}, err
	}

	var dumpKind assets.Kind
	filtering := decodeDumpKind != ""
	if filtering {
		k, ok := assets.KindFromName(decodeDumpKind)
		if !ok {
			return report{}, fmt.Errorf("unknown --dump-kind %q", decodeDumpKind)
		}
		dumpKind = k
	}

	rpt := report{
		Path:                path,
		Platform:            cctx.Platform.String(),
		Signed:              cctx.Signed,
		Warnings:            append(containerDiag.Warnings(), result.Warnings...),
		FlaggedAssetIndices: result.FlaggedAssetIndices,
	}
	for i, a := range result.Assets {
		if filtering && a.Kind != dumpKind {
			continue
		}
		rpt.Assets = append(rpt.Assets, reportAsset{Index: i, Kind: a.Kind.String(), Value: a.Value})
	}
	return rpt, nil
}

func emitReport(rpt report) error {
	if decodeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rpt)
	}
	printHumanReport(rpt)
	return nil
}

func emitReportList(reports []report) error {
	if decodeJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	for _, rpt := range reports {
		printHumanReport(rpt)
	}
	return nil
}

func printHumanReport(rpt report) {
	if rpt.Path != "" {
		fmt.Printf("%s:\n", rpt.Path)
	}
	fmt.Printf("platform: %s (signed: %t)\n", rpt.Platform, rpt.Signed)
	fmt.Printf("assets: %d\n", len(rpt.Assets))
	for _, a := range rpt.Assets {
		fmt.Printf("  [%d] %s\n", a.Index, a.Kind)
	}
	if len(rpt.Warnings) == 0 {
		fmt.Println("warnings: none")
		return
	}
	fmt.Printf("warnings: %d\n", len(rpt.Warnings))
	for _, w := range rpt.Warnings {
		fmt.Printf("  [asset %d] %s: %s\n", w.AssetIndex, w.Kind, w.Detail)
	}
}
