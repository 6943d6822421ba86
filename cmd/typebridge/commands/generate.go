// Package commands implements the typebridge CLI subcommands.
package commands

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/typebridge/typebridge/config"
	"github.com/typebridge/typebridge/errors"
	"github.com/typebridge/typebridge/gen"
	"github.com/typebridge/typebridge/ir"
	"github.com/typebridge/typebridge/logger"
	"github.com/typebridge/typebridge/snapshot"
)

var (
	genSnapshot  string
	genConfig    string
	genOutput    string
	genLanguages []string
	genTargetOS  []string
	genMultiFile bool
)

// GenerateCmd runs one generation pass.
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate target-language types from an IR snapshot",
	Long: `Generate type declarations for every configured target language.

The snapshot is a JSON IR file produced by a source-language front end.
Generation is all-or-nothing per language: structural problems across the
whole snapshot are reported together and no files are written.

Examples:
  typebridge generate -s types.json                    # languages from typebridge.toml
  typebridge generate -s types.json -l typescript -l go
  typebridge generate -s - -o out/                     # snapshot from stdin`,
	RunE: runGenerate,
}

func init() {
	GenerateCmd.Flags().StringVarP(&genSnapshot, "snapshot", "s", "", "IR snapshot file, or - for stdin (required)")
	GenerateCmd.Flags().StringVarP(&genConfig, "config", "c", "", "Config file (default: typebridge.toml if present)")
	GenerateCmd.Flags().StringVarP(&genOutput, "output", "o", ".", "Output directory")
	GenerateCmd.Flags().StringSliceVarP(&genLanguages, "lang", "l", nil, "Target languages, overrides config")
	GenerateCmd.Flags().StringSliceVar(&genTargetOS, "target-os", nil, "Active OS tags for cfg filtering, overrides config")
	GenerateCmd.Flags().BoolVar(&genMultiFile, "multi-file", false, "One output file per source module, overrides config")
	_ = GenerateCmd.MarkFlagRequired("snapshot")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	snap, err := loadSnapshot(genSnapshot)
	if err != nil {
		return err
	}
	return generateAll(snap, cfg, genOutput)
}

// loadConfig loads the TOML config and applies flag overrides. An explicit
// --config path must exist; the default typebridge.toml is optional.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := genConfig
	if path == "" {
		if _, err := os.Stat("typebridge.toml"); err == nil {
			path = "typebridge.toml"
		}
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	if len(genLanguages) > 0 {
		cfg.Languages = genLanguages
	}
	if cmd.Flags().Changed("target-os") {
		cfg.TargetOS = genTargetOS
	}
	if cmd.Flags().Changed("multi-file") {
		cfg.MultiFile = genMultiFile
	}
	return cfg, nil
}

// loadSnapshot reads and decodes the IR snapshot from a file or stdin.
func loadSnapshot(path string) (*ir.Snapshot, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open snapshot %s", path)
		}
		defer f.Close()
		r = f
	}
	return snapshot.Decode(r)
}

// generateAll runs every configured language and writes the results. Output
// for a language is written only after its run fully succeeds.
func generateAll(snap *ir.Snapshot, cfg *config.Config, outputDir string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	for _, l := range cfg.Languages {
		target := ir.Lang(l)
		files, err := gen.Run(snap, cfg, target)
		if err != nil {
			return errors.Wrapf(err, "%s generation failed", target)
		}

		for _, f := range files {
			outPath := filepath.Join(outputDir, f.Path)
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return errors.Wrapf(err, "create output directory for %s", outPath)
			}
			if err := os.WriteFile(outPath, f.Content, 0o644); err != nil {
				return errors.Wrapf(err, "write %s", outPath)
			}
			logger.Infow("Generated", "language", target, "file", outPath, "bytes", len(f.Content))
		}
	}
	return nil
}
