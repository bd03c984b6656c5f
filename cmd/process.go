package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/aggregate"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/engine"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/portfolio"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/store"
)

var (
	processManifest string
	processReported string
	processNoStore  bool
)

var processCmd = &cobra.Command{
	Use:   "process <payload-dir>",
	Short: "Process a directory of extracted invoice payloads",
	Long: "Reads extractor JSON payloads from a directory, normalizes and validates each " +
		"record, computes efficiency metrics, and rolls results up to monthly and " +
		"portfolio summaries. Payload files map to properties by filename prefix " +
		"(<property_id>_MM-YYYY.json) or an explicit manifest.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		lookup, err := portfolio.Load(cfg.Portfolio.Path, cfg.Portfolio.Sheet)
		if err != nil {
			return eris.Wrap(err, "process: load portfolio configuration")
		}

		payloads, err := collectPayloads(args[0], processManifest)
		if err != nil {
			return err
		}
		if len(payloads) == 0 {
			return eris.Errorf("process: no payload files in %s", args[0])
		}

		var reported []aggregate.ReportedTotal
		if processReported != "" {
			reported, err = loadReported(processReported)
			if err != nil {
				return err
			}
		}

		var st store.Store
		if !processNoStore {
			st, err = store.Open(ctx, cfg.Store)
			if err != nil {
				return eris.Wrap(err, "process: open store")
			}
			defer st.Close()
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "process: migrate store")
			}
		}

		eng, err := engine.New(cfg, st, lookup)
		if err != nil {
			return err
		}

		result, err := eng.Process(ctx, payloads, reported)
		if err != nil {
			return err
		}

		printSummary(cmd, result)
		return nil
	},
}

// collectPayloads reads every .json file in dir. The property a file belongs
// to is external configuration: a manifest entry wins, else the filename
// prefix before the first underscore.
func collectPayloads(dir, manifestPath string) ([]engine.RawPayload, error) {
	manifest := map[string]string{}
	if manifestPath != "" {
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			return nil, eris.Wrapf(err, "process: read manifest %s", manifestPath)
		}
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, eris.Wrapf(err, "process: parse manifest %s", manifestPath)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "process: read payload dir %s", dir)
	}

	var payloads []engine.RawPayload
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, eris.Wrapf(err, "process: read payload %s", entry.Name())
		}
		payloads = append(payloads, engine.RawPayload{
			SourceID:   entry.Name(),
			PropertyID: propertyFor(entry.Name(), manifest),
			Data:       data,
		})
	}
	return payloads, nil
}

func propertyFor(name string, manifest map[string]string) string {
	if id, ok := manifest[name]; ok {
		return id
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.Index(base, "_"); i > 0 {
		return base[:i]
	}
	return ""
}

func loadReported(path string) ([]aggregate.ReportedTotal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "process: read reported totals %s", path)
	}
	var file struct {
		Totals []aggregate.ReportedTotal `yaml:"totals"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "process: parse reported totals %s", path)
	}
	return file.Totals, nil
}

func printSummary(cmd *cobra.Command, result *model.RunResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processed %d records (%d skipped) in %dms\n",
		result.RecordCount, len(result.Skipped), result.DurationMS)
	fmt.Fprintf(out, "  auto_accept: %d\n", len(result.Buckets[model.TierAutoAccept]))
	fmt.Fprintf(out, "  review:      %d\n", len(result.Buckets[model.TierReview]))
	fmt.Fprintf(out, "  manual:      %d\n", len(result.Buckets[model.TierManual]))
	if len(result.Discrepant) > 0 {
		fmt.Fprintf(out, "  reconciliation discrepancies: %d\n", len(result.Discrepant))
	}
	if p := result.Portfolio; p != nil {
		if p.AvgYPD.Available {
			fmt.Fprintf(out, "  portfolio avg yards/door: %.2f\n", p.AvgYPD.Value)
		}
		if p.AvgCPD.Available {
			fmt.Fprintf(out, "  portfolio avg cost/door:  %.2f\n", p.AvgCPD.Value)
		}
		if p.ExcludedMissing > 0 {
			zap.L().Warn("properties excluded from portfolio averages",
				zap.Int("excluded", p.ExcludedMissing))
		}
	}
}

func init() {
	processCmd.Flags().StringVar(&processManifest, "manifest", "", "YAML file mapping payload filenames to property IDs")
	processCmd.Flags().StringVar(&processReported, "reported", "", "YAML file of independently reported monthly totals for reconciliation")
	processCmd.Flags().BoolVar(&processNoStore, "no-store", false, "skip run persistence")
	rootCmd.AddCommand(processCmd)
}
