package main

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/orbitalml/transit/contract"
	"github.com/orbitalml/transit/dataset"
	"github.com/orbitalml/transit/pkg/errors"
	"github.com/orbitalml/transit/predictor"
	"github.com/orbitalml/transit/telemetry"
)

func newPredictCmd(a *app) *cobra.Command {
	var (
		variant string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "predict <catalog.csv>",
		Short: "Classify every row of a catalog CSV export",
		Long: `Reads a NASA archive CSV export (comment lines starting with '#' are
skipped), runs the full inference pipeline and writes the predictions as
JSON. The dataset variant is detected from the columns unless --variant
names one explicitly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := contract.ParseVariant(variant)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrapf(err, "transit: opening %s", args[0])
			}
			defer func() { _ = f.Close() }()

			batch, err := dataset.ReadCSV(f)
			if err != nil {
				return err
			}

			metrics := telemetry.New()
			if addr := a.settings.MetricsAddr; addr != "" {
				// Scrapeable during long batch runs.
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", promhttp.Handler())
					if err := http.ListenAndServe(addr, mux); err != nil {
						a.logger.Warn().Err(err).Str("addr", addr).Msg("metrics endpoint stopped")
					}
				}()
			}

			svc := predictor.New(a.store,
				predictor.WithLogger(a.logger),
				predictor.WithMetrics(metrics),
			)
			res, err := svc.PredictBatch(cmd.Context(), batch, v)
			if err != nil {
				return err
			}
			return writeResult(cmd, output, res)
		},
	}

	cmd.Flags().StringVarP(&variant, "variant", "v", "", "dataset variant: kepler, tess, tess-full (default: auto-detect)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write predictions to this file instead of stdout")
	return cmd
}

func writeResult(cmd *cobra.Command, path string, res *predictor.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return errors.Wrap(err, "transit: encoding result")
	}
	data = append(data, '\n')

	if path == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "transit: writing %s", path)
	}
	return nil
}
