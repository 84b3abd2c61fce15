package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/orbitalml/transit/contract"
	"github.com/orbitalml/transit/pkg/errors"
)

// bundleInfo is the printable summary of a loaded bundle.
type bundleInfo struct {
	Variant        string    `json:"variant"`
	ModelVersion   string    `json:"model_version"`
	Features       int       `json:"features"`
	ClassNames     []string  `json:"class_names"`
	Weights        []float64 `json:"weights,omitempty"`
	Models         []string  `json:"models"`
	DegradedLabels bool      `json:"degraded_labels"`
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <variant>",
		Short: "Load a variant's artifact bundle and print its metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := contract.ParseVariant(args[0])
			if err != nil {
				return err
			}
			if v == contract.Auto {
				return errors.NewInputError("inspect needs a concrete variant").
					WithValues([]string{args[0]}, nil).Err()
			}

			bundle, err := a.store.Get(v)
			if err != nil {
				return err
			}

			info := bundleInfo{
				Variant:        v.String(),
				ModelVersion:   bundle.Meta.ModelVersion,
				Features:       len(bundle.Meta.FeatureOrder),
				ClassNames:     bundle.Meta.ClassNames,
				Weights:        bundle.Meta.Weights,
				DegradedLabels: bundle.Degraded(),
			}
			for _, m := range bundle.Models {
				info.Models = append(info.Models, m.Name)
			}

			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return errors.Wrap(err, "transit: encoding bundle info")
			}
			data = append(data, '\n')
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
