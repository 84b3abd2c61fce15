// Package transit classifies exoplanet transit-signal candidates from
// Kepler and TESS catalog exports with a three-model gradient-boosted
// ensemble (CatBoost, XGBoost, LightGBM), reproducing the training-time
// preprocessing exactly: frozen feature contracts, per-batch
// winsorization, KNN imputation and fitted categorical encoders.
//
// # Pipeline
//
// A prediction batch flows through five stages:
//
//	normalize -> engineer -> impute -> infer -> decode
//
// The normalize stage validates the input against the dataset variant's
// raw column contract (auto-detecting the variant from column names when
// not specified), the engineer stage derives the variant's engineered
// feature set, the impute stage fills missing values with the fitted KNN
// imputer, the infer stage blends the three forests with the metadata
// weights, and the decode stage maps class indices to disposition labels.
// Batches are atomic: any stage failure rejects the whole batch.
//
// # Quick Start
//
//	store := artifact.NewStore("artifacts", logger)
//	svc := predictor.New(store, predictor.WithLogger(logger))
//
//	res, err := svc.Predict(ctx, predictor.Request{
//	    Records: []map[string]any{{
//	        "pl_orbper": 3.5, "pl_rade": 1.8, // ... remaining TESS columns
//	    }},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Predictions[0].Label, res.Predictions[0].Percentage)
//
// The transit CLI under cmd/transit wraps the same service for catalog
// CSV files.
package transit
