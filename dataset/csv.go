package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/orbitalml/transit/pkg/errors"
)

// ReadCSV parses a catalog export into a Batch. Lines starting with '#'
// are metadata comments in NASA archive exports and are skipped. The first
// non-comment record is the header. Empty and non-numeric cells become NaN,
// with the raw text retained for categorical columns.
func ReadCSV(r io.Reader) (*Batch, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.WithStack(errors.ErrEmptyBatch)
	}
	if err != nil {
		return nil, errors.Wrap(err, "transit: reading csv header")
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "transit: reading csv rows")
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, errors.WithStack(errors.ErrEmptyBatch)
	}

	b := New(len(rows))
	for j, name := range header {
		if _, dup := b.index[name]; dup {
			return nil, errors.NewInputError("duplicate column name in csv header").WithColumns(name).Err()
		}
		nums := make([]float64, len(rows))
		var text []string
		for i, rec := range rows {
			cell := rec[j]
			if cell == "" {
				nums[i] = math.NaN()
				continue
			}
			if f, err := strconv.ParseFloat(cell, 64); err == nil {
				nums[i] = f
				continue
			}
			nums[i] = math.NaN()
			if text == nil {
				text = make([]string, len(rows))
			}
			text[i] = cell
		}
		b.cols = append(b.cols, column{name: name, nums: nums, text: text})
		b.index[name] = len(b.cols) - 1
	}
	return b, nil
}
