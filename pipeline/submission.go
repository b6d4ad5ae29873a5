package pipeline

import (
	"encoding/csv"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/shunkawai/amesboost/pkg/errors"
)

// WriteSubmission writes the competition submission CSV (Id, SalePrice) for
// the test split predictions.
func (p *Pipeline) WriteSubmission(path string, preds *mat.VecDense) error {
	ids, err := p.Test.Floats(idColumn)
	if err != nil {
		return errors.Wrap(err, "pipeline: submission ids")
	}
	if len(ids) != preds.Len() {
		return errors.NewDimensionError("WriteSubmission", len(ids), preds.Len(), 0)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "pipeline: failed to create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{idColumn, targetColumn}); err != nil {
		return errors.Wrap(err, "pipeline: submission header")
	}
	for i, id := range ids {
		record := []string{
			strconv.FormatInt(int64(id), 10),
			strconv.FormatFloat(preds.AtVec(i), 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return errors.Wrapf(err, "pipeline: submission row %d", i)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "pipeline: flushing submission")
	}

	p.logger.Info("submission written", "path", path, "rows", len(ids))
	return nil
}
