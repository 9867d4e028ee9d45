package clustering

import (
	"fmt"

	"github.com/muesli/clusters"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/justestif/go-library-themes/internal/features"
)

// Standardize rescales every dimension to zero mean and unit variance.
// A constant dimension maps to zero.
func Standardize(vectors []features.Vector) ([]clusters.Coordinates, error) {
	if len(vectors) == 0 {
		return nil, nil
	}
	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("vector %d has %d dimensions, want %d", i, len(v), dims)
		}
	}

	out := make([]clusters.Coordinates, len(vectors))
	for i := range out {
		out[i] = make(clusters.Coordinates, dims)
	}

	column := make([]float64, len(vectors))
	for d := 0; d < dims; d++ {
		for i, v := range vectors {
			column[i] = v[d]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		for i := range vectors {
			if std == 0 {
				continue
			}
			out[i][d] = (column[i] - mean) / std
		}
	}
	return out, nil
}

func squaredDistance(a, b clusters.Coordinates) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}
