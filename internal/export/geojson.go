package export

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/popmap/internal/mapview"
	"github.com/sells-group/popmap/internal/pipeline"
)

// WriteGeoJSON writes the dataset as a GeoJSON FeatureCollection.
func WriteGeoJSON(w io.Writer, ds *pipeline.Dataset) error {
	fc, err := mapview.FeatureCollection(ds.Records, ds.Columns)
	if err != nil {
		return eris.Wrap(err, "export: build features")
	}
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	return nil
}
