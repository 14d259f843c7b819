package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/popmap/internal/pipeline"
)

// WriteXLSX writes the dataset's attribute table (no geometry) and its join
// summary to a workbook at path.
func WriteXLSX(path string, ds *pipeline.Dataset) error {
	f := xlsx.NewFile()
	t := Flatten(ds)

	sheet, err := f.AddSheet("subareas")
	if err != nil {
		return eris.Wrap(err, "export: xlsx add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"city_town_key", "seq", "city", "sub_area", "matched"} {
		header.AddCell().SetString(h)
	}
	for _, h := range t.Fields {
		header.AddCell().SetString(h)
	}
	for _, h := range t.Columns {
		header.AddCell().SetString(h)
	}

	for _, r := range t.Rows {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Key.String())
		row.AddCell().SetInt(r.Seq)
		row.AddCell().SetString(r.City)
		row.AddCell().SetString(r.SubArea)
		row.AddCell().SetBool(r.Matched)
		for _, a := range r.Attrs {
			row.AddCell().SetString(a)
		}
		for _, v := range r.Values {
			c := row.AddCell()
			if v != nil {
				c.SetFloat(*v)
			}
		}
	}

	if err := writeSummarySheet(f, ds); err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: xlsx save %s", path)
	}
	return nil
}

func writeSummarySheet(f *xlsx.File, ds *pipeline.Dataset) error {
	sheet, err := f.AddSheet("summary")
	if err != nil {
		return eris.Wrap(err, "export: xlsx add summary sheet")
	}
	kv := func(k string, set func(*xlsx.Cell)) {
		row := sheet.AddRow()
		row.AddCell().SetString(k)
		set(row.AddCell())
	}
	s := ds.Summary
	kv("run_id", func(c *xlsx.Cell) { c.SetString(ds.RunID.String()) })
	kv("total_rows", func(c *xlsx.Cell) { c.SetInt(s.TotalRows) })
	kv("matched_rows", func(c *xlsx.Cell) { c.SetInt(s.MatchedRows) })
	kv("unmatched_rows", func(c *xlsx.Cell) { c.SetInt(s.UnmatchedRows) })
	for _, k := range s.UnmatchedKeys {
		kv("unmatched_key", func(c *xlsx.Cell) { c.SetString(k.String()) })
	}
	return nil
}
