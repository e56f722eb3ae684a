package dataset

import (
	"archive/zip"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadCSVInfersKindsAndNormalizesNames(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "media.csv", strings.Join([]string{
		"Date, Sales ,TV Spend,Region,Flat",
		"2024-01-01,100,10,north,1",
		"2024-01-08,120,,south,1",
		"",
		"2024-01-15,130,30,north,1",
	}, "\n"))

	res, err := Load(p, DefaultOptions())
	require.NoError(t, err)
	ds := res.Data
	require.Equal(t, "media.csv", ds.Name)
	require.Equal(t, 3, ds.Len())
	require.Equal(t, []string{"sales", "tv_spend", "region", "flat"}, ds.Names())

	tv, err := ds.Numeric("tv_spend")
	require.NoError(t, err)
	require.Equal(t, 10.0, tv[0])
	require.True(t, math.IsNaN(tv[1]))

	region, err := ds.Column("region")
	require.NoError(t, err)
	require.Equal(t, Categorical, region.Kind)

	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "flat")
}

func TestLoadCSVLocaleAndLayout(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "eu.csv", "date;revenue\n01/02/2024;1.000,5\n08/02/2024;2.000,25\n")
	opt := DefaultOptions()
	opt.Delimiter = ';'
	opt.DateLayout = "02/01/2006"
	res, err := Load(p, opt)
	require.NoError(t, err)
	rev, err := res.Data.Numeric("revenue")
	require.NoError(t, err)
	require.Equal(t, []float64{1000.5, 2000.25}, rev)
	require.Equal(t, time.February, res.Data.Index()[0].Month())
}

func TestLoadCSVErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(writeFile(t, dir, "dup.csv", "date,a,A\n2024-01-01,1,2\n"), DefaultOptions())
	require.ErrorIs(t, err, errdefs.ErrInvalidState)

	_, err = Load(writeFile(t, dir, "baddate.csv", "date,a\nyesterday,1\n"), DefaultOptions())
	require.ErrorIs(t, err, errdefs.ErrInvalidState)

	_, err = Load(writeFile(t, dir, "order.csv", "date,a\n2024-01-08,1\n2024-01-01,2\n"), DefaultOptions())
	require.ErrorIs(t, err, errdefs.ErrInvalidState)

	_, err = Load(writeFile(t, dir, "notes.txt", "hello"), DefaultOptions())
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestLoadCSVMaxRows(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "long.csv", "date,a\n2024-01-01,1\n2024-01-02,2\n2024-01-03,3\n")
	opt := DefaultOptions()
	opt.MaxRows = 2
	res, err := Load(p, opt)
	require.NoError(t, err)
	require.Equal(t, 2, res.Data.Len())
	require.Contains(t, res.Warnings, "processed only 2/3 rows due to MaxRows")
}

func TestParseNumeric(t *testing.T) {
	cases := map[string]float64{
		"12":        12,
		"1,234.5":   1234.5,
		"1.234,5":   1234.5,
		"0,25":      0.25,
		"15%":       15,
		" 3 000.5 ": 3000.5,
		"-2e3":      -2000,
	}
	for in, want := range cases {
		got, ok := parseNumeric(in, Options{})
		require.True(t, ok, in)
		require.InDelta(t, want, got, 1e-12, in)
	}
	_, ok := parseNumeric("north", Options{})
	require.False(t, ok)
}

const (
	workbookXML = `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets><sheet name="Notes" sheetId="1" r:id="rId1"/><sheet name="Data" sheetId="2" r:id="rId2"/></sheets>
</workbook>`
	relsXML = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="worksheet" Target="/xl/worksheets/sheet2.xml"/>
</Relationships>`
	sharedXML = `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<si><t>Week</t></si><si><t>Sales</t></si><si><r><t>Radio </t></r><r><t>GRP</t></r></si><si><t>ignore me</t></si>
</sst>`
	notesSheet = `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>3</v></c></row>
</sheetData></worksheet>`
	dataSheet = `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c><c r="C1" t="s"><v>2</v></c></row>
<row r="2"><c r="A2"><v>45292</v></c><c r="B2"><v>100</v></c><c r="C2"><v>5</v></c></row>
<row r="3"><c r="A3"><v>45299</v></c><c r="B3"><v>110</v></c></row>
<row r="4"><c r="A4" t="inlineStr"><is><t>2024-01-15</t></is></c><c r="B4"><v>125.5</v></c><c r="C4"><v>7</v></c></row>
</sheetData></worksheet>`
)

func writeWorkbook(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for entry, body := range map[string]string{
		"xl/workbook.xml":            workbookXML,
		"xl/_rels/workbook.xml.rels": relsXML,
		"xl/sharedStrings.xml":       sharedXML,
		"xl/worksheets/sheet1.xml":   notesSheet,
		"xl/worksheets/sheet2.xml":   dataSheet,
	} {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func TestLoadXLSXBySheetNameAndIndex(t *testing.T) {
	p := writeWorkbook(t, t.TempDir(), "media.xlsx")

	opt := DefaultOptions()
	opt.SheetName = "data"
	byName, err := Load(p, opt)
	require.NoError(t, err)

	opt = DefaultOptions()
	opt.SheetIndex = 2
	byIndex, err := Load(p, opt)
	require.NoError(t, err)

	for _, res := range []*Result{byName, byIndex} {
		ds := res.Data
		require.Equal(t, []string{"sales", "radio_grp"}, ds.Names())
		require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ds.Index()[0])
		require.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), ds.Index()[2])
		sales, err := ds.Numeric("sales")
		require.NoError(t, err)
		require.Equal(t, []float64{100, 110, 125.5}, sales)
		radio, err := ds.Numeric("radio_grp")
		require.NoError(t, err)
		require.True(t, math.IsNaN(radio[1]))
	}

	opt = DefaultOptions()
	opt.SheetName = "Missing"
	_, err = Load(p, opt)
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
	require.Contains(t, err.Error(), "Notes, Data")
}

func TestNormalizeRelPath(t *testing.T) {
	cases := map[string]string{
		"/xl/worksheets/sheet1.xml": "xl/worksheets/sheet1.xml",
		"xl/worksheets/sheet1.xml":  "xl/worksheets/sheet1.xml",
		"/worksheets/sheet1.xml":    "xl/worksheets/sheet1.xml",
		"worksheets/sheet1.xml":     "xl/worksheets/sheet1.xml",
		"styles.xml":                "xl/styles.xml",
	}
	for in, want := range cases {
		require.Equal(t, want, normalizeRelPath(in), in)
	}
	require.Equal(t, 0, colIndexFromRef("A1"))
	require.Equal(t, 27, colIndexFromRef("AB9"))
}

func TestLoadFolderJoinsOnDate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_sales.csv", "date,sales\n2024-01-01,1\n2024-01-08,2\n")
	writeFile(t, dir, "b_media.csv", "date,tv\n2024-01-08,5\n2024-01-15,6\n")
	writeFile(t, dir, "~lock.csv", "garbage")
	writeFile(t, dir, "readme.txt", "ignored")

	res, err := Load(dir, DefaultOptions())
	require.NoError(t, err)
	ds := res.Data
	require.Equal(t, filepath.Base(dir), ds.Name)
	require.Len(t, res.Files, 2)
	require.Equal(t, 3, ds.Len())
	require.Equal(t, []string{"sales", "tv"}, ds.Names())

	tv, _ := ds.Numeric("tv")
	require.True(t, math.IsNaN(tv[0]))
	require.Equal(t, 5.0, tv[1])
	sales, _ := ds.Numeric("sales")
	require.True(t, math.IsNaN(sales[2]))

	_, err = LoadFolder(dir, FolderOptions{Options: DefaultOptions(), Weekday: "w-mon"})
	require.NoError(t, err)
	_, err = LoadFolder(dir, FolderOptions{Options: DefaultOptions(), Weekday: "w-sun"})
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
	_, err = LoadFolder(dir, FolderOptions{Options: DefaultOptions(), Weekday: "daily"})
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
}

func TestLoadFolderSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.csv", "date,sales\n2024-01-01,1\n")
	writeFile(t, dir, "bad.csv", "date,sales\nnot-a-date,1\n")
	res, err := LoadFolder(dir, FolderOptions{Options: DefaultOptions()})
	require.NoError(t, err)
	require.Equal(t, []string{"sales"}, res.Data.Names())
	require.NotEmpty(t, res.Warnings)
	require.Contains(t, res.Warnings[0], "skipped bad.csv")

	empty := t.TempDir()
	_, err = LoadFolder(empty, FolderOptions{Options: DefaultOptions()})
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
}

func TestConcatRejectsDuplicateColumns(t *testing.T) {
	a, _ := New(weeks(2))
	require.NoError(t, a.AddColumn(NewNumeric("x", []float64{1, 2})))
	b, _ := New(weeks(2))
	require.NoError(t, b.AddColumn(NewNumeric("x", []float64{3, 4})))
	_, err := Concat(a, b)
	require.ErrorIs(t, err, errdefs.ErrInvalidState)
}
