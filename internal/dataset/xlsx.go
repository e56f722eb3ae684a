package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/epsilon-cli/internal/errdefs"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(p string) bool { return strings.HasSuffix(strings.ToLower(p), ".xlsx") }

func (xlsxLoader) Load(p string, opt Options) (*Result, error) { return LoadXLSX(p, opt) }

// LoadXLSX reads the selected sheet of a workbook. The first column holds
// dates, either as text or as Excel serial day numbers.
func LoadXLSX(p string, opt Options) (*Result, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	wb, err := openWorkbook(b)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", filepath.Base(p), err)
	}
	target, err := wb.sheetPath(opt.SheetName, opt.SheetIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
	}
	data := wb.file(target)
	if data == nil {
		return nil, errdefs.InvalidState(filepath.Base(p), "worksheet %s missing from archive", target)
	}

	rows := newSheetRowReader(data, wb.shared)
	header, ok := rows.Next()
	if !ok {
		return nil, errdefs.InvalidState(filepath.Base(p), "sheet is empty")
	}
	var records [][]string
	for {
		rec, ok := rows.Next()
		if !ok {
			break
		}
		records = append(records, rec)
	}
	res, err := fromRecords(filepath.Base(p), header, records, opt, parseIndexXLSX)
	if err != nil {
		return nil, err
	}
	res.Files = []string{p}
	return res, nil
}

// excelEpoch is day zero of the 1900 date system as Excel counts it.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

func parseIndexXLSX(s string, layout string) (time.Time, bool) {
	if t, ok := parseIndexCell(s, layout); ok {
		return t, true
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial <= 0 || math.IsInf(serial, 0) {
		return time.Time{}, false
	}
	days := math.Floor(serial)
	secs := math.Round((serial - days) * 86400)
	return excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second), true
}

type workbook struct {
	zr     *zip.Reader
	sheets []wbSheet
	rels   map[string]string
	shared []string
}

type wbSheet struct {
	Name    string `xml:"name,attr"`
	SheetID int    `xml:"sheetId,attr"`
	RID     string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

func openWorkbook(b []byte) (*workbook, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, err
	}
	wb := &workbook{zr: zr, rels: map[string]string{}}

	var doc struct {
		Sheets []wbSheet `xml:"sheets>sheet"`
	}
	if data := wb.file("xl/workbook.xml"); data != nil {
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("workbook.xml: %w", err)
		}
	}
	wb.sheets = doc.Sheets

	var rels struct {
		Items []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	if data := wb.file("xl/_rels/workbook.xml.rels"); data != nil {
		if err := xml.Unmarshal(data, &rels); err != nil {
			return nil, fmt.Errorf("workbook rels: %w", err)
		}
	}
	for _, r := range rels.Items {
		if r.ID != "" && r.Target != "" {
			wb.rels[r.ID] = r.Target
		}
	}

	wb.shared = parseSharedStrings(wb.file("xl/sharedStrings.xml"))
	return wb, nil
}

func (wb *workbook) file(name string) []byte {
	for _, f := range wb.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil
		}
		return b
	}
	return nil
}

// sheetPath resolves a sheet by name, else by 1-based sheetId.
func (wb *workbook) sheetPath(name string, index int) (string, error) {
	if name != "" {
		var names []string
		for _, s := range wb.sheets {
			if strings.EqualFold(s.Name, name) {
				if rel, ok := wb.rels[s.RID]; ok {
					return normalizeRelPath(rel), nil
				}
			}
			names = append(names, s.Name)
		}
		return "", errdefs.InvalidState("sheet", "%q not found; available sheets: %s", name, strings.Join(names, ", "))
	}
	if index <= 0 {
		index = 1
	}
	for _, s := range wb.sheets {
		if s.SheetID == index {
			if rel, ok := wb.rels[s.RID]; ok {
				return normalizeRelPath(rel), nil
			}
		}
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", index), nil
}

// normalizeRelPath maps a relationship target onto its ZIP entry name.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	var doc struct {
		Items []struct {
			T    string `xml:"t"`
			Runs []struct {
				T string `xml:"t"`
			} `xml:"r"`
		} `xml:"si"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil
	}
	out := make([]string, len(doc.Items))
	for i, si := range doc.Items {
		if len(si.Runs) == 0 {
			out[i] = si.T
			continue
		}
		var sb strings.Builder
		sb.WriteString(si.T)
		for _, r := range si.Runs {
			sb.WriteString(r.T)
		}
		out[i] = sb.String()
	}
	return out
}

// sheetRowReader streams <row> elements out of a worksheet, placing each
// cell by its reference so sparse rows keep their column positions.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

type xlsxCell struct {
	Ref    string `xml:"r,attr"`
	Type   string `xml:"t,attr"`
	Value  string `xml:"v"`
	Inline string `xml:"is>t"`
}

func (r *sheetRowReader) Next() ([]string, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}
		var row struct {
			Cells []xlsxCell `xml:"c"`
		}
		if err := r.dec.DecodeElement(&row, &se); err != nil {
			return nil, false
		}
		var out []string
		for i, c := range row.Cells {
			col := i
			if c.Ref != "" {
				col = colIndexFromRef(c.Ref)
			}
			if col < 0 {
				continue
			}
			for len(out) <= col {
				out = append(out, "")
			}
			out[col] = r.cellText(c)
		}
		return out, true
	}
}

func (r *sheetRowReader) cellText(c xlsxCell) string {
	switch c.Type {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil || idx < 0 || idx >= len(r.shared) {
			return ""
		}
		return r.shared[idx]
	case "inlineStr":
		return c.Inline
	default:
		return c.Value
	}
}

// colIndexFromRef turns "C12" into 2.
func colIndexFromRef(ref string) int {
	idx := 0
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
	}
	return idx - 1
}
