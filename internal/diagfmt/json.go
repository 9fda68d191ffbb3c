package diagfmt

import (
	"encoding/json"
	"io"

	"zen/internal/diag"
	"zen/internal/source"
)

// jsonDiag is the wire shape of one diagnostic.
type jsonDiag struct {
	Severity string     `json:"severity"`
	Code     string     `json:"code"`
	Message  string     `json:"message"`
	Path     string     `json:"path,omitempty"`
	Line     uint32     `json:"line,omitempty"`
	Col      uint32     `json:"col,omitempty"`
	Notes    []jsonNote `json:"notes,omitempty"`
}

type jsonNote struct {
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Line    uint32 `json:"line,omitempty"`
	Col     uint32 `json:"col,omitempty"`
}

// JSON пишет диагностики единым массивом; формат стабилен для
// интеграции с редакторами.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	items := bag.Items()
	if opts.Max > 0 && len(items) > opts.Max {
		items = items[:opts.Max]
	}

	out := make([]jsonDiag, 0, len(items))
	for _, d := range items {
		jd := jsonDiag{
			Severity: d.Severity.String(),
			Code:     d.Code.String(),
			Message:  d.Message,
		}
		fillPos(&jd.Path, &jd.Line, &jd.Col, fs, d.Primary, opts)
		if opts.IncludeNotes {
			for _, n := range d.Notes {
				jn := jsonNote{Message: n.Msg}
				fillPos(&jn.Path, &jn.Line, &jn.Col, fs, n.Span, opts)
				jd.Notes = append(jd.Notes, jn)
			}
		}
		out = append(out, jd)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func fillPos(path *string, line, col *uint32, fs *source.FileSet, sp source.Span, opts JSONOpts) {
	if !opts.IncludePositions || fs == nil || int(sp.File) >= fs.Len() {
		return
	}
	*path = fs.Get(sp.File).Path
	start, _ := fs.Resolve(sp)
	*line = start.Line
	*col = start.Col
}
