package server

import (
	"bytes"
	"fmt"
	"net/http"

	"k8s.io/klog/v2"

	"github.com/leonardobora/eco-dashboard-renault/pkg/reporter"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := reporter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	eng := s.app.Engine()
	rep := reporter.New(format)
	report := rep.Generate(s.app.Current(), eng.Config(), eng.HourlyTrend(), eng.SectorBreakdown(s.sectors))

	// Render fully before writing headers
	var buf bytes.Buffer
	if err := rep.Write(report, &buf); err != nil {
		klog.ErrorS(err, "Failed to render export", "format", format)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", rep.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.Filename()))
	w.Write(buf.Bytes())
}
