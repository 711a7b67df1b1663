package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"districtrisk/domain/core"
	"districtrisk/internal"
	"districtrisk/internal/risk"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleDownload(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	if format != "csv" && format != "xlsx" {
		respondError(c, core.NewInvalidArgumentError("format", fmt.Sprintf("unknown export format %q", format)))
		return
	}

	e := s.engine()
	population, err := statePopulation(c, e.Index())
	if err != nil {
		respondError(c, err)
		return
	}
	rows := e.Export(population)

	var buf bytes.Buffer
	contentType := "text/csv; charset=utf-8"
	if format == "xlsx" {
		contentType = xlsxContentType
		err = risk.WriteXLSX(&buf, rows, s.exportDecimals)
	} else {
		err = risk.WriteCSV(&buf, rows, s.exportDecimals)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("%s.%s", risk.ExportFilename, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) handleReload(c *gin.Context) {
	report, err := s.store.Reload(c.Request.Context())
	s.metrics.IncrementReload(err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	idx := s.store.Current()
	s.metrics.ObserveLoad(idx.Len(), idx.LoadedAt())
	internal.DefaultLogger.Info("[API] dataset reloaded from %s: %d accepted, %d rejected in %s",
		report.Source, report.Accepted, len(report.Rejected), report.Duration.Round(time.Millisecond))

	c.JSON(http.StatusOK, gin.H{
		"status": "reloaded",
		"report": report,
	})
}
