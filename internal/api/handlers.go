// handlers.go - HTTP handlers for captures, form records and submissions

package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bosocmputer/fleet_capture_ocr/internal/ai"
	"github.com/bosocmputer/fleet_capture_ocr/internal/common"
	"github.com/bosocmputer/fleet_capture_ocr/internal/form"
	"github.com/bosocmputer/fleet_capture_ocr/internal/processor"
	"github.com/bosocmputer/fleet_capture_ocr/internal/submission"
	"github.com/gin-gonic/gin"
)

// CaptureRequest carries one photo as a data URL, with the field kind for single-field captures
type CaptureRequest struct {
	Image string `json:"image" form:"image"`
	Kind  string `json:"kind" form:"kind"`
}

// CreateRecordRequest creates an empty form
type CreateRecordRequest struct {
	Type string `json:"type"`
}

// UpdateRecordRequest carries driver edits. Present keys overwrite, "" clears.
type UpdateRecordRequest struct {
	Fields map[string]string `json:"fields"`
}

// SubmitKmRequest is the stateless km submission body
type SubmitKmRequest struct {
	Kilometer string `json:"kilometer"`
	LicenseID string `json:"licenseid"`
}

var kindFields = map[ai.FieldKind]string{
	ai.FieldVehicle:   form.FieldVehicleNumber,
	ai.FieldKilometer: form.FieldKilometer,
}

// HealthHandler reports liveness
func (s *Server) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "fleet-capture-ocr",
		"version": "1.0.0",
	})
}

// begin creates the request context, bounded by the capture timeout
func (s *Server) begin(c *gin.Context, recordID string) (context.Context, *common.RequestContext, context.CancelFunc) {
	reqCtx := common.NewRequestContext(recordID)
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.RequestTimeout)
	return common.WithRequestContext(ctx, reqCtx), reqCtx, cancel
}

// credential takes the bearer token from the request, falling back to the configured key
func (s *Server) credential(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return s.DefaultCredential
}

// readCapture accepts either JSON {image, kind} or a multipart upload with an "image" file
func (s *Server) readCapture(c *gin.Context, reqCtx *common.RequestContext) (*CaptureRequest, error) {
	var req CaptureRequest

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		req.Kind = c.PostForm("kind")

		fileHeader, err := c.FormFile("image")
		if err != nil {
			return nil, fmt.Errorf("image file is required: %w", err)
		}
		if fileHeader.Size > s.MaxUploadBytes {
			return nil, fmt.Errorf("image exceeds %d bytes", s.MaxUploadBytes)
		}

		file, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload: %w", err)
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, s.MaxUploadBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		req.Image, err = processor.DataURLFromUpload(data)
		if err != nil {
			return nil, err
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}

	if strings.TrimSpace(req.Image) == "" {
		return nil, fmt.Errorf("image is required")
	}

	if s.Preprocess != nil {
		reqCtx.StartStep("decode_image")
		processed, err := processor.PreprocessDataURL(req.Image, *s.Preprocess)
		if err != nil {
			reqCtx.EndStep("skipped", nil, nil)
			reqCtx.LogWarning("Preprocessing failed, sending original image: %v", err)
		} else {
			reqCtx.EndStep("success", nil, nil)
			req.Image = processed
		}
	}

	return &req, nil
}

func stepStatus(err error) string {
	if err != nil {
		return "failed"
	}
	return "success"
}

func badRequest(c *gin.Context, reqCtx *common.RequestContext, err error) {
	reqCtx.LogWarning("Bad request: %v", err)
	c.JSON(http.StatusBadRequest, gin.H{
		"error":      "invalid_request",
		"message":    err.Error(),
		"request_id": reqCtx.RequestID,
	})
}

func busy(c *gin.Context, reqCtx *common.RequestContext, group string) {
	c.JSON(http.StatusConflict, gin.H{
		"error":      "capture_in_progress",
		"message":    fmt.Sprintf("A %s capture is already being processed for this record", group),
		"request_id": reqCtx.RequestID,
	})
}

// ExtractHandler reads one value off a photo without touching any record
func (s *Server) ExtractHandler(c *gin.Context) {
	ctx, reqCtx, cancel := s.begin(c, "")
	defer cancel()

	req, err := s.readCapture(c, reqCtx)
	if err != nil {
		badRequest(c, reqCtx, err)
		return
	}

	kind, err := ai.ParseFieldKind(req.Kind)
	if err != nil {
		writeError(c, reqCtx, err)
		return
	}

	value, err := s.Extractor.Extract(ctx, req.Image, kind, s.credential(c))
	if err != nil {
		writeError(c, reqCtx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":       kind,
		"value":      value,
		"request_id": reqCtx.RequestID,
		"summary":    reqCtx.GetSummary(),
	})
}

// ParseDocumentHandler reads every schema field off a document photo without touching any record
func (s *Server) ParseDocumentHandler(c *gin.Context) {
	ctx, reqCtx, cancel := s.begin(c, "")
	defer cancel()

	req, err := s.readCapture(c, reqCtx)
	if err != nil {
		badRequest(c, reqCtx, err)
		return
	}

	result, err := s.Parser.Parse(ctx, req.Image, s.credential(c), s.Schema)
	if err != nil {
		writeError(c, reqCtx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fields":     result.Fields(),
		"parsed":     result.Parsed,
		"unknown":    result.Unknown(),
		"request_id": reqCtx.RequestID,
		"summary":    reqCtx.GetSummary(),
	})
}

// CreateRecordHandler creates an empty km report or delivery document form
func (s *Server) CreateRecordHandler(c *gin.Context) {
	reqCtx := common.NewRequestContext("")

	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, reqCtx, err)
		return
	}

	recordType, err := form.ParseRecordType(req.Type)
	if err != nil {
		writeError(c, reqCtx, err)
		return
	}

	fieldNames := form.KmReportFields()
	if recordType == form.TypeDeliveryDocument {
		fieldNames = s.Schema.Names()
	}
	record := form.NewRecord(recordType, fieldNames)

	if err := s.Repository.Create(c.Request.Context(), record); err != nil {
		writeError(c, reqCtx, err)
		return
	}

	reqCtx.LogInfo("Created %s record %s", record.Type, record.ID)
	c.JSON(http.StatusCreated, record)
}

// GetRecordHandler returns the current state of a record
func (s *Server) GetRecordHandler(c *gin.Context) {
	reqCtx := common.NewRequestContext(c.Param("id"))

	record, err := s.Repository.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, reqCtx, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// UpdateRecordHandler applies driver edits to a record
func (s *Server) UpdateRecordHandler(c *gin.Context) {
	id := c.Param("id")
	reqCtx := common.NewRequestContext(id)

	var req UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, reqCtx, err)
		return
	}

	record, err := s.Repository.Update(c.Request.Context(), id, func(r *form.Record) error {
		r.Merge(req.Fields)
		return nil
	})
	if err != nil {
		writeError(c, reqCtx, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ExtractIntoRecordHandler reads a plate or odometer photo into a km report record
func (s *Server) ExtractIntoRecordHandler(c *gin.Context) {
	id := c.Param("id")
	ctx, reqCtx, cancel := s.begin(c, id)
	defer cancel()

	req, err := s.readCapture(c, reqCtx)
	if err != nil {
		badRequest(c, reqCtx, err)
		return
	}

	kind, err := ai.ParseFieldKind(req.Kind)
	if err != nil {
		writeError(c, reqCtx, err)
		return
	}

	record, err := s.Repository.Get(ctx, id)
	if err != nil {
		writeError(c, reqCtx, err)
		return
	}
	if record.Type != form.TypeKmReport {
		badRequest(c, reqCtx, fmt.Errorf("%s records do not take %s captures", record.Type, kind))
		return
	}

	group := string(kind)
	release, ok := s.guard.TryAcquire(id, group)
	if !ok {
		busy(c, reqCtx, group)
		return
	}
	defer release()

	value, err := s.Extractor.Extract(ctx, req.Image, kind, s.credential(c))
	if err != nil {
		writeError(c, reqCtx, err)
		return
	}

	reqCtx.StartStep("merge_record")
	field := kindFields[kind]
	record, err = s.Repository.Update(ctx, id, func(r *form.Record) error {
		r.Merge(map[string]string{field: value})
		return nil
	})
	if err != nil {
		reqCtx.EndStep("failed", nil, err)
		writeError(c, reqCtx, err)
		return
	}
	reqCtx.EndStep("success", nil, nil)

	c.JSON(http.StatusOK, gin.H{
		"record":     record,
		"field":      field,
		"value":      value,
		"request_id": reqCtx.RequestID,
		"summary":    reqCtx.GetSummary(),
	})
}

// ParseIntoRecordHandler reads a delivery document photo into a delivery document record.
// A reply that cannot be parsed leaves the record untouched.
func (s *Server) ParseIntoRecordHandler(c *gin.Context) {
	id := c.Param("id")
	ctx, reqCtx, cancel := s.begin(c, id)
	defer cancel()

	req, err := s.readCapture(c, reqCtx)
	if err != nil {
		badRequest(c, reqCtx, err)
		return
	}

	record, err := s.Repository.Get(ctx, id)
	if err != nil {
		writeError(c, reqCtx, err)
		return
	}
	if record.Type != form.TypeDeliveryDocument {
		badRequest(c, reqCtx, fmt.Errorf("%s records do not take document captures", record.Type))
		return
	}

	release, ok := s.guard.TryAcquire(id, form.GroupDocument)
	if !ok {
		busy(c, reqCtx, form.GroupDocument)
		return
	}
	defer release()

	result, err := s.Parser.Parse(ctx, req.Image, s.credential(c), s.Schema)
	if err != nil {
		writeError(c, reqCtx, err)
		return
	}

	reqCtx.StartStep("merge_record")
	var changed []string
	record, err = s.Repository.Update(ctx, id, func(r *form.Record) error {
		changed = r.Merge(result.Parsed)
		return nil
	})
	if err != nil {
		reqCtx.EndStep("failed", nil, err)
		writeError(c, reqCtx, err)
		return
	}
	reqCtx.EndStep("success", nil, nil)

	c.JSON(http.StatusOK, gin.H{
		"record":     record,
		"changed":    changed,
		"unknown":    result.Unknown(),
		"request_id": reqCtx.RequestID,
		"summary":    reqCtx.GetSummary(),
	})
}

// SubmitRecordHandler sends a km report and resets the form, or registers a delivery document
func (s *Server) SubmitRecordHandler(c *gin.Context) {
	id := c.Param("id")
	ctx, reqCtx, cancel := s.begin(c, id)
	defer cancel()

	record, err := s.Repository.Get(ctx, id)
	if err != nil {
		writeError(c, reqCtx, err)
		return
	}

	switch record.Type {
	case form.TypeKmReport:
		req := submission.SubmitRequest{
			Kilometer: record.Fields[form.FieldKilometer],
			LicenseID: record.Fields[form.FieldVehicleNumber],
		}

		reqCtx.StartStep("submit_km")
		if err := s.Submitter.Submit(ctx, req); err != nil {
			reqCtx.EndStep("failed", nil, err)
			writeError(c, reqCtx, err)
			return
		}
		reqCtx.EndStep("success", nil, nil)

		record, err = s.Repository.Update(ctx, id, func(r *form.Record) error {
			r.LastSubmission = &form.Submission{
				VehicleNumber: req.LicenseID,
				Kilometer:     req.Kilometer,
				SentAt:        time.Now(),
			}
			r.Reset()
			return nil
		})

	case form.TypeDeliveryDocument:
		reqCtx.StartStep("register_document")
		record, err = s.Repository.Update(ctx, id, func(r *form.Record) error {
			r.Status = form.StatusRegistered
			return nil
		})
		reqCtx.EndStep(stepStatus(err), nil, err)
	}

	if err != nil {
		writeError(c, reqCtx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"record":     record,
		"request_id": reqCtx.RequestID,
	})
}

// SubmitKmHandler sends a km report without a stored record
func (s *Server) SubmitKmHandler(c *gin.Context) {
	ctx, reqCtx, cancel := s.begin(c, "")
	defer cancel()

	var req SubmitKmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, reqCtx, err)
		return
	}

	reqCtx.StartStep("submit_km")
	err := s.Submitter.Submit(ctx, submission.SubmitRequest{Kilometer: req.Kilometer, LicenseID: req.LicenseID})
	reqCtx.EndStep(stepStatus(err), nil, err)
	if err != nil {
		writeError(c, reqCtx, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "sent",
		"request_id": reqCtx.RequestID,
	})
}
