package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "herdsnap/internal/errors"
	"herdsnap/internal/models"
	"herdsnap/internal/pagination"
	"herdsnap/internal/services"
)

// DefaultMaxUploadBytes caps census uploads when no limit is configured.
const DefaultMaxUploadBytes int64 = 20 << 20

// SnapshotHandler handles census ingestion and snapshot lifecycle requests.
type SnapshotHandler struct {
	snapshotService services.SnapshotServicer
	ingestService   services.IngestServicer
	auditService    services.AuditServicer
	maxUploadBytes  int64
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(snapshotService services.SnapshotServicer, ingestService services.IngestServicer, auditService services.AuditServicer, maxUploadBytes int64) *SnapshotHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &SnapshotHandler{
		snapshotService: snapshotService,
		ingestService:   ingestService,
		auditService:    auditService,
		maxUploadBytes:  maxUploadBytes,
	}
}

// UploadSnapshotForm represents the non-file fields of a census upload.
type UploadSnapshotForm struct {
	Name         string `form:"name" binding:"required,not_blank,max=200"`
	SnapshotDate string `form:"snapshot_date" binding:"required,iso_date"`
}

// CreateSnapshotRequest represents a census submitted as JSON records keyed
// by canonical field names.
type CreateSnapshotRequest struct {
	Name         string           `json:"name" binding:"required,not_blank,max=200"`
	SnapshotDate string           `json:"snapshot_date" binding:"required,iso_date"`
	Records      []map[string]any `json:"records"`
}

// UploadSnapshot ingests a CSV or XLSX census file.
// @Summary     Upload a census
// @Description Parse, clean, validate and classify a census file and store it as a new snapshot
// @Tags        snapshots
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       name          formData string true "Snapshot name"
// @Param       snapshot_date formData string true "Census date (YYYY-MM-DD)"
// @Param       file          formData file   true "Census file (.csv or .xlsx)"
// @Success     201 {object} services.IngestResult "Snapshot created"
// @Failure     400 {object} ErrorResponse "Invalid input or unreadable census"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     413 {object} ErrorResponse "File too large"
// @Failure     422 {object} ErrorResponse "No valid rows, details carry the rejection report"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /snapshots/upload [post]
func (h *SnapshotHandler) UploadSnapshot(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondWithError(c, h.bodyError(err))
		return
	}

	var form UploadSnapshotForm
	if err := c.ShouldBind(&form); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	date, err := models.ParseDate(form.SnapshotDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid snapshot_date"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	result, err := h.ingestService.IngestFile(c.Request.Context(), services.FileUpload{
		SnapshotHeader: services.SnapshotHeader{OwnerID: userID, Name: strings.TrimSpace(form.Name), SnapshotDate: date},
		Filename:       fileHeader.Filename,
		ContentType:    fileHeader.Header.Get("Content-Type"),
		Content:        content,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.RecordIngestion(userID, c.ClientIP(), services.IngestSource{Filename: fileHeader.Filename}, result)

	c.JSON(http.StatusCreated, result)
}

// CreateSnapshot ingests a census submitted as JSON records.
// @Summary     Create a snapshot from records
// @Description Run JSON census records through the ingestion pipeline and store them as a new snapshot
// @Tags        snapshots
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateSnapshotRequest true "Snapshot header and records"
// @Success     201 {object} services.IngestResult "Snapshot created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     413 {object} ErrorResponse "Body too large"
// @Failure     422 {object} ErrorResponse "No valid rows"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /snapshots [post]
func (h *SnapshotHandler) CreateSnapshot(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	var req CreateSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, h.bodyError(err))
		return
	}
	date, err := models.ParseDate(req.SnapshotDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid snapshot_date"))
		return
	}

	result, err := h.ingestService.IngestRecords(c.Request.Context(),
		services.SnapshotHeader{OwnerID: userID, Name: strings.TrimSpace(req.Name), SnapshotDate: date},
		req.Records)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.RecordIngestion(userID, c.ClientIP(), services.IngestSource{Records: len(req.Records)}, result)

	c.JSON(http.StatusCreated, result)
}

// ListSnapshots handles the retrieval of the caller's snapshots.
// @Summary     List snapshots
// @Description Get a paginated, searchable list of the authenticated user's snapshots
// @Tags        snapshots
// @Produce     json
// @Security    BearerAuth
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Param       sort_by    query string false "name, snapshot_date, total_animals or created_at (default created_at desc)"
// @Param       sort_order query string false "asc or desc"
// @Param       search     query string false "Case-insensitive substring of the name"
// @Param       date_from  query string false "Earliest snapshot date (YYYY-MM-DD)"
// @Param       date_to    query string false "Latest snapshot date (YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.Snapshot] "Paginated snapshots"
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /snapshots [get]
func (h *SnapshotHandler) ListSnapshots(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseSnapshotFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.snapshotService.ListSnapshots(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSnapshot handles the retrieval of a single snapshot.
// @Summary     Get snapshot
// @Description Get one snapshot owned by the authenticated user
// @Tags        snapshots
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Snapshot ID"
// @Success     200 {object} models.Snapshot "Snapshot"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Snapshot not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /snapshots/{id} [get]
func (h *SnapshotHandler) GetSnapshot(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshot, err := h.snapshotService.GetSnapshot(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}

// DeleteSnapshot handles deleting a snapshot with all of its rows.
// @Summary     Delete snapshot
// @Description Delete a snapshot, its rows and its archived upload
// @Tags        snapshots
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Snapshot ID"
// @Success     200 {object} map[string]string "Snapshot deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Snapshot owned by another user"
// @Failure     404 {object} ErrorResponse "Snapshot not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /snapshots/{id} [delete]
func (h *SnapshotHandler) DeleteSnapshot(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshotID := c.Param("id")
	if err := h.snapshotService.DeleteSnapshot(c.Request.Context(), userID, snapshotID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.RecordDeletion(userID, c.ClientIP(), snapshotID)

	c.JSON(http.StatusOK, gin.H{"message": "Snapshot deleted successfully"})
}

// DownloadSnapshot streams the archived original upload.
// @Summary     Download original upload
// @Description Download the census file the snapshot was ingested from
// @Tags        snapshots
// @Produce     octet-stream
// @Security    BearerAuth
// @Param       id path string true "Snapshot ID"
// @Success     200 {file} file "Original census file"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Snapshot or archive not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /snapshots/{id}/download [get]
func (h *SnapshotHandler) DownloadSnapshot(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	archive, err := h.snapshotService.OpenArchive(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	defer archive.Body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": archive.Filename})
	c.DataFromReader(http.StatusOK, archive.Size, archive.ContentType, archive.Body,
		map[string]string{"Content-Disposition": disposition})
}

func parseSnapshotFilter(c *gin.Context) (services.SnapshotFilter, error) {
	filter := services.SnapshotFilter{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	var err error
	if filter.DateFrom, err = parseOptionalDate(c, "date_from"); err != nil {
		return filter, err
	}
	if filter.DateTo, err = parseOptionalDate(c, "date_to"); err != nil {
		return filter, err
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(filter.DateFrom.Time) {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "date_to must not be before date_from")
	}
	return filter, nil
}

// bodyError maps request body failures, reporting oversize bodies as 413.
func (h *SnapshotHandler) bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.WithMessage(apperrors.ErrPayloadTooLarge,
			fmt.Sprintf("upload exceeds the %d byte limit", h.maxUploadBytes))
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}
