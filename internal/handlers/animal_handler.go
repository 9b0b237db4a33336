package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "herdsnap/internal/errors"
	"herdsnap/internal/pagination"
	"herdsnap/internal/services"
)

// AnimalHandler serves the rows of a snapshot and their corral rollups.
type AnimalHandler struct {
	animalService services.AnimalQueryServicer
}

// NewAnimalHandler creates a new AnimalHandler.
func NewAnimalHandler(animalService services.AnimalQueryServicer) *AnimalHandler {
	return &AnimalHandler{animalService: animalService}
}

// ListAnimals handles the paginated listing of a snapshot's rows.
// @Summary     List animals
// @Description Get a paginated, searchable list of the animal rows of a snapshot. Snapshots owned by other users yield an empty page.
// @Tags        animals
// @Produce     json
// @Security    BearerAuth
// @Param       id         path  string true  "Snapshot ID"
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Param       sort_by    query string false "animal_number, group_name, milk_yesterday, milk_avg_7d, reproduction_status, days_in_milking or category"
// @Param       sort_order query string false "asc or desc"
// @Param       search     query string false "Case-insensitive substring of animal number, group or reproduction status"
// @Param       group      query string false "Exact group name"
// @Success     200 {object} pagination.PageResponse[models.AnimalRow] "Paginated rows"
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /snapshots/{id}/animals [get]
func (h *AnimalHandler) ListAnimals(c *gin.Context) {
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

	filter := services.RowFilter{
		Search:    c.Query("search"),
		Group:     c.Query("group"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	result, err := h.animalService.ListRows(userID, c.Param("id"), page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListCorrals handles the per-group rollup of a snapshot.
// @Summary     Corral rollup
// @Description Get animal counts and average milk per group, ordered by group name. Rows without a group are left out.
// @Tags        animals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Snapshot ID"
// @Success     200 {object} map[string][]models.CorralGroup "Corral groups"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /snapshots/{id}/corrals [get]
func (h *AnimalHandler) ListCorrals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groups, err := h.animalService.AggregateByGroup(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"corrals": groups})
}

// ListCorralAnimals handles listing every row of one group.
// @Summary     Animals in a corral
// @Description Get all rows of one group of a snapshot in insertion order
// @Tags        animals
// @Produce     json
// @Security    BearerAuth
// @Param       id    path string true "Snapshot ID"
// @Param       group path string true "Group name"
// @Success     200 {object} map[string][]models.AnimalRow "Rows of the group"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /snapshots/{id}/corrals/{group}/animals [get]
func (h *AnimalHandler) ListCorralAnimals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.animalService.ListGroupRows(userID, c.Param("id"), c.Param("group"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"animals": rows})
}
