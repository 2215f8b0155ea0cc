package handlers

import (
	"errors"
	"net/http"

	"github.com/akolanti/GoRAG/internal/adapter"
	"github.com/akolanti/GoRAG/internal/adapter/utils"
	"github.com/akolanti/GoRAG/internal/api"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/internal/job"
)

func isNotFound(err error) bool {
	return errors.Is(err, ragModel.ErrNotFound)
}

// PostProcessDocument godoc
// @Summary      Index one document
// @Description  Queues an index job for an approved document and returns its id. Re-processing an unchanged document is a no-op.
// @Tags         Indexing
// @Accept       json
// @Produce      json
// @Param        request  body      api.ProcessDocumentRequest  true  "Document id"
// @Success      202      {object}  api.InitJobResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      503      {object}  api.ErrorResponse  "Shutting down"
// @Security     BearerAuth
// @Router       /rag/process-document [post]
func (h *Handler) PostProcessDocument(w http.ResponseWriter, r *http.Request) {
	var req api.ProcessDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DocumentId <= 0 {
		WriteErrorResponse(w, r.Context(), http.StatusBadRequest, CodeValidation, "document_id must be a positive integer")
		return
	}
	h.enqueue(w, r, jobModel.JobTypeIndex, req.DocumentId)
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, jobType jobModel.JobType, documentId int64) {
	queued, err := h.jobs.Enqueue(r.Context(), jobType, documentId)
	if errors.Is(err, job.ErrShuttingDown) {
		WriteErrorResponse(w, r.Context(), http.StatusServiceUnavailable, CodeShuttingDown, err.Error())
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(queued.Id))
}

// PostProcessAllDocuments godoc
// @Summary      Sync the whole index
// @Description  Queues every approved document that is missing or stale and retracts indexed documents that are no longer approved. Returns right away with the counts.
// @Tags         Indexing
// @Produce      json
// @Success      202  {object}  api.ProcessAllResponse
// @Failure      503  {object}  api.ErrorResponse  "Document source or index unavailable"
// @Security     BearerAuth
// @Router       /rag/process-all-documents [post]
func (h *Handler) PostProcessAllDocuments(w http.ResponseWriter, r *http.Request) {
	queued, retracted, err := h.jobs.EnqueueAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusAccepted, api.ProcessAllResponse{Queued: queued, Retracted: retracted})
}

// GetIndexJob godoc
// @Summary      Index job status
// @Description  Retrieves the state of an index or retract job.
// @Tags         Indexing
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse
// @Failure      404  {object}  api.ErrorResponse  "Job not found"
// @Security     BearerAuth
// @Router       /rag/index-jobs/{id} [get]
func (h *Handler) GetIndexJob(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	result, isFound := h.jobs.GetJob(r.Context(), id)
	if !isFound {
		WriteErrorResponse(w, r.Context(), http.StatusNotFound, CodeNotFound, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToJobResponse(result))
}

// DeleteDocument godoc
// @Summary      Remove a document from the index
// @Description  Deletes every chunk of the document. Deleting a document that is not indexed succeeds.
// @Tags         Indexing
// @Produce      json
// @Param        id   path      int  true  "Document ID"
// @Success      200  {object}  api.ResultResponse
// @Failure      400  {object}  api.ErrorResponse
// @Failure      503  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /rag/documents/{id} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	documentId, ok := parseDocumentId(utils.GetChiURLParam(r, "id"))
	if !ok {
		WriteErrorResponse(w, r.Context(), http.StatusBadRequest, CodeValidation, "document id must be a positive integer")
		return
	}
	if err := h.retractor.RetractDocument(r.Context(), documentId); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.logger.WithContext(r.Context()).Info("Document removed from index", "documentId", documentId)
	writeJsonResponse(w, http.StatusOK, api.ResultResponse{Result: "success"})
}
