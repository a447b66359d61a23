package presentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/apsdehal/go-logger"
	"github.com/shopspring/decimal"
	"github.com/trakkie-id/paymentrails/apperrors"
	"github.com/trakkie-id/paymentrails/model"
	"github.com/trakkie-id/paymentrails/usecase"
)

// Pipeline bundles one scheme's use case handles.
type Pipeline struct {
	CreateTransaction  *usecase.CreateTransactionUseCase
	ProcessTransaction *usecase.ProcessTransactionUseCase
	ProcessBatch       *usecase.ProcessBatchUseCase
	Reconcile          *usecase.ReconcileTransactionUseCase
	TransactionQueries *usecase.TransactionQueryUseCase
	BatchQueries       *usecase.BatchQueryUseCase
}

// APIHandlers is a thin operator surface over the use cases. All business
// decisions live below it.
type APIHandlers struct {
	pipelines map[model.Scheme]*Pipeline
	logger    *logger.Logger
}

func NewAPIHandlers(neft *Pipeline, rtgs *Pipeline, log *logger.Logger) *APIHandlers {
	return &APIHandlers{
		pipelines: map[model.Scheme]*Pipeline{
			model.SCHEME_NEFT: neft,
			model.SCHEME_RTGS: rtgs,
		},
		logger: log,
	}
}

func (h *APIHandlers) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/transactions", h.handleTransactions)
	mux.HandleFunc("/transactions/process", h.handleProcessTransaction)
	mux.HandleFunc("/transactions/reconcile", h.handleReconcileTransaction)
	mux.HandleFunc("/batches", h.handleBatches)
	mux.HandleFunc("/batches/process", h.handleProcessBatch)
	return MetricsMiddleware(mux)
}

func (h *APIHandlers) pipeline(w http.ResponseWriter, r *http.Request) *Pipeline {
	scheme := model.Scheme(r.URL.Query().Get("scheme"))
	p, ok := h.pipelines[scheme]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown scheme, expected NEFT or RTGS")
		return nil
	}
	return p
}

type createTransactionRequest struct {
	Scheme               model.Scheme         `json:"scheme"`
	TransactionReference string               `json:"transaction_reference"`
	CustomerID           string               `json:"customer_id"`
	Amount               string               `json:"amount"`
	PaymentDetails       model.PaymentDetails `json:"payment_details"`
	Metadata             map[string]string    `json:"metadata"`
}

func (h *APIHandlers) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createTransaction(w, r)
	case http.MethodGet:
		h.queryTransactions(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (h *APIHandlers) createTransaction(w http.ResponseWriter, r *http.Request) {
	req := createTransactionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	p, ok := h.pipelines[req.Scheme]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown scheme, expected NEFT or RTGS")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed amount")
		return
	}

	txn, err := p.CreateTransaction.Execute(r.Context(), usecase.CreateTransactionInput{
		TransactionReference: req.TransactionReference,
		CustomerID:           req.CustomerID,
		PaymentDetails:       req.PaymentDetails,
		Amount:               amount,
		Metadata:             req.Metadata,
	})
	if err != nil {
		h.writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse(txn))
}

func (h *APIHandlers) handleProcessTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	p := h.pipeline(w, r)
	if p == nil {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	txn, err := p.ProcessTransaction.Execute(r.Context(), id)
	if err != nil {
		// The transaction may still have been advanced to FAILED; report
		// the final state alongside the error class.
		h.writeProcessingError(w, err, txn)
		return
	}
	transactionsProcessed.WithLabelValues(string(txn.Scheme), string(txn.Status)).Inc()
	writeJSON(w, http.StatusOK, transactionResponse(txn))
}

func (h *APIHandlers) handleReconcileTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	p := h.pipeline(w, r)
	if p == nil {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	txn, err := p.Reconcile.Execute(r.Context(), id)
	if err != nil {
		h.writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionResponse(txn))
}

func (h *APIHandlers) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	p := h.pipeline(w, r)
	if p == nil {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	batch, err := p.ProcessBatch.Execute(r.Context(), id)
	if err != nil {
		h.writeProcessingError(w, err, nil)
		return
	}
	batchesProcessed.WithLabelValues(string(batch.Scheme), string(batch.Status)).Inc()
	writeJSON(w, http.StatusOK, batchResponse(batch))
}

func (h *APIHandlers) queryTransactions(w http.ResponseWriter, r *http.Request) {
	p := h.pipeline(w, r)
	if p == nil {
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	switch {
	case q.Get("id") != "":
		id, err := strconv.ParseUint(q.Get("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed id")
			return
		}
		txn, err := p.TransactionQueries.GetByID(r.Context(), uint(id))
		if err != nil {
			h.writeUseCaseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, transactionResponse(txn))
	case q.Get("reference") != "":
		txn, err := p.TransactionQueries.GetByReference(r.Context(), q.Get("reference"))
		if err != nil {
			h.writeUseCaseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, transactionResponse(txn))
	case q.Get("customer_id") != "":
		txns, err := p.TransactionQueries.GetByCustomer(r.Context(), q.Get("customer_id"), limit)
		if err != nil {
			h.writeUseCaseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, transactionListResponse(txns))
	case q.Get("status") != "":
		txns, err := p.TransactionQueries.GetByStatus(r.Context(), model.TransactionStatus(q.Get("status")), limit)
		if err != nil {
			h.writeUseCaseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, transactionListResponse(txns))
	case q.Get("batch_number") != "":
		txns, err := p.TransactionQueries.GetByBatchNumber(r.Context(), q.Get("batch_number"))
		if err != nil {
			h.writeUseCaseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, transactionListResponse(txns))
	default:
		writeError(w, http.StatusBadRequest, "one of id, reference, customer_id, status or batch_number is required")
	}
}

func (h *APIHandlers) handleBatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	p := h.pipeline(w, r)
	if p == nil {
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	switch {
	case q.Get("id") != "":
		id, err := strconv.ParseUint(q.Get("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed id")
			return
		}
		batch, err := p.BatchQueries.GetByID(r.Context(), uint(id))
		if err != nil {
			h.writeUseCaseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, batchResponse(batch))
	case q.Get("batch_number") != "":
		batch, err := p.BatchQueries.GetByBatchNumber(r.Context(), q.Get("batch_number"))
		if err != nil {
			h.writeUseCaseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, batchResponse(batch))
	case q.Get("status") != "":
		batches, err := p.BatchQueries.GetByStatus(r.Context(), model.BatchStatus(q.Get("status")), limit)
		if err != nil {
			h.writeUseCaseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, batchListResponse(batches))
	case q.Get("from") != "" && q.Get("to") != "":
		from, err1 := time.Parse(time.RFC3339, q.Get("from"))
		to, err2 := time.Parse(time.RFC3339, q.Get("to"))
		if err1 != nil || err2 != nil {
			writeError(w, http.StatusBadRequest, "from/to must be RFC3339 timestamps")
			return
		}
		batches, err := p.BatchQueries.GetByDateRange(r.Context(), from, to)
		if err != nil {
			h.writeUseCaseError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, batchListResponse(batches))
	default:
		writeError(w, http.StatusBadRequest, "one of id, batch_number, status or from/to is required")
	}
}

func (h *APIHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandlers) writeUseCaseError(w http.ResponseWriter, err error) {
	var validation *apperrors.ValidationError
	var limit *apperrors.LimitExceededError
	var duplicate *apperrors.DuplicateTransactionError
	var notFound *apperrors.NotFoundError
	var invalidState *apperrors.InvalidStateError

	switch {
	case errors.As(err, &validation), errors.As(err, &limit):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &duplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &invalidState):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Errorf("unexpected use case failure: %+v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeProcessingError distinguishes gateway faults, which leave the entity
// FAILED, from plain request errors.
func (h *APIHandlers) writeProcessingError(w http.ResponseWriter, err error, txn *model.Transaction) {
	var rejection *apperrors.GatewayRejectionError
	if apperrors.IsGatewayInfrastructure(err) || errors.As(err, &rejection) {
		payload := map[string]interface{}{"error": err.Error()}
		if txn != nil {
			payload["transaction"] = transactionResponse(txn)
			transactionsProcessed.WithLabelValues(string(txn.Scheme), string(txn.Status)).Inc()
		}
		writeJSON(w, http.StatusBadGateway, payload)
		return
	}
	h.writeUseCaseError(w, err)
}

func transactionResponse(txn *model.Transaction) map[string]interface{} {
	return map[string]interface{}{
		"id":                    txn.ID,
		"transaction_reference": txn.TransactionReference,
		"scheme":                txn.Scheme,
		"status":                txn.Status,
		"amount":                txn.Amount,
		"utr_number":            txn.UTRNumber,
		"batch_number":          txn.BatchNumber,
		"return_reason":         txn.ReturnReason,
		"error_message":         txn.ErrorMessage,
		"customer_id":           txn.CustomerID,
		"payment_details":       txn.PaymentDetails,
		"created_at":            txn.CreatedAt,
		"updated_at":            txn.UpdatedAt,
		"processed_at":          txn.ProcessedAt,
		"completed_at":          txn.CompletedAt,
	}
}

func transactionListResponse(txns []model.Transaction) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(txns))
	for i := range txns {
		out = append(out, transactionResponse(&txns[i]))
	}
	return out
}

func batchResponse(batch *model.Batch) map[string]interface{} {
	return map[string]interface{}{
		"id":                     batch.ID,
		"batch_number":           batch.BatchNumber,
		"scheme":                 batch.Scheme,
		"status":                 batch.DisplayStatus(),
		"batch_time":             batch.BatchTime,
		"total_transactions":     batch.TotalTransactions,
		"total_amount":           batch.TotalAmount,
		"completed_transactions": batch.CompletedTransactions,
		"failed_transactions":    batch.FailedTransactions,
		"transaction_ids":        batch.MemberIDs(),
		"submitted_at":           batch.SubmittedAt,
		"completed_at":           batch.CompletedAt,
	}
}

func batchListResponse(batches []model.Batch) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(batches))
	for i := range batches {
		out = append(out, batchResponse(&batches[i]))
	}
	return out
}

func parseID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed id")
		return 0, false
	}
	return uint(id), true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
