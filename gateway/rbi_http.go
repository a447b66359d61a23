package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"time"

	"github.com/apsdehal/go-logger"
	"github.com/openzipkin/zipkin-go"
	"github.com/trakkie-id/paymentrails/apperrors"
	"github.com/trakkie-id/paymentrails/model"
)

// HTTPGateway talks to the RBI settlement interface over its REST boundary.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
	tracer  *zipkin.Tracer
	logger  *logger.Logger
}

func NewHTTPGateway(baseURL string, timeout time.Duration, tracer *zipkin.Tracer, log *logger.Logger) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		tracer:  tracer,
		logger:  log,
	}
}

type submitTransactionResponse struct {
	UTRNumber string `json:"utr_number"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

type batchItemOutcome struct {
	TransactionReference string `json:"transaction_reference"`
	Success              bool   `json:"success"`
	UTRNumber            string `json:"utr_number"`
	Error                string `json:"error"`
}

type submitBatchResponse struct {
	BatchNumber string             `json:"batch_number"`
	Status      string             `json:"status"`
	Outcomes    []batchItemOutcome `json:"transactions"`
}

func (g *HTTPGateway) SubmitTransaction(ctx context.Context, txn *model.Transaction) (*model.Transaction, error) {
	span, ctx := g.tracer.StartSpanFromContext(ctx, "RBI Submit Transaction")
	defer span.Finish()
	span.Tag("transaction.reference", txn.TransactionReference)

	body, err := json.Marshal(map[string]interface{}{
		"transaction_reference": txn.TransactionReference,
		"scheme":                txn.Scheme,
		"amount":                txn.Amount,
		"payment_details":       txn.PaymentDetails,
	})
	if err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}

	raw, err := g.post(ctx, g.baseURL+"/transactions", body)
	if err != nil {
		return nil, err
	}

	parsed := &submitTransactionResponse{}
	if err := json.Unmarshal(raw, parsed); err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}

	updated := *txn
	if parsed.Status == "PENDING" {
		if err := updated.MarkPending(parsed.UTRNumber); err != nil {
			return nil, err
		}
	} else {
		if err := updated.Complete(parsed.UTRNumber); err != nil {
			return nil, err
		}
	}

	g.logger.Infof("[RBI] transaction submitted, reference: %s, utr: %s, status: %s", txn.TransactionReference, parsed.UTRNumber, parsed.Status)
	return &updated, nil
}

func (g *HTTPGateway) SubmitBatch(ctx context.Context, batch *model.Batch, txns []model.Transaction) (*model.Batch, []model.Transaction, error) {
	span, ctx := g.tracer.StartSpanFromContext(ctx, "RBI Submit Batch")
	defer span.Finish()
	span.Tag("batch.number", batch.BatchNumber)

	items := make([]map[string]interface{}, 0, len(txns))
	for _, txn := range txns {
		items = append(items, map[string]interface{}{
			"transaction_reference": txn.TransactionReference,
			"amount":                txn.Amount,
			"payment_details":       txn.PaymentDetails,
		})
	}
	body, err := json.Marshal(map[string]interface{}{
		"batch_number": batch.BatchNumber,
		"scheme":       batch.Scheme,
		"transactions": items,
	})
	if err != nil {
		return nil, nil, &apperrors.SystemError{Cause: err}
	}

	raw, err := g.post(ctx, g.baseURL+"/batches", body)
	if err != nil {
		return nil, nil, err
	}

	parsed := &submitBatchResponse{}
	if err := json.Unmarshal(raw, parsed); err != nil {
		return nil, nil, &apperrors.SystemError{Cause: err}
	}

	outcomes := make(map[string]batchItemOutcome, len(parsed.Outcomes))
	for _, o := range parsed.Outcomes {
		outcomes[o.TransactionReference] = o
	}

	updatedBatch := *batch
	if err := updatedBatch.MarkSubmitted(); err != nil {
		return nil, nil, err
	}

	updatedTxns := make([]model.Transaction, 0, len(txns))
	for _, txn := range txns {
		updated := txn
		outcome, ok := outcomes[txn.TransactionReference]
		switch {
		case ok && outcome.Success:
			_ = updated.Complete(outcome.UTRNumber)
		case ok:
			_ = updated.Fail(outcome.Error)
		default:
			_ = updated.Fail("no outcome reported by rbi interface")
		}
		updatedTxns = append(updatedTxns, updated)
	}

	g.logger.Infof("[RBI] batch submitted, number: %s, members: %d", batch.BatchNumber, len(txns))
	return &updatedBatch, updatedTxns, nil
}

func (g *HTTPGateway) CheckTransactionStatus(ctx context.Context, utrNumber string) (*TransactionStatusReport, error) {
	raw, err := g.get(ctx, g.baseURL+"/transactions/"+utrNumber)
	if err != nil {
		return nil, err
	}
	report := &TransactionStatusReport{}
	if err := json.Unmarshal(raw, report); err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}
	return report, nil
}

func (g *HTTPGateway) CheckBatchStatus(ctx context.Context, batchNumber string) (*BatchStatusReport, error) {
	raw, err := g.get(ctx, g.baseURL+"/batches/"+batchNumber)
	if err != nil {
		return nil, err
	}
	report := &BatchStatusReport{}
	if err := json.Unmarshal(raw, report); err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}
	return report, nil
}

func (g *HTTPGateway) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return g.do(req)
}

func (g *HTTPGateway) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &apperrors.SystemError{Cause: err}
	}
	return g.do(req)
}

func (g *HTTPGateway) do(req *http.Request) ([]byte, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, &apperrors.GatewayTimeoutError{Cause: err}
		}
		return nil, &apperrors.GatewayConnectivityError{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.GatewayConnectivityError{Cause: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return raw, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, &apperrors.GatewayRejectionError{Code: resp.StatusCode, Message: rejectionMessage(raw)}
	default:
		return nil, &apperrors.GatewayConnectivityError{Cause: fmt.Errorf("rbi interface answered %d", resp.StatusCode)}
	}
}

func rejectionMessage(raw []byte) string {
	parsed := struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}{}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return string(raw)
}
