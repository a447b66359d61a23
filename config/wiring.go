package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/apsdehal/go-logger"
	"github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/middleware/http"
	"github.com/shopspring/decimal"
	"github.com/trakkie-id/paymentrails/config/conf"
	"github.com/trakkie-id/paymentrails/gateway"
	"github.com/trakkie-id/paymentrails/model"
	"github.com/trakkie-id/paymentrails/presentation"
	"github.com/trakkie-id/paymentrails/repository"
	"github.com/trakkie-id/paymentrails/service"
	"github.com/trakkie-id/paymentrails/usecase"
	"gorm.io/gorm"
)

// Application is the composed object graph: repositories, domain services,
// gateway, use cases and the HTTP surface, built once at startup in
// dependency order. There is no runtime service lookup.
type Application struct {
	NEFT    *presentation.Pipeline
	RTGS    *presentation.Pipeline
	Handler http.Handler
}

func BuildApplication(cfg conf.Config, log *logger.Logger, db *gorm.DB, tracer *zipkin.Tracer) (*Application, error) {
	neftMax, err := parseAmount("NEFT_MAX_AMOUNT", cfg.NEFTMaxAmount)
	if err != nil {
		return nil, err
	}
	rtgsMin, err := parseAmount("RTGS_MIN_AMOUNT", cfg.RTGSMinAmount)
	if err != nil {
		return nil, err
	}
	rtgsMax, err := parseAmount("RTGS_MAX_AMOUNT", cfg.RTGSMaxAmount)
	if err != nil {
		return nil, err
	}
	dailyLimit, err := parseAmount("DAILY_CUSTOMER_LIMIT", cfg.DailyCustomerLimit)
	if err != nil {
		return nil, err
	}
	cutoffs, err := service.ParseCutoffs(cfg.BatchCutoffTimes)
	if err != nil {
		return nil, err
	}

	audit := service.NewAuditLogService(db, log)

	var notifier service.NotificationService = service.NoopNotifier{}
	if cfg.KafkaBrokerAddress != "" && cfg.SMSTopic != "" {
		notifier = service.NewSMSNotifier(cfg.KafkaBrokerAddress, cfg.SMSTopic, log)
	}

	// The gateway implementation is chosen exactly once, here. Business
	// logic never branches on the profile.
	var rbi gateway.RBIGateway
	if strings.EqualFold(cfg.ApplicationEnv, "PROD") {
		rbi = gateway.NewHTTPGateway(cfg.RBIEndpoint, time.Duration(cfg.RBITimeoutSeconds)*time.Second, tracer, log)
	} else {
		rbi = gateway.NewMockGateway(gateway.MockConfig{
			Latency:     time.Duration(cfg.MockLatencyMillis) * time.Millisecond,
			SuccessRate: cfg.MockSuccessRate,
		}, log)
	}

	neft := buildPipeline(pipelineDeps{
		scheme: model.SCHEME_NEFT,
		limits: service.SchemeLimits{
			MaxAmount:          neftMax,
			DailyCustomerLimit: dailyLimit,
		},
		batched:  true,
		cutoffs:  cutoffs,
		holdMins: cfg.BatchHoldMinutes,
		db:       db,
		rbi:      rbi,
		audit:    audit,
		notifier: notifier,
		logger:   log,
	})

	// RTGS settles per instruction; its batch machinery exists for
	// reporting but creation does not group transactions into windows.
	rtgs := buildPipeline(pipelineDeps{
		scheme: model.SCHEME_RTGS,
		limits: service.SchemeLimits{
			MinAmount:          rtgsMin,
			MaxAmount:          rtgsMax,
			DailyCustomerLimit: dailyLimit,
		},
		batched:  false,
		cutoffs:  cutoffs,
		holdMins: cfg.BatchHoldMinutes,
		db:       db,
		rbi:      rbi,
		audit:    audit,
		notifier: notifier,
		logger:   log,
	})

	handlers := presentation.NewAPIHandlers(neft, rtgs, log)
	serverMiddleware := zipkinhttp.NewServerMiddleware(tracer, zipkinhttp.TagResponseSize(true))

	return &Application{
		NEFT:    neft,
		RTGS:    rtgs,
		Handler: serverMiddleware(handlers.Router()),
	}, nil
}

// parseAmount reads a configured rupee amount; an empty value disables the
// corresponding limit.
func parseAmount(name, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed %s: %w", name, err)
	}
	return amount, nil
}

type pipelineDeps struct {
	scheme   model.Scheme
	limits   service.SchemeLimits
	batched  bool
	cutoffs  []service.Cutoff
	holdMins int
	db       *gorm.DB
	rbi      gateway.RBIGateway
	audit    service.AuditLogger
	notifier service.NotificationService
	logger   *logger.Logger
}

func buildPipeline(deps pipelineDeps) *presentation.Pipeline {
	txnRepo := repository.NewTransactionRepository(deps.db, deps.scheme)
	batchRepo := repository.NewBatchRepository(deps.db, deps.scheme)
	validator := service.NewValidationService(deps.scheme, deps.limits, txnRepo, deps.logger)

	var scheduler *service.BatchScheduler
	if deps.batched {
		scheduler = service.NewBatchScheduler(deps.scheme, deps.cutoffs, deps.holdMins, batchRepo, deps.logger)
	}

	return &presentation.Pipeline{
		CreateTransaction:  usecase.NewCreateTransactionUseCase(deps.scheme, txnRepo, validator, scheduler, deps.audit, deps.logger),
		ProcessTransaction: usecase.NewProcessTransactionUseCase(txnRepo, validator, deps.rbi, deps.audit, deps.notifier, deps.logger),
		ProcessBatch:       usecase.NewProcessBatchUseCase(batchRepo, txnRepo, deps.rbi, deps.audit, deps.notifier, deps.logger),
		Reconcile:          usecase.NewReconcileTransactionUseCase(txnRepo, deps.rbi, deps.audit, deps.notifier, deps.logger),
		TransactionQueries: usecase.NewTransactionQueryUseCase(txnRepo),
		BatchQueries:       usecase.NewBatchQueryUseCase(batchRepo),
	}
}
