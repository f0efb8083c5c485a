package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/swaggyasy/tff-socket-server/internal/model"
	"github.com/swaggyasy/tff-socket-server/platform/logger"
)

type GatewayClient interface {
	CreateBill(ctx context.Context, bill model.Bill) (billCode string, err error)
}

type BillRepository interface {
	Create(ctx context.Context, bill *model.Bill) error
	BillByCode(ctx context.Context, billCode string) (*model.Bill, error)
	// UpdateStatus commits the transition only if the bill is still in
	// the from status; a lost race is reported as ErrBillConflict.
	UpdateStatus(ctx context.Context, billCode string, from, to model.PaymentStatus) error
}

type PaymentUpdateSender interface {
	SendPaymentUpdate(ctx context.Context, update model.PaymentUpdate) error
}

type service struct {
	gateway        GatewayClient
	repo           BillRepository
	producer       PaymentUpdateSender
	readDBTimeout  time.Duration
	writeDBTimeout time.Duration

	now func() time.Time
}

func NewBillingService(
	gateway GatewayClient,
	repository BillRepository,
	producer PaymentUpdateSender,
	readDBTimeout time.Duration,
	writeDBTimeout time.Duration,
) *service {
	return &service{
		gateway:        gateway,
		repo:           repository,
		producer:       producer,
		readDBTimeout:  readDBTimeout,
		writeDBTimeout: writeDBTimeout,
		now:            time.Now,
	}
}

// CreateBill validates the request, registers a bill with the payment
// gateway and persists it as PENDING. The gateway call is a single
// synchronous attempt; there is no retry.
func (svc *service) CreateBill(
	ctx context.Context,
	params model.CreateBillParams,
) (*model.CreateBillResult, error) {
	const op string = "billing.service.CreateBill"
	log := logger.With(
		logger.String("payor_email", params.Email),
	)

	if err := params.Validate(); err != nil {
		log.Error(ctx, "wrong params", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bill := model.Bill{
		ExternalReferenceNo: svc.newReferenceNo(),
		AmountCents:         params.AmountCents(),
		PayorName:           params.FullName,
		PayorEmail:          params.Email,
		PayorPhone:          params.Phone,
		Status:              model.PaymentStatusPending,
	}

	billCode, err := svc.gateway.CreateBill(ctx, bill)
	if err != nil {
		log.Error(ctx, "gateway create bill", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, model.ErrBadGateway)
	}
	bill.BillCode = billCode

	wdbCtx, wdbCancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer wdbCancel()

	if err := svc.repo.Create(wdbCtx, &bill); err != nil {
		// The bill exists at the gateway but has no local record; its
		// callback will land as "bill not found".
		log.Error(ctx, "repository create bill",
			logger.String("bill_code", billCode),
			logger.ErrorF(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "bill created",
		logger.String("bill_code", billCode),
		logger.Int64("amount_cents", bill.AmountCents),
	)

	return &model.CreateBillResult{BillCode: billCode}, nil
}

// HandleCallback ingests one gateway notification. It never reports an
// error to the caller: the transport always acknowledges, and every
// internal failure ends here as a log line. Delivery is at-least-once,
// so the transition logic is idempotent.
func (svc *service) HandleCallback(ctx context.Context, cb model.PaymentCallback) {
	log := logger.With(
		logger.String("bill_code", cb.BillCode),
		logger.Int("gateway_status", cb.StatusCode),
	)

	if cb.BillCode == "" {
		log.Warn(ctx, "callback without billcode ignored")
		return
	}

	next, err := model.PaymentStatusFromGatewayCode(cb.StatusCode)
	if err != nil {
		log.Warn(ctx, "callback with unknown status ignored", logger.ErrorF(err))
		return
	}

	rdbCtx, rdbCancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer rdbCancel()

	bill, err := svc.repo.BillByCode(rdbCtx, cb.BillCode)
	if err != nil {
		log.Warn(ctx, "callback for unknown bill ignored", logger.ErrorF(err))
		return
	}

	switch {
	case !next.IsTerminal():
		// A PENDING re-notification carries no transition.
		log.Info(ctx, "callback reports pending, nothing to do")
		return

	case bill.Status == next:
		// Same terminal status re-delivered: idempotent no-op.
		log.Info(ctx, "terminal status re-delivered, already recorded")
		return

	case bill.Status.IsTerminal():
		// A different terminal status after one is recorded is a
		// conflict; the recorded outcome is never overwritten.
		log.Error(ctx, "conflicting terminal status, keeping recorded outcome",
			logger.ErrorF(model.ErrBillConflict),
			logger.String("recorded", string(bill.Status)),
			logger.String("delivered", string(next)),
		)
		return
	}

	wdbCtx, wdbCancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer wdbCancel()

	// The read above is a snapshot; a concurrent delivery may have
	// transitioned the bill since. Only the winner of the store-side
	// compare-and-set publishes.
	if err := svc.repo.UpdateStatus(wdbCtx, cb.BillCode, bill.Status, next); err != nil {
		if errors.Is(err, model.ErrBillConflict) {
			log.Error(ctx, "concurrent delivery already transitioned bill, keeping recorded outcome",
				logger.ErrorF(err),
				logger.String("delivered", string(next)),
			)
			return
		}
		log.Error(ctx, "repository update status", logger.ErrorF(err))
		return
	}

	log.Info(ctx, "bill transitioned",
		logger.String("from", string(bill.Status)),
		logger.String("to", string(next)),
	)

	if err := svc.producer.SendPaymentUpdate(ctx, model.PaymentUpdate{
		BillCode:            bill.BillCode,
		ExternalReferenceNo: bill.ExternalReferenceNo,
		Status:              next,
		AmountCents:         bill.AmountCents,
		OccurredAt:          svc.now(),
	}); err != nil {
		log.Error(ctx, "send payment update", logger.ErrorF(err))
	}
}

// newReferenceNo derives a caller-side reference from the current time.
// Collisions under concurrent calls are possible in theory and are not
// deduplicated; the gateway key is the bill code, not this value.
func (svc *service) newReferenceNo() string {
	return fmt.Sprintf("TFF%d", svc.now().UnixNano())
}
