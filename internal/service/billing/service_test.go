package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/swaggyasy/tff-socket-server/internal/model"
	"github.com/swaggyasy/tff-socket-server/platform/logger"
)

type fakeGateway struct {
	createFn func(ctx context.Context, bill model.Bill) (string, error)

	calls    int
	lastBill model.Bill
}

func (g *fakeGateway) CreateBill(ctx context.Context, bill model.Bill) (string, error) {
	g.calls++
	g.lastBill = bill
	if g.createFn == nil {
		return "X1", nil
	}
	return g.createFn(ctx, bill)
}

type fakeRepo struct {
	mu    sync.Mutex
	bills map[string]*model.Bill

	createErr error
	updateErr error

	// readBarrier, when set, runs after the snapshot is taken and
	// before it is returned. Lets a test hold several readers at the
	// same stale snapshot.
	readBarrier func()

	updateCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{bills: map[string]*model.Bill{}}
}

func (r *fakeRepo) Create(_ context.Context, bill *model.Bill) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *bill
	r.bills[bill.BillCode] = &cp
	return nil
}

func (r *fakeRepo) BillByCode(_ context.Context, billCode string) (*model.Bill, error) {
	r.mu.Lock()
	bill, ok := r.bills[billCode]
	if !ok {
		r.mu.Unlock()
		return nil, model.ErrBillNotFound
	}
	cp := *bill
	r.mu.Unlock()

	if r.readBarrier != nil {
		r.readBarrier()
	}
	return &cp, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, billCode string, from, to model.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updateCalls++
	if r.updateErr != nil {
		return r.updateErr
	}
	bill, ok := r.bills[billCode]
	if !ok || bill.Status != from {
		return model.ErrBillConflict
	}
	bill.Status = to
	return nil
}

type fakeProducer struct {
	mu      sync.Mutex
	sendErr error

	calls int
	last  model.PaymentUpdate
}

func (p *fakeProducer) SendPaymentUpdate(_ context.Context, update model.PaymentUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.last = update
	return p.sendErr
}

func validParams() model.CreateBillParams {
	return model.CreateBillParams{
		FullName:  gofakeit.Name(),
		Email:     gofakeit.Email(),
		Phone:     gofakeit.Phone(),
		Amount:    decimal.RequireFromString("19.99"),
		AmountSet: true,
	}
}

func newSUT(gateway *fakeGateway, repo *fakeRepo, producer *fakeProducer) *service {
	return NewBillingService(gateway, repo, producer, time.Second, time.Second)
}

func TestService_CreateBill_Validation(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(p *model.CreateBillParams)
	}{
		{
			name:   "missing fullName",
			mutate: func(p *model.CreateBillParams) { p.FullName = "" },
		},
		{
			name:   "missing email",
			mutate: func(p *model.CreateBillParams) { p.Email = "" },
		},
		{
			name:   "missing phone",
			mutate: func(p *model.CreateBillParams) { p.Phone = "" },
		},
		{
			name: "missing amount",
			mutate: func(p *model.CreateBillParams) {
				p.Amount = decimal.Zero
				p.AmountSet = false
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gateway := &fakeGateway{}
			sut := newSUT(gateway, newFakeRepo(), &fakeProducer{})

			params := validParams()
			tt.mutate(&params)

			res, err := sut.CreateBill(ctx, params)

			require.ErrorIs(t, err, model.ErrValidation)
			require.Nil(t, res)
			require.Zero(t, gateway.calls, "no outbound call on validation failure")
		})
	}
}

func TestService_CreateBill(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()
	gatewayErr := errors.New("gateway exploded")

	tests := []struct {
		name      string
		createFn  func(ctx context.Context, bill model.Bill) (string, error)
		createErr error

		wantErrIs    error
		wantBillCode string
	}{
		{
			name:         "ok/bill code returned and stored pending",
			wantBillCode: "X1",
		},
		{
			name: "gateway error mapped to bad gateway",
			createFn: func(context.Context, model.Bill) (string, error) {
				return "", gatewayErr
			},
			wantErrIs: model.ErrBadGateway,
		},
		{
			name:      "repository error surfaces",
			createErr: errors.New("db down"),
			wantErrIs: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gateway := &fakeGateway{createFn: tt.createFn}
			repo := newFakeRepo()
			repo.createErr = tt.createErr
			sut := newSUT(gateway, repo, &fakeProducer{})

			res, err := sut.CreateBill(ctx, validParams())

			if tt.wantBillCode == "" {
				require.Error(t, err)
				if tt.wantErrIs != nil {
					require.ErrorIs(t, err, tt.wantErrIs)
				}
				require.Nil(t, res)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantBillCode, res.BillCode)

			stored, getErr := repo.BillByCode(ctx, tt.wantBillCode)
			require.NoError(t, getErr)
			require.Equal(t, model.PaymentStatusPending, stored.Status)
			require.EqualValues(t, 1999, stored.AmountCents, "19.99 must convert exactly")
			require.NotEmpty(t, stored.ExternalReferenceNo)
		})
	}
}

func TestService_CreateBill_AmountConversion(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()

	tests := []struct {
		amount    string
		wantCents int64
	}{
		{amount: "19.99", wantCents: 1999},
		{amount: "0.1", wantCents: 10},
		{amount: "29.985", wantCents: 2999},
		{amount: "100", wantCents: 10000},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.amount, func(t *testing.T) {
			t.Parallel()

			gateway := &fakeGateway{}
			sut := newSUT(gateway, newFakeRepo(), &fakeProducer{})

			params := validParams()
			params.Amount = decimal.RequireFromString(tt.amount)

			_, err := sut.CreateBill(ctx, params)
			require.NoError(t, err)
			require.Equal(t, tt.wantCents, gateway.lastBill.AmountCents)
		})
	}
}

func TestService_HandleCallback_Transitions(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()

	tests := []struct {
		name       string
		current    model.PaymentStatus
		statusCode int

		wantStatus    model.PaymentStatus
		wantPublished bool
	}{
		{
			name:          "pending to success",
			current:       model.PaymentStatusPending,
			statusCode:    model.GatewayStatusSuccess,
			wantStatus:    model.PaymentStatusSuccess,
			wantPublished: true,
		},
		{
			name:          "pending to failed",
			current:       model.PaymentStatusPending,
			statusCode:    model.GatewayStatusFailed,
			wantStatus:    model.PaymentStatusFailed,
			wantPublished: true,
		},
		{
			name:       "pending re-notified stays pending",
			current:    model.PaymentStatusPending,
			statusCode: model.GatewayStatusPending,
			wantStatus: model.PaymentStatusPending,
		},
		{
			name:       "same terminal re-delivered is a no-op",
			current:    model.PaymentStatusSuccess,
			statusCode: model.GatewayStatusSuccess,
			wantStatus: model.PaymentStatusSuccess,
		},
		{
			name:       "conflicting terminal is not overwritten",
			current:    model.PaymentStatusSuccess,
			statusCode: model.GatewayStatusFailed,
			wantStatus: model.PaymentStatusSuccess,
		},
		{
			name:       "unknown status code ignored",
			current:    model.PaymentStatusPending,
			statusCode: 42,
			wantStatus: model.PaymentStatusPending,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := newFakeRepo()
			repo.bills["X1"] = &model.Bill{
				BillCode:            "X1",
				ExternalReferenceNo: "TFF1",
				AmountCents:         1999,
				Status:              tt.current,
			}
			producer := &fakeProducer{}
			sut := newSUT(&fakeGateway{}, repo, producer)

			sut.HandleCallback(ctx, model.PaymentCallback{
				BillCode:   "X1",
				StatusCode: tt.statusCode,
			})

			stored, err := repo.BillByCode(ctx, "X1")
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, stored.Status)

			if tt.wantPublished {
				require.Equal(t, 1, producer.calls)
				require.Equal(t, "X1", producer.last.BillCode)
				require.Equal(t, tt.wantStatus, producer.last.Status)
			} else {
				require.Zero(t, producer.calls)
			}
		})
	}
}

// Two deliveries with conflicting terminal statuses race: both read
// the bill while it is still PENDING, then both try to transition.
// Exactly one may commit and publish; the other must lose the
// compare-and-set and leave the recorded outcome alone.
func TestService_HandleCallback_ConcurrentConflictingDeliveries(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()

	repo := newFakeRepo()
	repo.bills["X1"] = &model.Bill{
		BillCode:            "X1",
		ExternalReferenceNo: "TFF1",
		AmountCents:         1999,
		Status:              model.PaymentStatusPending,
	}

	// Hold both readers until each has its own PENDING snapshot, so
	// neither write can land before the other read.
	var readsDone sync.WaitGroup
	readsDone.Add(2)
	repo.readBarrier = func() {
		readsDone.Done()
		readsDone.Wait()
	}

	producer := &fakeProducer{}
	sut := newSUT(&fakeGateway{}, repo, producer)

	var wg sync.WaitGroup
	for _, code := range []int{model.GatewayStatusSuccess, model.GatewayStatusFailed} {
		code := code
		wg.Add(1)
		go func() {
			defer wg.Done()
			sut.HandleCallback(ctx, model.PaymentCallback{
				BillCode:   "X1",
				StatusCode: code,
			})
		}()
	}
	wg.Wait()

	repo.readBarrier = nil
	stored, err := repo.BillByCode(ctx, "X1")
	require.NoError(t, err)

	require.True(t, stored.Status.IsTerminal(), "one delivery must commit")
	require.Equal(t, 1, producer.calls, "only the committed transition is published")
	require.Equal(t, stored.Status, producer.last.Status,
		"the published status must match the recorded one")
}

func TestService_HandleCallback_NeverPanicsOrFails(t *testing.T) {
	t.Parallel()

	logger.SetNopLogger()
	ctx := context.Background()

	tests := []struct {
		name string
		cb   model.PaymentCallback
		prep func(repo *fakeRepo)
	}{
		{
			name: "unknown billcode",
			cb:   model.PaymentCallback{BillCode: "nope", StatusCode: model.GatewayStatusSuccess},
		},
		{
			name: "empty payload",
			cb:   model.PaymentCallback{},
		},
		{
			name: "repository update failure",
			cb:   model.PaymentCallback{BillCode: "X1", StatusCode: model.GatewayStatusSuccess},
			prep: func(repo *fakeRepo) {
				repo.bills["X1"] = &model.Bill{BillCode: "X1", Status: model.PaymentStatusPending}
				repo.updateErr = errors.New("db down")
			},
		},
		{
			name: "producer failure after transition",
			cb:   model.PaymentCallback{BillCode: "X1", StatusCode: model.GatewayStatusSuccess},
			prep: func(repo *fakeRepo) {
				repo.bills["X1"] = &model.Bill{BillCode: "X1", Status: model.PaymentStatusPending}
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := newFakeRepo()
			if tt.prep != nil {
				tt.prep(repo)
			}
			producer := &fakeProducer{sendErr: errors.New("broker down")}
			sut := newSUT(&fakeGateway{}, repo, producer)

			require.NotPanics(t, func() {
				sut.HandleCallback(ctx, tt.cb)
			})
		})
	}
}
