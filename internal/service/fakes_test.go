package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"bakerypos/internal/model"
	"bakerypos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txMarker struct{}

// snapshotter lets fakeTx roll a store back when the transaction fails.
type snapshotter interface {
	snapshot() func()
}

type fakeTx struct {
	stores []snapshotter
}

func (f *fakeTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}
	restores := make([]func(), 0, len(f.stores))
	for _, s := range f.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.New()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditLog
	for _, e := range r.entries {
		if action == "" || e.Action == action {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeInventoryRepo struct {
	mu      sync.Mutex
	records map[string]model.DailyInventory
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{records: make(map[string]model.DailyInventory)}
}

func inventoryKey(dateKey string, productID uuid.UUID) string {
	return dateKey + "/" + productID.String()
}

func (r *fakeInventoryRepo) put(rec model.DailyInventory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.Recompute()
	r.records[inventoryKey(rec.DateKey, rec.ProductID)] = rec
}

func (r *fakeInventoryRepo) get(dateKey string, productID uuid.UUID) model.DailyInventory {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[inventoryKey(dateKey, productID)]
}

func (r *fakeInventoryRepo) snapshot() func() {
	r.mu.Lock()
	saved := make(map[string]model.DailyInventory, len(r.records))
	for k, v := range r.records {
		saved[k] = v
	}
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.records = saved
		r.mu.Unlock()
	}
}

func (r *fakeInventoryRepo) FindByDateProduct(_ context.Context, dateKey string, productID uuid.UUID) (*model.DailyInventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[inventoryKey(dateKey, productID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *fakeInventoryRepo) FindByDateProductForUpdate(ctx context.Context, dateKey string, productID uuid.UUID) (*model.DailyInventory, error) {
	return r.FindByDateProduct(ctx, dateKey, productID)
}

func (r *fakeInventoryRepo) ListByDate(_ context.Context, dateKey string) ([]model.DailyInventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DailyInventory
	for _, rec := range r.records {
		if rec.DateKey == dateKey {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeInventoryRepo) Save(_ context.Context, record *model.DailyInventory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	r.records[inventoryKey(record.DateKey, record.ProductID)] = *record
	return nil
}

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements []model.StockMovement
}

func (r *fakeMovementRepo) snapshot() func() {
	r.mu.Lock()
	saved := append([]model.StockMovement(nil), r.movements...)
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.movements = saved
		r.mu.Unlock()
	}
}

func (r *fakeMovementRepo) Create(_ context.Context, movement *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	movement.ID = uuid.New()
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *fakeMovementRepo) Exists(_ context.Context, referenceID, productID uuid.UUID, movementType string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.movements {
		if m.ReferenceID != nil && *m.ReferenceID == referenceID && m.ProductID == productID && m.MovementType == movementType {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID, dateKey string) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID && (dateKey == "" || m.DateKey == dateKey) {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]model.Product
}

func newFakeProductRepo(products ...model.Product) *fakeProductRepo {
	r := &fakeProductRepo{products: make(map[uuid.UUID]model.Product)}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	all, _ := r.ListCatalog(ctx)
	return all, int64(len(all)), nil
}

func (r *fakeProductRepo) ListCatalog(_ context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

type fakeSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]model.Sale
}

func newFakeSaleRepo(sales ...model.Sale) *fakeSaleRepo {
	r := &fakeSaleRepo{sales: make(map[uuid.UUID]model.Sale)}
	for _, s := range sales {
		r.sales[s.ID] = s
	}
	return r
}

func (r *fakeSaleRepo) Create(_ context.Context, sale *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sales {
		if sale.SaleNo != "" && existing.SaleNo == sale.SaleNo {
			return gorm.ErrDuplicatedKey
		}
	}
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	r.sales[sale.ID] = *sale
	return nil
}

func (r *fakeSaleRepo) Update(_ context.Context, sale *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales[sale.ID] = *sale
	return nil
}

func (r *fakeSaleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sales, id)
	return nil
}

func (r *fakeSaleRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sales {
		kept := s.Items[:0:0]
		for _, it := range s.Items {
			if it.ID != itemID {
				kept = append(kept, it)
			}
		}
		s.Items = kept
		r.sales[id] = s
	}
	return nil
}

func (r *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *fakeSaleRepo) filter(keep func(model.Sale) bool) []model.Sale {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func (r *fakeSaleRepo) ListByShift(_ context.Context, shiftID uuid.UUID) ([]model.Sale, error) {
	return r.filter(func(s model.Sale) bool { return s.ShiftID != nil && *s.ShiftID == shiftID }), nil
}

func (r *fakeSaleRepo) ListByDateRange(_ context.Context, fromKey, toKey string) ([]model.Sale, error) {
	return r.filter(func(s model.Sale) bool { return s.DateKey >= fromKey && s.DateKey <= toKey }), nil
}

func (r *fakeSaleRepo) LastSaleNo(_ context.Context, dateKey string) (string, error) {
	last := ""
	for _, s := range r.filter(func(s model.Sale) bool { return s.DateKey == dateKey }) {
		if s.SaleNo > last {
			last = s.SaleNo
		}
	}
	return last, nil
}

func (r *fakeSaleRepo) ListChargeWithoutReceivable(_ context.Context) ([]model.Sale, error) {
	return r.filter(func(s model.Sale) bool { return s.PaymentMethod == model.PaymentCharge }), nil
}

func (r *fakeSaleRepo) UpdateDeductionStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.DeductionStatus = status
	r.sales[id] = s
	return nil
}

func (r *fakeSaleRepo) ListByDeductionStatus(_ context.Context, status string, limit int) ([]model.Sale, error) {
	out := r.filter(func(s model.Sale) bool { return s.DeductionStatus == status })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeReceivableRepo struct {
	mu          sync.Mutex
	receivables map[uuid.UUID]model.Receivable
	payments    []model.ReceivablePayment
}

func newFakeReceivableRepo() *fakeReceivableRepo {
	return &fakeReceivableRepo{receivables: make(map[uuid.UUID]model.Receivable)}
}

func (r *fakeReceivableRepo) snapshot() func() {
	r.mu.Lock()
	saved := make(map[uuid.UUID]model.Receivable, len(r.receivables))
	for k, v := range r.receivables {
		saved[k] = v
	}
	payments := append([]model.ReceivablePayment(nil), r.payments...)
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.receivables = saved
		r.payments = payments
		r.mu.Unlock()
	}
}

func (r *fakeReceivableRepo) Create(_ context.Context, receivable *model.Receivable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.receivables {
		if existing.SaleID == receivable.SaleID {
			return gorm.ErrDuplicatedKey
		}
	}
	receivable.ID = uuid.New()
	r.receivables[receivable.ID] = *receivable
	return nil
}

func (r *fakeReceivableRepo) Update(_ context.Context, receivable *model.Receivable) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receivables[receivable.ID] = *receivable
	return nil
}

func (r *fakeReceivableRepo) AddPayment(_ context.Context, payment *model.ReceivablePayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment.ID = uuid.New()
	r.payments = append(r.payments, *payment)
	return nil
}

func (r *fakeReceivableRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Receivable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.receivables[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *fakeReceivableRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Receivable, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeReceivableRepo) FindBySale(_ context.Context, saleID uuid.UUID) (*model.Receivable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.receivables {
		if rec.SaleID == saleID {
			return &rec, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeReceivableRepo) DeleteBySale(_ context.Context, saleID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range r.receivables {
		if rec.SaleID == saleID {
			delete(r.receivables, id)
		}
	}
	return nil
}

func (r *fakeReceivableRepo) List(_ context.Context, status string, customerID *uuid.UUID, page, limit int) ([]model.Receivable, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Receivable
	for _, rec := range r.receivables {
		if status != "" && rec.Status != status {
			continue
		}
		if customerID != nil && rec.ChargeCustomerID != *customerID {
			continue
		}
		out = append(out, rec)
	}
	return out, int64(len(out)), nil
}

type fakeCustomerRepo struct {
	customers map[uuid.UUID]model.ChargeCustomer
}

func (r *fakeCustomerRepo) Create(_ context.Context, customer *model.ChargeCustomer) error {
	customer.ID = uuid.New()
	r.customers[customer.ID] = *customer
	return nil
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ChargeCustomer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *fakeCustomerRepo) List(_ context.Context) ([]model.ChargeCustomer, error) {
	out := make([]model.ChargeCustomer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, c)
	}
	return out, nil
}

type fakeFailureRepo struct {
	failures map[uuid.UUID]model.DeductionFailure
}

func (r *fakeFailureRepo) Create(_ context.Context, failure *model.DeductionFailure) error {
	failure.ID = uuid.New()
	r.failures[failure.ID] = *failure
	return nil
}

func (r *fakeFailureRepo) FindByID(_ context.Context, id uuid.UUID) (*model.DeductionFailure, error) {
	f, ok := r.failures[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &f, nil
}

func (r *fakeFailureRepo) ListUnresolved(_ context.Context) ([]model.DeductionFailure, error) {
	var out []model.DeductionFailure
	for _, f := range r.failures {
		if f.ResolvedAt == nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFailureRepo) RecordRetry(_ context.Context, id uuid.UUID, stage string, attempts int, lastError string) error {
	f, ok := r.failures[id]
	if !ok || f.ResolvedAt != nil {
		return repository.ErrNotFound
	}
	f.Stage = stage
	f.Attempts += attempts
	f.LastError = lastError
	r.failures[id] = f
	return nil
}

func (r *fakeFailureRepo) MarkResolved(_ context.Context, id uuid.UUID) error {
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(topic, event string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, topic+":"+event)
}

func (r *fakeSaleRepo) snapshot() func() {
	r.mu.Lock()
	saved := make(map[uuid.UUID]model.Sale, len(r.sales))
	for k, v := range r.sales {
		saved[k] = v
	}
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.sales = saved
		r.mu.Unlock()
	}
}

type fakeShiftRepo struct {
	mu     sync.Mutex
	shifts map[uuid.UUID]model.Shift
}

func newFakeShiftRepo(shifts ...model.Shift) *fakeShiftRepo {
	r := &fakeShiftRepo{shifts: make(map[uuid.UUID]model.Shift)}
	for _, s := range shifts {
		r.shifts[s.ID] = s
	}
	return r
}

func (r *fakeShiftRepo) snapshot() func() {
	r.mu.Lock()
	saved := make(map[uuid.UUID]model.Shift, len(r.shifts))
	for k, v := range r.shifts {
		saved[k] = v
	}
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.shifts = saved
		r.mu.Unlock()
	}
}

func (r *fakeShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.shifts {
		if existing.DateKey == shift.DateKey && existing.ShiftNumber == shift.ShiftNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	shift.ID = uuid.New()
	r.shifts[shift.ID] = *shift
	return nil
}

func (r *fakeShiftRepo) Update(_ context.Context, shift *model.Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shifts[shift.ID] = *shift
	return nil
}

func (r *fakeShiftRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.shifts, id)
	return nil
}

func (r *fakeShiftRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *fakeShiftRepo) FindActiveByStaff(_ context.Context, staffID uuid.UUID) (*model.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shifts {
		if s.StaffID == staffID && s.Status == model.ShiftStatusActive {
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeShiftRepo) MaxShiftNumber(_ context.Context, dateKey string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	last := 0
	for _, s := range r.shifts {
		if s.DateKey == dateKey && s.ShiftNumber > last {
			last = s.ShiftNumber
		}
	}
	return last, nil
}

func (r *fakeShiftRepo) List(_ context.Context, filter repository.ShiftFilter, _, _ int) ([]model.Shift, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Shift
	for _, s := range r.shifts {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.StaffID != nil && s.StaffID != *filter.StaffID {
			continue
		}
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

// fakePurchaseRepo fails Create for the descriptions listed in failOn.
type fakePurchaseRepo struct {
	mu        sync.Mutex
	purchases map[uuid.UUID]model.PendingPurchase
	failOn    map[string]bool
}

func newFakePurchaseRepo(failOn ...string) *fakePurchaseRepo {
	r := &fakePurchaseRepo{purchases: make(map[uuid.UUID]model.PendingPurchase), failOn: make(map[string]bool)}
	for _, d := range failOn {
		r.failOn[d] = true
	}
	return r
}

func (r *fakePurchaseRepo) Create(_ context.Context, purchase *model.PendingPurchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn[purchase.Description] {
		return errors.New("connection reset")
	}
	purchase.ID = uuid.New()
	r.purchases[purchase.ID] = *purchase
	return nil
}

func (r *fakePurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PendingPurchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.purchases[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *fakePurchaseRepo) List(_ context.Context, status string, _, _ int) ([]model.PendingPurchase, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.PendingPurchase
	for _, p := range r.purchases {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePurchaseRepo) Update(_ context.Context, purchase *model.PendingPurchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purchases[purchase.ID] = *purchase
	return nil
}

type fakeSettingRepo struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{values: make(map[string]string)}
}

func (r *fakeSettingRepo) Get(_ context.Context, key string) (*model.AppSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.values[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.AppSetting{Key: key, Value: v}, nil
}

func (r *fakeSettingRepo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
	return nil
}

func (r *fakeSettingRepo) List(_ context.Context) ([]model.AppSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.AppSetting, 0, len(r.values))
	for k, v := range r.values {
		out = append(out, model.AppSetting{Key: k, Value: v})
	}
	return out, nil
}

type fakeStaffRepo struct {
	mu    sync.Mutex
	staff map[uuid.UUID]model.Staff
}

func newFakeStaffRepo(staff ...model.Staff) *fakeStaffRepo {
	r := &fakeStaffRepo{staff: make(map[uuid.UUID]model.Staff)}
	for _, s := range staff {
		r.staff[s.ID] = s
	}
	return r
}

func (r *fakeStaffRepo) Create(_ context.Context, staff *model.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	staff.ID = uuid.New()
	r.staff[staff.ID] = *staff
	return nil
}

func (r *fakeStaffRepo) Update(_ context.Context, staff *model.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.staff[staff.ID] = *staff
	return nil
}

func (r *fakeStaffRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.staff, id)
	return nil
}

func (r *fakeStaffRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.staff[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *fakeStaffRepo) List(_ context.Context, _, _ int) ([]model.Staff, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Staff, 0, len(r.staff))
	for _, s := range r.staff {
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

type fakeDeviceRepo struct {
	mu      sync.Mutex
	devices map[uuid.UUID]model.AuthorizedDevice
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: make(map[uuid.UUID]model.AuthorizedDevice)}
}

func (r *fakeDeviceRepo) Create(_ context.Context, device *model.AuthorizedDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.devices {
		if d.DeviceID == device.DeviceID {
			return gorm.ErrDuplicatedKey
		}
	}
	device.ID = uuid.New()
	r.devices[device.ID] = *device
	return nil
}

func (r *fakeDeviceRepo) FindActive(_ context.Context, deviceID string) (*model.AuthorizedDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.devices {
		if d.DeviceID == deviceID && d.RevokedAt == nil {
			return &d, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeDeviceRepo) List(_ context.Context) ([]model.AuthorizedDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.AuthorizedDevice, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeDeviceRepo) Revoke(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	d.RevokedAt = &now
	r.devices[id] = d
	return nil
}

type fakeEndorsementRepo struct {
	mu      sync.Mutex
	records map[string]model.ShiftInventory
}

func newFakeEndorsementRepo() *fakeEndorsementRepo {
	return &fakeEndorsementRepo{records: make(map[string]model.ShiftInventory)}
}

func (r *fakeEndorsementRepo) Create(_ context.Context, record *model.ShiftInventory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := record.ShiftID.String() + "/" + record.Phase
	if _, ok := r.records[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	record.ID = uuid.New()
	r.records[key] = *record
	return nil
}

func (r *fakeEndorsementRepo) FindByShiftPhase(_ context.Context, shiftID uuid.UUID, phase string) (*model.ShiftInventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[shiftID.String()+"/"+phase]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

type fakeDiscountRepo struct {
	discounts map[uuid.UUID]model.Discount
}

func newFakeDiscountRepo(discounts ...model.Discount) *fakeDiscountRepo {
	r := &fakeDiscountRepo{discounts: make(map[uuid.UUID]model.Discount)}
	for _, d := range discounts {
		r.discounts[d.ID] = d
	}
	return r
}

func (r *fakeDiscountRepo) Create(_ context.Context, discount *model.Discount) error {
	discount.ID = uuid.New()
	r.discounts[discount.ID] = *discount
	return nil
}

func (r *fakeDiscountRepo) Update(_ context.Context, discount *model.Discount) error {
	r.discounts[discount.ID] = *discount
	return nil
}

func (r *fakeDiscountRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Discount, error) {
	d, ok := r.discounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

func (r *fakeDiscountRepo) List(_ context.Context, activeOnly bool) ([]model.Discount, error) {
	var out []model.Discount
	for _, d := range r.discounts {
		if !activeOnly || d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

// fakeQueue records enqueued sales, or rejects them all when err is set.
type fakeQueue struct {
	err      error
	enqueued []uuid.UUID
}

func (q *fakeQueue) Enqueue(saleID uuid.UUID) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, saleID)
	return nil
}
