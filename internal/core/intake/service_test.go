package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit"
	"github.com/ogurasousui/hrms-clean-arch/internal/core/account"
	"github.com/ogurasousui/hrms-clean-arch/internal/core/employee"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time {
	return s.now
}

type fakeEmployeeRepo struct {
	byEmail map[string]*employee.Employee
	order   []string
	seq     int
	// createErrFor はこのメールアドレスへの Create を失敗させます。
	createErrFor string
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{byEmail: make(map[string]*employee.Employee)}
}

func (r *fakeEmployeeRepo) Create(_ context.Context, e *employee.Employee) (*employee.Employee, error) {
	if e.Email == r.createErrFor {
		return nil, errors.New("simulated insert failure")
	}
	if _, ok := r.byEmail[e.Email]; ok {
		return nil, employee.ErrEmailAlreadyExists
	}
	r.seq++
	clone := *e
	clone.ID = "emp-" + strconv.Itoa(r.seq)
	r.byEmail[e.Email] = &clone
	r.order = append(r.order, e.Email)
	result := clone
	return &result, nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, e *employee.Employee) (*employee.Employee, error) {
	existing, ok := r.byEmail[e.Email]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	*existing = *e
	clone := *existing
	return &clone, nil
}

func (r *fakeEmployeeRepo) Delete(_ context.Context, id string) error {
	for email, e := range r.byEmail {
		if e.ID == id {
			delete(r.byEmail, email)
			return nil
		}
	}
	return employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, id string) (*employee.Employee, error) {
	for _, e := range r.byEmail {
		if e.ID == id {
			clone := *e
			return &clone, nil
		}
	}
	return nil, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) FindByEmail(_ context.Context, email string) (*employee.Employee, error) {
	e, ok := r.byEmail[email]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	clone := *e
	return &clone, nil
}

func (r *fakeEmployeeRepo) List(_ context.Context, _ employee.ListEmployeesFilter) ([]*employee.Employee, int, string, error) {
	return nil, 0, "", errors.New("not implemented")
}

type fakeAccountRepo struct {
	byEmail      map[string]*account.Account
	seq          int
	createErrFor string
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byEmail: make(map[string]*account.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, a *account.Account) (*account.Account, error) {
	if a.Email == r.createErrFor {
		return nil, errors.New("simulated insert failure")
	}
	if _, ok := r.byEmail[a.Email]; ok {
		return nil, account.ErrEmailAlreadyExists
	}
	r.seq++
	clone := *a
	clone.ID = "acct-" + strconv.Itoa(r.seq)
	r.byEmail[a.Email] = &clone
	result := clone
	return &result, nil
}

func (r *fakeAccountRepo) FindByID(_ context.Context, id string) (*account.Account, error) {
	for _, a := range r.byEmail {
		if a.ID == id {
			clone := *a
			return &clone, nil
		}
	}
	return nil, account.ErrAccountNotFound
}

func (r *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	a, ok := r.byEmail[email]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *fakeAccountRepo) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	for _, a := range r.byEmail {
		if a.ID == id {
			a.PasswordHash = passwordHash
			return nil
		}
	}
	return account.ErrAccountNotFound
}

func (r *fakeAccountRepo) Delete(_ context.Context, id string) error {
	for email, a := range r.byEmail {
		if a.ID == id {
			delete(r.byEmail, email)
			return nil
		}
	}
	return account.ErrAccountNotFound
}

// fakeTx は失敗した作業単位を巻き戻すトランザクション境界のフェイクです。
// 失敗時は unit 内で作成された行をスナップショットへ戻します。
type fakeTx struct {
	employees *fakeEmployeeRepo
	accounts  *fakeAccountRepo
	begun     int
}

func (t *fakeTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	t.begun++

	empSnapshot := make(map[string]*employee.Employee, len(t.employees.byEmail))
	for k, v := range t.employees.byEmail {
		clone := *v
		empSnapshot[k] = &clone
	}
	acctSnapshot := make(map[string]*account.Account, len(t.accounts.byEmail))
	for k, v := range t.accounts.byEmail {
		clone := *v
		acctSnapshot[k] = &clone
	}
	orderSnapshot := append([]string(nil), t.employees.order...)

	if err := fn(ctx); err != nil {
		t.employees.byEmail = empSnapshot
		t.employees.order = orderSnapshot
		t.accounts.byEmail = acctSnapshot
		return err
	}
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

func (plainHasher) Compare(hash, plaintext string) error {
	if hash != "hashed:"+plaintext {
		return errors.New("mismatch")
	}
	return nil
}

type stubIssuer struct{}

func (stubIssuer) Issue(accountID, role string) (string, error) {
	return "token:" + accountID + ":" + role, nil
}

type stubExtractor struct {
	response string
	err      error
	calls    int
}

func (s *stubExtractor) Generate(_ context.Context, _ string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type recordingMailer struct {
	sent    []WelcomeMail
	failFor map[string]bool
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{failFor: make(map[string]bool)}
}

func (m *recordingMailer) SendWelcome(_ context.Context, mail WelcomeMail) error {
	if m.failFor[mail.To] {
		return errors.New("smtp relay down")
	}
	m.sent = append(m.sent, mail)
	return nil
}

type intakeFixture struct {
	employees *fakeEmployeeRepo
	accounts  *fakeAccountRepo
	tx        *fakeTx
	extractor *stubExtractor
	mailer    *recordingMailer
	svc       *Service
}

func newFixture(response string) *intakeFixture {
	employees := newFakeEmployeeRepo()
	accounts := newFakeAccountRepo()
	tx := &fakeTx{employees: employees, accounts: accounts}
	extractor := &stubExtractor{response: response}
	mailer := newRecordingMailer()
	clock := stubClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := NewService(
		employees, accounts,
		employee.NewService(employees, clock),
		account.NewService(accounts, plainHasher{}, stubIssuer{}, clock),
		tx, extractor, mailer, clock,
		Config{PasswordLength: 12, SystemActorID: "system"},
	)
	return &intakeFixture{employees: employees, accounts: accounts, tx: tx, extractor: extractor, mailer: mailer, svc: svc}
}

func extractedJSON(t *testing.T, people []ExtractedEmployee) string {
	t.Helper()
	b, err := json.Marshal(people)
	if err != nil {
		t.Fatalf("failed to marshal fixture: %v", err)
	}
	return string(b)
}

func johnDoe() ExtractedEmployee {
	return ExtractedEmployee{
		FirstName:  "John",
		LastName:   "Doe",
		Email:      "john.doe@co.com",
		JobTitle:   "Software Engineer",
		Department: "Engineering",
		StartDate:  "2025-01-15",
	}
}

func TestIntake_EmptyPrompt(t *testing.T) {
	t.Parallel()

	f := newFixture("[]")

	_, err := f.svc.Intake(context.Background(), "   ", "acct-1")
	if !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	if f.extractor.calls != 0 {
		t.Errorf("extraction must not be called for an empty prompt")
	}
}

func TestIntake_ExtractorUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture("[]")
	svc := NewService(
		f.employees, f.accounts,
		employee.NewService(f.employees, nil),
		account.NewService(f.accounts, plainHasher{}, stubIssuer{}, nil),
		f.tx, nil, f.mailer, nil, Config{},
	)

	_, err := svc.Intake(context.Background(), "hire John Doe", "acct-1")
	if !errors.Is(err, ErrExtractorUnavailable) {
		t.Fatalf("expected ErrExtractorUnavailable, got %v", err)
	}
	if f.tx.begun != 0 {
		t.Errorf("no persistence must happen when the extractor is unconfigured")
	}
}

func TestIntake_UnparseableResponse(t *testing.T) {
	t.Parallel()

	f := newFixture("I could not find any employees in the text, sorry!")

	_, err := f.svc.Intake(context.Background(), "hire John Doe", "acct-1")
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if f.tx.begun != 0 {
		t.Errorf("nothing must be provisioned when the batch is unparseable")
	}
}

func TestIntake_GenerationFailure(t *testing.T) {
	t.Parallel()

	f := newFixture("")
	f.extractor.err = errors.New("upstream 500")

	_, err := f.svc.Intake(context.Background(), "hire John Doe", "acct-1")
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestIntake_SingleSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(extractedJSON(t, []ExtractedEmployee{johnDoe()}))

	report, err := f.svc.Intake(context.Background(), "John Doe, Software Engineer in Engineering, starts 2025-01-15, john.doe@co.com", "acct-9")
	if err != nil {
		t.Fatalf("Intake returned error: %v", err)
	}

	want := Summary{TotalProcessed: 1, SuccessfulCreations: 1, EmailsSent: 1}
	if report.Summary != want {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}

	result := report.Results[0]
	if result.Outcome != OutcomeSuccess {
		t.Errorf("expected success outcome, got %q", result.Outcome)
	}
	if result.EmployeeID == "" || result.AccountID == "" {
		t.Errorf("expected created ids, got %+v", result)
	}
	if !result.EmailSent {
		t.Errorf("expected email_sent true")
	}

	emp, err := f.employees.FindByEmail(context.Background(), "john.doe@co.com")
	if err != nil {
		t.Fatalf("employee not persisted: %v", err)
	}
	if emp.CreatedBy != "acct-9" {
		t.Errorf("expected created_by attribution, got %q", emp.CreatedBy)
	}
	if emp.StartDate == nil || !emp.StartDate.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start date: %v", emp.StartDate)
	}

	acct, err := f.accounts.FindByEmail(context.Background(), "john.doe@co.com")
	if err != nil {
		t.Fatalf("account not persisted: %v", err)
	}
	if acct.EmployeeID == nil || *acct.EmployeeID != emp.ID {
		t.Errorf("account must reference the employee record")
	}
	if acct.Role != account.RoleEmployee {
		t.Errorf("expected non-administrative role, got %q", acct.Role)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected one welcome mail, got %d", len(f.mailer.sent))
	}
	sent := f.mailer.sent[0]
	if sent.To != "john.doe@co.com" || sent.TempPassword == "" {
		t.Errorf("unexpected welcome mail: %+v", sent)
	}
	if acct.PasswordHash != "hashed:"+sent.TempPassword {
		t.Errorf("stored hash must be derived from the mailed credential")
	}
	if acct.PasswordHash == sent.TempPassword {
		t.Errorf("plaintext credential must not be persisted")
	}
}

func TestIntake_IdempotentResubmission(t *testing.T) {
	t.Parallel()

	people := []ExtractedEmployee{johnDoe(), {
		FirstName: "Jane", LastName: "Roe", Email: "jane.roe@co.com",
		JobTitle: "Designer", Department: "Design", StartDate: "2025-02-01",
	}}
	f := newFixture(extractedJSON(t, people))

	first, err := f.svc.Intake(context.Background(), "hire John and Jane", "acct-1")
	if err != nil {
		t.Fatalf("first Intake returned error: %v", err)
	}
	if first.Summary.SuccessfulCreations != 2 {
		t.Fatalf("expected 2 creations on first run, got %+v", first.Summary)
	}

	second, err := f.svc.Intake(context.Background(), "hire John and Jane", "acct-1")
	if err != nil {
		t.Fatalf("second Intake returned error: %v", err)
	}

	want := Summary{TotalProcessed: 2, Skipped: 2}
	if second.Summary != want {
		t.Fatalf("expected every record skipped on re-submission, got %+v", second.Summary)
	}
	for _, result := range second.Results {
		if result.Outcome != OutcomeSkipped {
			t.Errorf("expected skipped, got %q", result.Outcome)
		}
		if result.EmployeeID == "" {
			t.Errorf("skipped result must carry the existing employee id")
		}
	}
}

func TestIntake_PreservesExtractionOrder(t *testing.T) {
	t.Parallel()

	gofakeit.Seed(42)
	people := make([]ExtractedEmployee, 0, 8)
	for i := 0; i < 8; i++ {
		people = append(people, ExtractedEmployee{
			FirstName:  gofakeit.FirstName(),
			LastName:   gofakeit.LastName(),
			Email:      fmt.Sprintf("person%d@co.com", i),
			JobTitle:   gofakeit.JobTitle(),
			Department: "Engineering",
			StartDate:  "2025-01-15",
		})
	}
	f := newFixture(extractedJSON(t, people))

	report, err := f.svc.Intake(context.Background(), "hire everyone", "acct-1")
	if err != nil {
		t.Fatalf("Intake returned error: %v", err)
	}

	if len(report.Results) != len(people) {
		t.Fatalf("expected %d results, got %d", len(people), len(report.Results))
	}
	for i, result := range report.Results {
		if result.Extracted.Email != people[i].Email {
			t.Errorf("result %d out of order: got %s want %s", i, result.Extracted.Email, people[i].Email)
		}
	}
}

func TestProvision_OrphanAccountIsError(t *testing.T) {
	t.Parallel()

	f := newFixture(extractedJSON(t, []ExtractedEmployee{johnDoe()}))

	if _, err := f.accounts.Create(context.Background(), &account.Account{
		Email: "john.doe@co.com", PasswordHash: "hashed:x", Role: account.RoleEmployee,
	}); err != nil {
		t.Fatalf("failed to seed orphan account: %v", err)
	}

	report, err := f.svc.Intake(context.Background(), "hire John", "acct-1")
	if err != nil {
		t.Fatalf("Intake returned error: %v", err)
	}

	result := report.Results[0]
	if result.Outcome != OutcomeError {
		t.Fatalf("expected error outcome for orphan account, got %q", result.Outcome)
	}
	if report.Summary.Errors != 1 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}
	if _, err := f.employees.FindByEmail(context.Background(), "john.doe@co.com"); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Errorf("orphan account must not be silently repaired")
	}
}

func TestProvision_TransactionFailureLeavesNothing(t *testing.T) {
	t.Parallel()

	f := newFixture(extractedJSON(t, []ExtractedEmployee{johnDoe()}))
	f.accounts.createErrFor = "john.doe@co.com"

	report, err := f.svc.Intake(context.Background(), "hire John", "acct-1")
	if err != nil {
		t.Fatalf("Intake returned error: %v", err)
	}

	if report.Results[0].Outcome != OutcomeError {
		t.Fatalf("expected error outcome, got %q", report.Results[0].Outcome)
	}

	// 社員だけが残る部分状態は許されない。
	if _, err := f.employees.FindByEmail(context.Background(), "john.doe@co.com"); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Errorf("dangling employee left behind after failed unit")
	}
	if _, err := f.accounts.FindByEmail(context.Background(), "john.doe@co.com"); !errors.Is(err, account.ErrAccountNotFound) {
		t.Errorf("dangling account left behind after failed unit")
	}
	if len(f.mailer.sent) != 0 {
		t.Errorf("no mail must be sent for a failed unit")
	}
}

func TestProvision_MailFailureIsPartialSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(extractedJSON(t, []ExtractedEmployee{johnDoe()}))
	f.mailer.failFor["john.doe@co.com"] = true

	report, err := f.svc.Intake(context.Background(), "hire John", "acct-1")
	if err != nil {
		t.Fatalf("Intake returned error: %v", err)
	}

	result := report.Results[0]
	if result.Outcome != OutcomePartialSuccess {
		t.Fatalf("expected partial_success, got %q", result.Outcome)
	}
	if result.EmailSent {
		t.Errorf("email_sent must be false")
	}
	if result.EmployeeID == "" || result.AccountID == "" {
		t.Errorf("created ids must be reported even when mail fails")
	}

	want := Summary{TotalProcessed: 1, SuccessfulCreations: 1}
	if report.Summary != want {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}

	// レコードは巻き戻されず照会可能なまま。
	if _, err := f.employees.FindByEmail(context.Background(), "john.doe@co.com"); err != nil {
		t.Errorf("employee must remain queryable after mail failure: %v", err)
	}
	if _, err := f.accounts.FindByEmail(context.Background(), "john.doe@co.com"); err != nil {
		t.Errorf("account must remain queryable after mail failure: %v", err)
	}
}

func TestProvision_RecordFailureDoesNotBlockSiblings(t *testing.T) {
	t.Parallel()

	people := []ExtractedEmployee{
		{FirstName: "Bad", LastName: "Email", Email: "unknown", JobTitle: "x", Department: "y", StartDate: "2025-01-01"},
		johnDoe(),
	}
	f := newFixture(extractedJSON(t, people))

	report, err := f.svc.Intake(context.Background(), "hire both", "acct-1")
	if err != nil {
		t.Fatalf("Intake returned error: %v", err)
	}

	if report.Results[0].Outcome != OutcomeError {
		t.Errorf("expected first record error, got %q", report.Results[0].Outcome)
	}
	if report.Results[1].Outcome != OutcomeSuccess {
		t.Errorf("expected second record success, got %q", report.Results[1].Outcome)
	}

	want := Summary{TotalProcessed: 2, SuccessfulCreations: 1, EmailsSent: 1, Errors: 1}
	if report.Summary != want {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}
}

func TestProvision_UnknownDateStoredWithoutDate(t *testing.T) {
	t.Parallel()

	person := johnDoe()
	person.StartDate = "unknown"
	f := newFixture(extractedJSON(t, []ExtractedEmployee{person}))

	report, err := f.svc.Intake(context.Background(), "hire John", "acct-1")
	if err != nil {
		t.Fatalf("Intake returned error: %v", err)
	}
	if report.Results[0].Outcome != OutcomeSuccess {
		t.Fatalf("expected success, got %q", report.Results[0].Outcome)
	}

	emp, err := f.employees.FindByEmail(context.Background(), "john.doe@co.com")
	if err != nil {
		t.Fatalf("employee not persisted: %v", err)
	}
	if emp.StartDate != nil {
		t.Errorf("expected nil start date for unknown token, got %v", emp.StartDate)
	}
}

func TestProvision_FallsBackToSystemActor(t *testing.T) {
	t.Parallel()

	f := newFixture(extractedJSON(t, []ExtractedEmployee{johnDoe()}))

	if _, err := f.svc.Intake(context.Background(), "hire John", ""); err != nil {
		t.Fatalf("Intake returned error: %v", err)
	}

	emp, err := f.employees.FindByEmail(context.Background(), "john.doe@co.com")
	if err != nil {
		t.Fatalf("employee not persisted: %v", err)
	}
	if emp.CreatedBy != "system" {
		t.Errorf("expected system actor fallback, got %q", emp.CreatedBy)
	}
}

func TestResendWelcomeEmail_Success(t *testing.T) {
	t.Parallel()

	f := newFixture(extractedJSON(t, []ExtractedEmployee{johnDoe()}))

	report, err := f.svc.Intake(context.Background(), "hire John", "acct-1")
	if err != nil {
		t.Fatalf("Intake returned error: %v", err)
	}
	employeeID := report.Results[0].EmployeeID
	oldHash := f.accounts.byEmail["john.doe@co.com"].PasswordHash

	sent, err := f.svc.ResendWelcomeEmail(context.Background(), employeeID)
	if err != nil {
		t.Fatalf("ResendWelcomeEmail returned error: %v", err)
	}
	if !sent {
		t.Errorf("expected email sent")
	}

	if len(f.mailer.sent) != 2 {
		t.Fatalf("expected two mails total, got %d", len(f.mailer.sent))
	}
	if f.accounts.byEmail["john.doe@co.com"].PasswordHash == oldHash {
		t.Errorf("expected credential to be rotated")
	}
	if f.employees.seq != 1 || f.accounts.seq != 1 {
		t.Errorf("resend must not create new records")
	}
}

func TestResendWelcomeEmail_MailFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(extractedJSON(t, []ExtractedEmployee{johnDoe()}))

	report, err := f.svc.Intake(context.Background(), "hire John", "acct-1")
	if err != nil {
		t.Fatalf("Intake returned error: %v", err)
	}

	f.mailer.failFor["john.doe@co.com"] = true
	sent, err := f.svc.ResendWelcomeEmail(context.Background(), report.Results[0].EmployeeID)
	if err != nil {
		t.Fatalf("ResendWelcomeEmail returned error: %v", err)
	}
	if sent {
		t.Errorf("expected email_sent false on relay failure")
	}
}

func TestResendWelcomeEmail_UnknownEmployee(t *testing.T) {
	t.Parallel()

	f := newFixture("[]")

	if _, err := f.svc.ResendWelcomeEmail(context.Background(), "missing"); !errors.Is(err, employee.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}
