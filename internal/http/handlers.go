package http

import (
	"bytes"
	"net/http"
	"strings"

	"microbiz/internal/core"
	"microbiz/internal/export"
	applog "microbiz/internal/log"
	"microbiz/internal/statement"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type categoriesResponse struct {
	Income       []core.CategoryInfo `json:"income"`
	Expense      []core.CategoryInfo `json:"expense"`
	PaymentTerms []int               `json:"paymentTerms"`
}

type withholdingRequest struct {
	Amount   core.FormValue `json:"amount"`
	Category core.Category  `json:"category"`
}

type withholdingResponse struct {
	Applicable  bool       `json:"applicable"`
	TaxWithheld core.Money `json:"taxWithheld"`
	HealthIns   core.Money `json:"healthIns"`
}

type capitalBody struct {
	Capital core.FormValue `json:"capital"`
}

type capitalResponse struct {
	Capital core.Money `json:"capital"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ServiceUnavailableError("not ready").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	period, _, err := ParsePeriodParam(r.URL.Query(), s.txs.Today())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	snap, err := s.snapshots.Statistics(r.Context(), period)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	NewJSONResponse().Body(snap).Write(w)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListTransactions(w, r)
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

// handleListTransactions returns transactions newest first, limited to
// ?period=YYYY-MM when given.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, status := s.listForRequest(w, r)
	if status != 0 {
		return
	}
	NewJSONResponse().Body(txs).Write(w)
}

func (s *Server) listForRequest(w http.ResponseWriter, r *http.Request) ([]core.Transaction, int) {
	period, explicit, err := ParsePeriodParam(r.URL.Query(), s.txs.Today())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return nil, http.StatusUnprocessableEntity
	}
	txs, err := s.txs.List(r.Context())
	if err != nil {
		resp := errorResponse(r, err)
		resp.Write(w)
		return nil, resp.statusCode
	}
	if explicit {
		filtered := make([]core.Transaction, 0, len(txs))
		for _, t := range txs {
			if period.Contains(t.Date) {
				filtered = append(filtered, t)
			}
		}
		txs = filtered
	}
	return statement.NewestFirst(txs), 0
}

// handleCreateTransaction accepts an entry-form draft. Fields left out take
// the form defaults, the category defaulting to the first account of the
// type. When both withholding fields are omitted they are computed from the
// amount and category.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	draft := core.NewDraft(s.txs.Today())
	draft.Category = ""
	draft.TaxWithheld, draft.HealthIns = "", ""
	if err := DecodeJSONBody(w, r, &draft); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	draft = SanitizeDraft(draft)
	if draft.Category == "" {
		draft.Category = core.DefaultCategory(draft.Type)
	}
	if draft.TaxWithheld == "" && draft.HealthIns == "" {
		draft = draft.WithCategory(draft.Category)
	}

	t, err := s.txs.Create(r.Context(), draft)
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	logMutation(r, applog.OpCreate, t)
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+t.ID).
		Body(t).
		Write(w)
}

func (s *Server) handleTogglePaymentStatus(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPatch, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	t, err := s.txs.TogglePaymentStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	logMutation(r, applog.OpToggle, t)
	NewJSONResponse().Body(t).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodDelete); resp != nil {
		resp.Write(w)
		return
	}
	id := r.PathValue("id")
	if err := s.txs.Delete(r.Context(), id); err != nil {
		errorResponse(r, err).Write(w)
		return
	}
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction deleted",
		applog.FieldOperation, applog.OpDelete, applog.FieldTransactionID, id)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func logMutation(r *http.Request, op string, t core.Transaction) {
	attrs := applog.Attrs{}.
		Add(applog.FieldOperation, op).
		Transaction(t.ID, string(t.Type), string(t.Category), t.Amount.String())
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transaction saved", attrs...)
}

func handleCategories(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	NewJSONResponse().Body(categoriesResponse{
		Income:       core.IncomeCategories,
		Expense:      core.ExpenseCategories,
		PaymentTerms: core.PaymentTermOptions,
	}).Write(w)
}

// handleWithholding previews payroll withholding for an amount and category.
// An unparseable amount counts as zero, as on the entry form.
func handleWithholding(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	var req withholdingRequest
	if err := DecodeJSONBody(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tax, health, ok := core.ComputeWithholding(core.AmountOrZero(string(req.Amount)), req.Category)
	NewJSONResponse().Body(withholdingResponse{
		Applicable:  ok,
		TaxWithheld: tax,
		HealthIns:   health,
	}).Write(w)
}

func (s *Server) handleCapital(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		capital, err := s.txs.Capital(r.Context())
		if err != nil {
			errorResponse(r, err).Write(w)
			return
		}
		NewJSONResponse().Body(capitalResponse{Capital: capital}).Write(w)
	case http.MethodPut:
		var body capitalBody
		if err := DecodeJSONBody(w, r, &body); err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		amount, err := core.ParseAmount(string(body.Capital))
		if err != nil {
			errorResponse(r, err).Write(w)
			return
		}
		if err := s.txs.SetCapital(r.Context(), amount); err != nil {
			errorResponse(r, err).Write(w)
			return
		}
		NewJSONResponse().Body(capitalResponse{Capital: amount}).Write(w)
	default:
		MethodNotAllowedError("GET, PUT").Write(w)
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.handleExport(w, r, "csv")
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.handleExport(w, r, "xlsx")
}

// handleExport renders into a buffer first so a failure can still produce a
// JSON error. An empty set produces no file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, ext string) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	txs, status := s.listForRequest(w, r)
	if status != 0 {
		return
	}
	if len(txs) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	var err error
	contentType := "text/csv; charset=utf-8"
	if ext == "xlsx" {
		contentType = xlsxContentType
		err = export.WriteXLSX(&buf, txs)
	} else {
		err = export.WriteCSV(&buf, txs)
	}
	if err != nil {
		errorResponse(r, err).Write(w)
		return
	}

	filename := export.Filename(s.txs.Today(), ext)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Transactions exported",
		applog.FieldOperation, applog.OpExport, "format", strings.ToUpper(ext), "rows", len(txs))
	attachmentHeaders(w, contentType, filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
