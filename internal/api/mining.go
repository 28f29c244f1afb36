package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fridell/cartlens/internal/basket"
	"github.com/fridell/cartlens/internal/dataset"
	"github.com/fridell/cartlens/internal/mining"
	"github.com/fridell/cartlens/internal/report"
	"github.com/fridell/cartlens/pkg/models"
)

// Upload format values.
const (
	formatTransactions = "transactions"
	formatOneHot       = "onehot"
)

// uploadDataset ingests a CSV upload, validates the schema and builds the
// basket matrix. Previous mining results are discarded; the user re-mines
// against the new dataset.
// POST /api/v1/dataset (multipart: file, format?, key_column?, item_column?)
func (s *Server) uploadDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "UploadTooLarge", "upload exceeds size limit")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "BadRequest", "missing file field")
		return
	}
	defer file.Close()

	ds, err := dataset.ParseCSV(file, header.Filename)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "ParseError", err.Error())
		return
	}

	keyColumn := r.FormValue("key_column")
	itemColumn := r.FormValue("item_column")
	namedColumns := keyColumn != "" || itemColumn != ""
	if keyColumn == "" {
		keyColumn = s.cfg.DefaultKeyColumn
	}
	if itemColumn == "" {
		itemColumn = s.cfg.DefaultItemColumn
	}
	format := r.FormValue("format")
	if format == "" {
		// Without an explicit format, long-form rows are assumed when the user
		// named either column or both configured defaults are present. Naming
		// a column that turns out to be absent surfaces the schema error below
		// instead of silently falling back to one-hot.
		if namedColumns || (ds.HasColumn(keyColumn) && ds.HasColumn(itemColumn)) {
			format = formatTransactions
		} else {
			format = formatOneHot
		}
	}

	var matrix *models.BasketMatrix
	switch format {
	case formatTransactions:
		matrix, err = basket.FromTransactions(ds, keyColumn, itemColumn)
	case formatOneHot:
		matrix, err = basket.FromOneHot(ds)
	default:
		respondError(w, http.StatusUnprocessableEntity, "InvalidParameterError",
			"format must be transactions or onehot")
		return
	}
	if err != nil {
		respondPipelineError(w, err)
		return
	}

	err = s.sessions.Update(r.Context(), sessionIDFromContext(r.Context()), func(sess *models.Session) error {
		sess.Dataset = ds
		sess.Matrix = matrix
		sess.Itemsets = nil
		sess.Rules = nil
		sess.Mined = false
		return nil
	})
	if err != nil {
		respondSessionError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "dataset uploaded",
		"filename":     ds.Filename,
		"rows":         ds.RowCount(),
		"columns":      ds.Columns,
		"format":       format,
		"transactions": matrix.TransactionCount(),
		"items":        matrix.ItemCount(),
	})
}

// previewDataset returns the header plus the first rows of the raw upload.
// GET /api/v1/dataset/preview?rows=N
func (s *Server) previewDataset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	if sess.Dataset == nil {
		respondPipelineError(w, models.ErrNoDataset)
		return
	}

	n := queryInt(r, "rows", s.cfg.PreviewRows)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"columns": sess.Dataset.Columns,
		"rows":    sess.Dataset.Preview(n),
		"total":   sess.Dataset.RowCount(),
	})
}

// previewMatrix returns the first rows of the binary basket matrix.
// GET /api/v1/dataset/matrix?rows=N
func (s *Server) previewMatrix(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	if sess.Matrix == nil {
		respondPipelineError(w, models.ErrNoDataset)
		return
	}

	m := sess.Matrix
	n := queryInt(r, "rows", s.cfg.PreviewRows)
	if n > m.TransactionCount() {
		n = m.TransactionCount()
	}
	rows := make([][]uint8, n)
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		rows[i] = m.Row(i)
		labels[i] = m.Transactions[i]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":        m.Items,
		"transactions": labels,
		"rows":         rows,
		"total":        m.TransactionCount(),
	})
}

// columnDistribution returns value counts for one raw dataset column.
// GET /api/v1/dataset/columns/{name}/distribution
func (s *Server) columnDistribution(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	if sess.Dataset == nil {
		respondPipelineError(w, models.ErrNoDataset)
		return
	}

	counts, err := dataset.ColumnDistribution(sess.Dataset, chi.URLParam(r, "name"))
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"column": models.NormalizeColumn(chi.URLParam(r, "name")),
		"counts": counts,
	})
}

// mineRequest carries the mining controls. Omitted fields fall back to the
// configured defaults; pointers distinguish "absent" from zero, since zero is
// a valid lift threshold.
type mineRequest struct {
	MinSupport   *float64 `json:"min_support"`
	Metric       string   `json:"metric"`
	MinThreshold *float64 `json:"min_threshold"`
}

// mine runs the full pipeline synchronously: frequent itemsets, then rules,
// replacing the session's previous results.
// POST /api/v1/mine
func (s *Server) mine(w http.ResponseWriter, r *http.Request) {
	var req mineRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "BadRequest", "invalid request body: "+err.Error())
			return
		}
	}

	params := models.MiningParams{
		MinSupport:   s.cfg.DefaultMinSupport,
		Metric:       models.Metric(s.cfg.DefaultMetric),
		MinThreshold: s.cfg.DefaultMinThreshold,
	}
	if req.MinSupport != nil {
		params.MinSupport = *req.MinSupport
	}
	if req.Metric != "" {
		params.Metric = models.Metric(req.Metric)
	}
	if req.MinThreshold != nil {
		params.MinThreshold = *req.MinThreshold
	}

	metric, err := models.ParseMetric(string(params.Metric))
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	params.Metric = metric

	var itemsets []models.Itemset
	var rules []models.Rule
	err = s.sessions.Update(r.Context(), sessionIDFromContext(r.Context()), func(sess *models.Session) error {
		if sess.Matrix == nil {
			return models.ErrNoDataset
		}
		itemsets, err = s.miner.Mine(sess.Matrix, params.MinSupport)
		if err != nil {
			return err
		}
		rules, err = mining.GenerateRules(itemsets, params.Metric, params.MinThreshold)
		if err != nil {
			return err
		}
		sess.Params = params
		sess.Itemsets = itemsets
		sess.Rules = rules
		sess.Mined = true
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) || errors.Is(err, models.ErrSessionExpired) {
			respondSessionError(w, err)
			return
		}
		respondPipelineError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"params":   params,
		"itemsets": itemsetTable(itemsets),
		"rules":    ruleTable(rules),
	})
}

// listItemsets returns the frequent-itemset table from the last run.
// GET /api/v1/itemsets
func (s *Server) listItemsets(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	if !sess.Mined {
		respondPipelineError(w, models.ErrNoResults)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"itemsets": itemsetTable(sess.Itemsets),
		"total":    len(sess.Itemsets),
	})
}

// listRules returns the rule table from the last run.
// GET /api/v1/rules
func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	if !sess.Mined {
		respondPipelineError(w, models.ErrNoResults)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rules": ruleTable(sess.Rules),
		"total": len(sess.Rules),
	})
}

// recommendations returns the top-N rule projection.
// GET /api/v1/recommendations?n=N
func (s *Server) recommendations(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	if !sess.Mined {
		respondPipelineError(w, models.ErrNoResults)
		return
	}
	n := queryInt(r, "n", report.DefaultTopN)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": report.TopRules(sess.Rules, n),
	})
}

// ruleGraph returns the directed rule network for the last run.
// GET /api/v1/graph
func (s *Server) ruleGraph(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	if !sess.Mined {
		respondPipelineError(w, models.ErrNoResults)
		return
	}
	graph, err := report.BuildRuleGraph(sess.Rules, sess.Params.Metric)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "InternalError", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, graph)
}

// chartItemsets renders the top-itemsets bar chart.
// GET /api/v1/charts/itemsets.png?n=N
func (s *Server) chartItemsets(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	if !sess.Mined {
		respondPipelineError(w, models.ErrNoResults)
		return
	}
	n := queryInt(r, "n", report.DefaultTopN)
	s.servePNG(w, func(buf *bytes.Buffer) error {
		return report.RenderTopItemsetsChart(buf, sess.Itemsets, n)
	})
}

// chartRules renders the support-vs-confidence bar chart.
// GET /api/v1/charts/rules.png
func (s *Server) chartRules(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	if !sess.Mined {
		respondPipelineError(w, models.ErrNoResults)
		return
	}
	s.servePNG(w, func(buf *bytes.Buffer) error {
		return report.RenderRulesChart(buf, sess.Rules)
	})
}

// chartColumn renders a raw-column distribution bar chart.
// GET /api/v1/charts/columns/{name}.png
func (s *Server) chartColumn(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), sessionIDFromContext(r.Context()))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	if sess.Dataset == nil {
		respondPipelineError(w, models.ErrNoDataset)
		return
	}
	column := chi.URLParam(r, "name")
	counts, err := dataset.ColumnDistribution(sess.Dataset, column)
	if err != nil {
		respondPipelineError(w, err)
		return
	}
	s.servePNG(w, func(buf *bytes.Buffer) error {
		return report.RenderColumnChart(buf, models.NormalizeColumn(column), counts)
	})
}

// servePNG renders a chart into a buffer so render errors can still be
// reported as JSON.
func (s *Server) servePNG(w http.ResponseWriter, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		if errors.Is(err, report.ErrNoChartData) {
			respondError(w, http.StatusConflict, "NoChartData", "nothing to chart for the current results")
			return
		}
		respondError(w, http.StatusInternalServerError, "InternalError", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// respondSessionError maps session store errors to 401.
func respondSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrSessionExpired) {
		respondError(w, http.StatusUnauthorized, "SessionExpired", "session expired, log in again")
		return
	}
	respondError(w, http.StatusUnauthorized, "NotLoggedIn", "log in first")
}

// itemsetRow is one row of the frequent-itemset table.
type itemsetRow struct {
	Items   []string `json:"items"`
	Label   string   `json:"label"`
	Support float64  `json:"support"`
}

func itemsetTable(itemsets []models.Itemset) []itemsetRow {
	rows := make([]itemsetRow, len(itemsets))
	for i, s := range itemsets {
		rows[i] = itemsetRow{Items: s.Items, Label: s.Label(), Support: s.Support}
	}
	return rows
}

// ruleRow is one row of the rule table.
type ruleRow struct {
	Antecedent      []string         `json:"antecedent"`
	Consequent      []string         `json:"consequent"`
	AntecedentLabel string           `json:"antecedent_label"`
	ConsequentLabel string           `json:"consequent_label"`
	Support         float64          `json:"support"`
	Confidence      float64          `json:"confidence"`
	Lift            float64          `json:"lift"`
	Leverage        float64          `json:"leverage"`
	Conviction      models.JSONFloat `json:"conviction"`
}

func ruleTable(rules []models.Rule) []ruleRow {
	rows := make([]ruleRow, len(rules))
	for i, r := range rules {
		rows[i] = ruleRow{
			Antecedent:      r.Antecedent,
			Consequent:      r.Consequent,
			AntecedentLabel: r.AntecedentLabel(),
			ConsequentLabel: r.ConsequentLabel(),
			Support:         r.Support,
			Confidence:      r.Confidence,
			Lift:            r.Lift,
			Leverage:        r.Leverage,
			Conviction:      r.Conviction,
		}
	}
	return rows
}

// queryInt reads a positive integer query parameter with a default.
func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
