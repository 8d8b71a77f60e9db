package http

import (
	"fmt"
	"net/http"

	"github.com/couchcryptid/supplier-compliance-service/internal/compliance"
	"github.com/couchcryptid/supplier-compliance-service/internal/domain"
)

type createSupplierRequest struct {
	Name            string         `json:"name"`
	Country         string         `json:"country"`
	ContractTerms   map[string]any `json:"contract_terms"`
	ComplianceScore *int           `json:"compliance_score"`
	LastAudit       *string        `json:"last_audit"`
}

func (s *Server) handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req createSupplierRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	supplier := domain.Supplier{
		Name:            req.Name,
		Country:         req.Country,
		ContractTerms:   req.ContractTerms,
		ComplianceScore: domain.DefaultComplianceScore,
	}
	if req.ComplianceScore != nil {
		supplier.ComplianceScore = *req.ComplianceScore
	}
	if req.LastAudit != nil {
		audit, err := domain.ParseDate(*req.LastAudit)
		if err != nil {
			s.writeError(w, err)
			return
		}
		supplier.LastAudit = &audit
	}

	created, err := s.svc.CreateSupplier(r.Context(), supplier)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListSuppliers(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	suppliers, err := s.svc.ListSuppliers(r.Context(), skip, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suppliers)
}

func (s *Server) handleGetSupplier(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.GetSupplier(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleUpdateSupplier(w http.ResponseWriter, r *http.Request) {
	var update compliance.SupplierUpdate
	if err := decodeJSON(r, &update); err != nil {
		s.writeError(w, err)
		return
	}

	supplier, err := s.svc.UpdateSupplier(r.Context(), r.PathValue("id"), update)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, supplier)
}

func (s *Server) handleDeleteSupplier(w http.ResponseWriter, r *http.Request) {
	name, err := s.svc.DeleteSupplier(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Supplier %s deleted successfully", name),
	})
}

func (s *Server) handleCheckWeatherImpact(w http.ResponseWriter, r *http.Request) {
	var req compliance.WeatherImpactRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.svc.CheckWeatherImpact(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type checkComplianceRequest struct {
	SupplierID     string                   `json:"supplier_id"`
	ComplianceData []compliance.Observation `json:"compliance_data"`
}

func (s *Server) handleCheckCompliance(w http.ResponseWriter, r *http.Request) {
	var req checkComplianceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.svc.CheckCompliance(r.Context(), req.SupplierID, req.ComplianceData)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	supplierID := r.PathValue("supplier_id")
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)
	metric := r.URL.Query().Get("metric")

	records, err := s.svc.ListRecords(r.Context(), supplierID, metric, skip, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type createRecordRequest struct {
	Metric        string         `json:"metric"`
	DateRecorded  string         `json:"date_recorded"`
	Result        float64        `json:"result"`
	ExpectedValue *float64       `json:"expected_value"`
	Status        domain.Verdict `json:"status"`
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	date, err := domain.ParseDate(req.DateRecorded)
	if err != nil {
		s.writeError(w, err)
		return
	}

	rec, err := s.svc.CreateRecord(r.Context(), domain.ComplianceRecord{
		SupplierID:    r.PathValue("supplier_id"),
		Metric:        req.Metric,
		DateRecorded:  date,
		Result:        req.Result,
		ExpectedValue: req.ExpectedValue,
		Verdict:       req.Status,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	supplierID := r.URL.Query().Get("supplier_id")
	periodDays := queryInt(r, "time_period_days", 90)

	result, err := s.svc.Insights(r.Context(), supplierID, periodDays)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleComplianceSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.ComplianceSummary(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
