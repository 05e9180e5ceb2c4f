package settlement

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"CasinoMassProgram/api/auth"
	"CasinoMassProgram/internal/config"
	"CasinoMassProgram/internal/serviceiface"
)

const defaultTemplatePath = "./resources/crp_settlement_template.xlsx"

// SettlementService hosts the settlement statement API on its own port.
type SettlementService struct {
	pool         *pgxpool.Pool
	port         int
	templatePath string
	srv          *http.Server
}

func NewSettlementService(cfg map[string]interface{}, pool *pgxpool.Pool) serviceiface.Service {
	port := 6211
	switch v := cfg["port"].(type) {
	case int:
		port = v
	case float64:
		port = int(v)
	}
	templatePath, _ := cfg["template_path"].(string)
	if templatePath == "" {
		templatePath = defaultTemplatePath
	}
	return &SettlementService{
		pool:         pool,
		port:         port,
		templatePath: templatePath,
	}
}

func (s *SettlementService) Name() string { return "settlement" }

func (s *SettlementService) Start() error {
	router := mux.NewRouter()
	sub := router.PathPrefix("/api/settlementstatement").Subrouter()

	anyUser := func(h http.HandlerFunc) http.HandlerFunc {
		return auth.RequireRole(h, config.AdminRole, config.UserRole)
	}
	adminOnly := func(h http.HandlerFunc) http.HandlerFunc {
		return auth.RequireRole(h, config.AdminRole)
	}

	sub.HandleFunc("/settlement-statement-search", anyUser(SettlementStatementSearch(s.pool))).Methods("POST")
	sub.HandleFunc("/list-teamRepresentatives", anyUser(GetTeamRepresentatives(s.pool))).Methods("POST")
	sub.HandleFunc("/payment", adminOnly(Pay(s.pool))).Methods("POST")
	sub.HandleFunc("/unPaid", adminOnly(Unpay(s.pool))).Methods("POST")
	sub.HandleFunc("/payment-report", anyUser(GenerateSettlementPaymentReport(s.pool, s.templatePath))).Methods("POST")

	sub.HandleFunc("/import", adminOnly(ImportAndValidate(s.pool))).Methods("POST")
	sub.HandleFunc("/batches", anyUser(ListBatches(s.pool))).Methods("GET")
	sub.HandleFunc("/batch/{batchId}", anyUser(GetBatchSummary(s.pool))).Methods("GET")
	sub.HandleFunc("/batch-details", anyUser(GetBatchDetails(s.pool))).Methods("POST")
	sub.HandleFunc("/approve", adminOnly(ApprovedImport(s.pool))).Methods("POST")
	sub.HandleFunc("/batch/{batchId}/annotated", anyUser(DownloadAnnotated(s.pool))).Methods("GET")

	s.srv = &http.Server{Addr: fmt.Sprintf(":%d", s.port), Handler: router}
	go func() {
		log.Printf("[settlement] service started on :%d", s.port)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[settlement] server error: %v", err)
		}
	}()
	return nil
}

func (s *SettlementService) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
