package appmanager

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"CasinoMassProgram/api/auth"
	"CasinoMassProgram/api/settlement"
	"CasinoMassProgram/internal/jobs"
	"CasinoMassProgram/internal/logger"
	"CasinoMassProgram/internal/serviceiface"
)

var (
	authDB  *sql.DB
	pgxPool *pgxpool.Pool
)

// SetDB installs the database/sql handle used by the auth service.
func SetDB(database *sql.DB) {
	authDB = database
}

// SetPgxPool installs the shared pgx pool used by the settlement side.
func SetPgxPool(pool *pgxpool.Pool) {
	pgxPool = pool
}

func GetPgxPool() *pgxpool.Pool {
	return pgxPool
}

var serviceConstructors = map[string]func(map[string]interface{}) serviceiface.Service{
	"logger": func(cfg map[string]interface{}) serviceiface.Service {
		l := logger.NewLoggerService(cfg)
		logger.SetGlobalLogger(l)
		return l
	},
	"auth": func(cfg map[string]interface{}) serviceiface.Service {
		return auth.NewAuthService(cfg, authDB)
	},
	"settlement": func(cfg map[string]interface{}) serviceiface.Service {
		return settlement.NewSettlementService(cfg, pgxPool)
	},
	"jobs": func(cfg map[string]interface{}) serviceiface.Service {
		return jobs.NewJobService(cfg, pgxPool)
	},
}

type ServiceConfig struct {
	Name     string                 `yaml:"name"`
	Sequence int                    `yaml:"sequence"`
	Config   map[string]interface{} `yaml:"config"`
}

type serviceFile struct {
	Services []ServiceConfig `yaml:"services"`
}

// LoadServiceSequence reads the service list from services.yaml, ordered by sequence.
func LoadServiceSequence(path string) ([]ServiceConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var file serviceFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	sort.SliceStable(file.Services, func(i, j int) bool {
		return file.Services[i].Sequence < file.Services[j].Sequence
	})
	return file.Services, nil
}

type AppManager struct {
	services []serviceiface.Service
	mu       sync.Mutex
}

func NewAppManager() *AppManager {
	return &AppManager{}
}

func (am *AppManager) RegisterService(s serviceiface.Service) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.services = append(am.services, s)
}

// AutoRegisterServices instantiates every configured service that has a
// known constructor, in sequence order.
func (am *AppManager) AutoRegisterServices(configs []ServiceConfig) {
	for _, cfg := range configs {
		ctor, ok := serviceConstructors[cfg.Name]
		if !ok {
			log.Printf("[appmanager] no constructor for service %q, skipping", cfg.Name)
			continue
		}
		am.RegisterService(ctor(cfg.Config))
	}
}

func (am *AppManager) GetServiceByName(name string) serviceiface.Service {
	am.mu.Lock()
	defer am.mu.Unlock()
	for _, s := range am.services {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func (am *AppManager) StartAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	for _, s := range am.services {
		log.Printf("[appmanager] starting service %q", s.Name())
		if err := s.Start(); err != nil {
			return fmt.Errorf("service %q failed to start: %w", s.Name(), err)
		}
	}
	return nil
}

func (am *AppManager) StopAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	var firstErr error
	for i := len(am.services) - 1; i >= 0; i-- {
		s := am.services[i]
		log.Printf("[appmanager] stopping service %q", s.Name())
		if err := s.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("service %q failed to stop: %w", s.Name(), err)
		}
	}
	return firstErr
}
