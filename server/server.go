// Package server wires the HydroLake services together and manages their lifecycle.
package server

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/keyvalue"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/alerts"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/authority"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/diagnostic"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/dispatch"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/httpd"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/realtime"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/smtp"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/storage"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/telemetry"
)

const serverIDFilename = "server.id"

// MetricsPath serves the Prometheus metrics.
const MetricsPath = "/metrics"

// BuildInfo represents the build details for the server code.
type BuildInfo struct {
	Version string
	Commit  string
	Branch  string
}

// Server represents a container for the storage and services.
// It is built using a Config and it manages the startup and shutdown of all
// services in the proper order.
type Server struct {
	dataDir  string
	hostname string

	config *Config

	err chan error

	HTTPDService     *httpd.Service
	StorageService   *storage.Service
	AuthorityService *authority.Service
	SMTPService      *smtp.Service
	TelemetryService *telemetry.Service
	DispatchService  *dispatch.Service
	AlertsService    *alerts.Service
	RealtimeHub      *realtime.Hub

	Registry *prometheus.Registry

	// List of services in startup order
	Services []Service
	// Map of service name to index in Services list
	ServicesByName map[string]int

	BuildInfo BuildInfo
	ServerID  uuid.UUID

	// Profiling
	CPUProfile string
	MemProfile string

	DiagService *diagnostic.Service
	Diag        *diagnostic.ServerHandler
}

// New returns a new instance of Server built from a config.
func New(c *Config, buildInfo BuildInfo, diagService *diagnostic.Service) (*Server, error) {
	err := c.Validate()
	if err != nil {
		return nil, fmt.Errorf("%s. To generate a valid configuration file run `hydrolaked config > hydrolake.generated.conf`.", err)
	}
	d := diagService.NewServerHandler()
	s := &Server{
		config:         c,
		BuildInfo:      buildInfo,
		dataDir:        c.DataDir,
		hostname:       c.Hostname,
		err:            make(chan error),
		DiagService:    diagService,
		Diag:           d,
		ServicesByName: make(map[string]int),
		Registry:       prometheus.NewRegistry(),
	}
	if s.dataDir != "" {
		if err := s.setupIDs(); err != nil {
			return nil, err
		}
	} else {
		s.ServerID = uuid.New()
	}
	s.Diag.Info("server starting",
		keyvalue.KV("hostname", s.hostname),
		keyvalue.KV("server_id", s.ServerID.String()),
	)

	if err := s.Registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, errors.Wrap(err, "register go collector")
	}
	if err := s.Registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, errors.Wrap(err, "register process collector")
	}

	s.initHTTPDService()
	s.appendStorageService()
	s.appendAuthorityService()
	s.appendSMTPService()
	s.appendTelemetryService()
	if err := s.appendDispatchService(); err != nil {
		return nil, errors.Wrap(err, "dispatch service")
	}
	s.appendAlertsService()
	s.appendRealtimeHub()
	if err := s.appendMetricsRoute(); err != nil {
		return nil, errors.Wrap(err, "metrics")
	}

	// Append HTTPD Service last so that the API is not listening till everything else succeeded.
	s.appendHTTPDService()

	return s, nil
}

func (s *Server) AppendService(name string, srv Service) {
	if _, ok := s.ServicesByName[name]; ok {
		// Should be unreachable code
		panic("cannot append service twice")
	}
	i := len(s.Services)
	s.Services = append(s.Services, srv)
	s.ServicesByName[name] = i
}

func (s *Server) initHTTPDService() {
	d := s.DiagService.NewHTTPDHandler()
	srv := httpd.NewService(s.config.HTTP, s.hostname, d)
	s.HTTPDService = srv
}

func (s *Server) appendHTTPDService() {
	s.AppendService("httpd", s.HTTPDService)
}

func (s *Server) appendStorageService() {
	d := s.DiagService.NewStorageHandler()
	srv := storage.NewService(s.config.Storage, d)

	s.StorageService = srv
	s.AppendService("storage", srv)
}

func (s *Server) appendAuthorityService() {
	d := s.DiagService.NewAuthorityHandler()
	srv := authority.NewService(d)
	srv.StorageService = s.StorageService

	s.AuthorityService = srv
	s.AppendService("authority", srv)
}

func (s *Server) appendSMTPService() {
	c := s.config.SMTP
	d := s.DiagService.NewSMTPHandler()
	srv := smtp.NewService(c, d)

	s.SMTPService = srv
	s.AppendService("smtp", srv)
}

func (s *Server) appendTelemetryService() {
	d := s.DiagService.NewTelemetryHandler()
	srv := telemetry.NewService(s.config.Telemetry, d)
	srv.HTTPDService = s.HTTPDService

	s.TelemetryService = srv
	s.AppendService("telemetry", srv)
}

// appendDispatchService adds the dispatcher used to escalate critical alerts.
// The server runs headless so the mailto fallback is never opened.
func (s *Server) appendDispatchService() error {
	d := s.DiagService.NewDispatchHandler()
	srv := dispatch.NewService(s.config.Dispatch, dispatch.NoOpener{}, d)
	srv.Metrics = dispatch.NewMetrics()
	if err := srv.Metrics.Register(s.Registry); err != nil {
		return err
	}

	s.DispatchService = srv
	s.AppendService("dispatch", srv)
	return nil
}

func (s *Server) appendAlertsService() {
	d := s.DiagService.NewAlertsHandler()
	srv := alerts.NewService(s.config.Alerts, d)
	srv.HTTPDService = s.HTTPDService
	srv.StorageService = s.StorageService
	srv.SMTPService = s.SMTPService
	srv.TelemetryService = s.TelemetryService
	srv.AuthorityDirectory = s.AuthorityService
	srv.Dispatcher = s.DispatchService

	s.AlertsService = srv
	s.AppendService("alerts", srv)
}

func (s *Server) appendRealtimeHub() {
	if !s.config.Realtime.Enabled {
		return
	}
	d := s.DiagService.NewRealtimeHandler()
	srv := realtime.NewHub(s.config.Realtime, d)
	srv.HTTPDService = s.HTTPDService
	srv.TelemetryService = s.TelemetryService

	s.RealtimeHub = srv
	s.AppendService("realtime", srv)
}

func (s *Server) appendMetricsRoute() error {
	h := promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})
	return s.HTTPDService.AddRawRoutes([]httpd.Route{
		{
			Name:        "metrics",
			Method:      "GET",
			Pattern:     MetricsPath,
			NoJSON:      true,
			HandlerFunc: h.ServeHTTP,
		},
	})
}

// Err returns an error channel that multiplexes all out of band errors received from all services.
func (s *Server) Err() <-chan error { return s.err }

// Open opens all the services.
func (s *Server) Open() error {

	// Start profiling, if set.
	if err := s.startProfile(s.CPUProfile, s.MemProfile); err != nil {
		return err
	}

	if err := s.startServices(); err != nil {
		s.Close()
		return err
	}

	go s.watchServices()

	return nil
}

func (s *Server) startServices() error {
	for _, service := range s.Services {
		s.Diag.Debug("opening service", keyvalue.KV("service", fmt.Sprintf("%T", service)))
		if err := service.Open(); err != nil {
			return fmt.Errorf("open service %T: %s", service, err)
		}
		s.Diag.Debug("opened service", keyvalue.KV("service", fmt.Sprintf("%T", service)))
	}
	return nil
}

// Watch if something dies
func (s *Server) watchServices() {
	err := <-s.HTTPDService.Err()
	s.err <- err
}

// Close shuts down all services in reverse startup order.
func (s *Server) Close() error {
	s.stopProfile()

	// Stop accepting requests before the services behind them go away.
	if err := s.HTTPDService.Close(); err != nil {
		s.Diag.Error("error closing httpd service", err)
	}

	for i := len(s.Services) - 1; i >= 0; i-- {
		service := s.Services[i]
		if service == Service(s.HTTPDService) {
			continue
		}
		s.Diag.Debug("closing service", keyvalue.KV("service", fmt.Sprintf("%T", service)))
		if err := service.Close(); err != nil {
			s.Diag.Error("error closing service", err, keyvalue.KV("service", fmt.Sprintf("%T", service)))
		}
		s.Diag.Debug("closed service", keyvalue.KV("service", fmt.Sprintf("%T", service)))
	}
	return nil
}

func (s *Server) setupIDs() error {
	// Create the data dir if not exists
	if f, err := os.Stat(s.dataDir); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(s.dataDir, 0755); err != nil {
				return errors.Wrapf(err, "data_dir %q does not exist, failed to create it", s.dataDir)
			}
		} else {
			return errors.Wrapf(err, "failed to stat data dir %q", s.dataDir)
		}
	} else if !f.IsDir() {
		return fmt.Errorf("path data_dir %s exists and is not a directory", s.dataDir)
	}

	serverIDPath := filepath.Join(s.dataDir, serverIDFilename)
	serverID, err := readID(serverIDPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if serverID == uuid.Nil {
		serverID = uuid.New()
		if err := writeID(serverIDPath, serverID); err != nil {
			return errors.Wrap(err, "failed to save server ID")
		}
	}
	s.ServerID = serverID
	return nil
}

func readID(file string) (uuid.UUID, error) {
	f, err := os.Open(file)
	if err != nil {
		return uuid.Nil, err
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.ParseBytes(b)
}

func writeID(file string, id uuid.UUID) error {
	return os.WriteFile(file, []byte(id.String()), 0644)
}

// Service represents a service attached to the server.
type Service interface {
	Open() error
	Close() error
}

// prof stores the file locations of active profiles.
var prof struct {
	cpu *os.File
	mem *os.File
}

// startProfile initializes the cpu and memory profile, if specified.
func (s *Server) startProfile(cpuprofile, memprofile string) error {
	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			return errors.Wrap(err, "cpuprofile")
		}
		s.Diag.Info("writing CPU profile", keyvalue.KV("file", cpuprofile))
		prof.cpu = f
		if err := pprof.StartCPUProfile(prof.cpu); err != nil {
			return errors.Wrap(err, "start cpu profile")
		}
	}

	if memprofile != "" {
		f, err := os.Create(memprofile)
		if err != nil {
			return errors.Wrap(err, "memprofile")
		}
		s.Diag.Info("writing mem profile", keyvalue.KV("file", memprofile))
		prof.mem = f
		runtime.MemProfileRate = 4096
	}
	return nil
}

// stopProfile closes the cpu and memory profiles if they are running.
func (s *Server) stopProfile() {
	if prof.cpu != nil {
		pprof.StopCPUProfile()
		prof.cpu.Close()
		prof.cpu = nil
		s.Diag.Info("CPU profile stopped")
	}
	if prof.mem != nil {
		if err := pprof.Lookup("heap").WriteTo(prof.mem, 0); err != nil {
			s.Diag.Error("failed to write mem profile", err)
		}
		prof.mem.Close()
		prof.mem = nil
		s.Diag.Info("mem profile stopped")
	}
}
