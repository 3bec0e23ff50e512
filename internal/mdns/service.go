// Package mdns provides mDNS/Zeroconf advertisement so companion apps can
// find the vault on the local network without manual configuration.
package mdns

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type companions browse for.
const ServiceType = "_mediavault._tcp"

// APIVersion is advertised in TXT records.
const APIVersion = "v1"

// Service manages mDNS advertisement for the companion server.
type Service struct {
	server *mdns.Server
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates an mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// Start begins advertising. Call after the HTTP server is listening. Failures
// are typically non-fatal (multicast unavailable in containers).
func (s *Service) Start(name, version string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
	}

	host, err := os.Hostname()
	if err != nil {
		host = "mediavault"
	}

	txtRecords := []string{
		fmt.Sprintf("name=%s", name),
		fmt.Sprintf("version=%s", version),
		fmt.Sprintf("api=%s", APIVersion),
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, txtRecords)
	if err != nil {
		return fmt.Errorf("create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("start mDNS server: %w", err)
	}

	s.server = server
	s.logger.Info("mDNS advertisement started", "service", ServiceType, "port", port, "name", name)
	return nil
}

// Stop stops advertising. Safe to call multiple times.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
		s.logger.Info("mDNS advertisement stopped")
	}
}
