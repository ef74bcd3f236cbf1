package discovery

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	consul "github.com/hashicorp/consul/api"
)

// DefaultServiceName is the name the server registers under
const DefaultServiceName = "battleship-server"

// HealthPath is the HTTP endpoint the Consul check polls
const HealthPath = "/healthz"

// Registrar registers this process as a Consul service and removes it again
type Registrar struct {
	client    *consul.Client
	serviceID string
	logger    *slog.Logger
}

// NewRegistrar creates a Consul client for the agent at addr
// (host:port or http://host:port)
func NewRegistrar(addr string, logger *slog.Logger) (*Registrar, error) {
	if logger == nil {
		logger = slog.Default()
	}

	config := consul.DefaultConfig()
	if addr != "" {
		config.Address = addr
	}

	client, err := consul.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &Registrar{client: client, logger: logger}, nil
}

// BuildRegistration describes the service with an HTTP health check on
// HealthPath. An empty or wildcard host is replaced by the machine hostname
// so the agent can reach the check.
func BuildRegistration(serviceName, host string, port int) *consul.AgentServiceRegistration {
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = hostname()
	}

	return &consul.AgentServiceRegistration{
		ID:      fmt.Sprintf("%s-%s-%d", serviceName, hostname(), port),
		Name:    serviceName,
		Address: host,
		Port:    port,
		Tags:    []string{"websocket", "game"},
		Meta:    map[string]string{"port": strconv.Itoa(port)},
		Check: &consul.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d%s", host, port, HealthPath),
			Timeout:                        "5s",
			Interval:                       "10s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

// Register registers reg with the local agent
func (r *Registrar) Register(reg *consul.AgentServiceRegistration) error {
	if err := r.client.Agent().ServiceRegister(reg); err != nil {
		return fmt.Errorf("failed to register service in consul: %w", err)
	}
	r.serviceID = reg.ID
	r.logger.Info("registered service in consul", "service", reg.Name, "service_id", reg.ID)
	return nil
}

// Deregister removes the service registered by Register, if any
func (r *Registrar) Deregister() error {
	if r.serviceID == "" {
		return nil
	}
	if err := r.client.Agent().ServiceDeregister(r.serviceID); err != nil {
		return fmt.Errorf("failed to deregister service %s: %w", r.serviceID, err)
	}
	r.logger.Info("deregistered service from consul", "service_id", r.serviceID)
	r.serviceID = ""
	return nil
}

func hostname() string {
	if h := os.Getenv("HOSTNAME"); h != "" {
		return h
	}
	h, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return h
}
