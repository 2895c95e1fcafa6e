package discovery

import (
	"fmt"
	"log"
	"strconv"

	"assessment-service/internal/config"

	"github.com/hashicorp/consul/api"
)

type ServiceRegistry struct {
	client *api.Client
	config *config.Config
}

func NewServiceRegistry(config *config.Config) (*ServiceRegistry, error) {
	consulConfig := api.DefaultConfig()
	consulConfig.Address = config.Consul.ConsulAddress

	client, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %v", err)
	}

	return &ServiceRegistry{
		client: client,
		config: config,
	}, nil
}

func (sr *ServiceRegistry) httpServiceID() string {
	return sr.config.Server.ServiceID() + "-http"
}

// registration describes this replica's HTTP endpoint with a /health check.
func (sr *ServiceRegistry) registration() (*api.AgentServiceRegistration, error) {
	server := sr.config.Server
	httpPort, err := strconv.Atoi(server.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid service port %q: %w", server.Port, err)
	}

	return &api.AgentServiceRegistration{
		ID:      sr.httpServiceID(),
		Name:    server.ServiceName,
		Port:    httpPort,
		Address: server.ServiceAddress,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%s/health", server.ServiceAddress, server.Port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "1m",
		},
		Tags: []string{"assessment", "http"},
		Meta: map[string]string{
			"protocol": "http",
		},
	}, nil
}

func (sr *ServiceRegistry) Register() error {
	reg, err := sr.registration()
	if err != nil {
		return err
	}
	if err := sr.client.Agent().ServiceRegister(reg); err != nil {
		return fmt.Errorf("failed to register HTTP service with Consul: %v", err)
	}

	log.Println("Successfully registered HTTP service with Consul")
	return nil
}

func (sr *ServiceRegistry) Deregister() error {
	if err := sr.client.Agent().ServiceDeregister(sr.httpServiceID()); err != nil {
		return fmt.Errorf("error deregistering HTTP service: %v", err)
	}
	return nil
}
