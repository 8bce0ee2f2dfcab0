package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/figueredofxx/katalogo.digital/pkg/config"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const leaseTTLSeconds = 30

// Registry announces this API instance in etcd so the edge proxy can route
// storefront and admin hosts to live backends.
type Registry struct {
	client *clientv3.Client
	config *config.EtcdConfig
}

type Instance struct {
	Name string
	Host string
	Port int
}

func (i *Instance) addr() string {
	return net.JoinHostPort(i.Host, strconv.Itoa(i.Port))
}

func NewRegistry(cfg *config.EtcdConfig) (*Registry, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return &Registry{client: cli, config: cfg}, nil
}

func (r *Registry) key(inst *Instance) string {
	return fmt.Sprintf("%s%s/%s", r.config.Prefix, inst.Name, inst.addr())
}

// Register announces the instance under a keep-alive lease; the entry
// disappears on its own if the process dies.
func (r *Registry) Register(ctx context.Context, inst *Instance) error {
	lease, err := r.client.Grant(ctx, leaseTTLSeconds)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	if _, err := r.client.Put(ctx, r.key(inst), inst.addr(), clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return fmt.Errorf("failed to keep lease alive: %w", err)
	}
	go func() {
		for range ch {
		}
	}()
	return nil
}

func (r *Registry) Deregister(ctx context.Context, inst *Instance) error {
	if _, err := r.client.Delete(ctx, r.key(inst)); err != nil {
		return fmt.Errorf("failed to deregister instance: %w", err)
	}
	return nil
}

func (r *Registry) Close() error {
	return r.client.Close()
}
